package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

var stampPattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `)

func TestNewLoggerStampsLines(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("scanning repository", "root", "./repo")

	line := buf.String()
	if !stampPattern.MatchString(line) {
		t.Errorf("line %q should start with an HH:MM:SS.cc stamp", line)
	}
	if !strings.Contains(line, "root=./repo") {
		t.Errorf("line %q should carry the root field", line)
	}
}

// Extractor diagnostics are debug-level and only show with --verbose.
func TestNewLoggerVerbosity(t *testing.T) {
	tests := []struct {
		level log.Level
		want  []string
		skip  []string
	}{
		{
			level: log.InfoLevel,
			want:  []string{"ranking packages"},
			skip:  []string{"unresolved module path"},
		},
		{
			level: log.DebugLevel,
			want:  []string{"ranking packages", "unresolved module path"},
		},
		{
			level: log.WarnLevel,
			want:  []string{"registry lookup failed"},
			skip:  []string{"ranking packages", "unresolved module path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, tt.level)
			l.Debug("unresolved module path", "file", "src/lib.rs", "path", "net::tcp")
			l.Info("ranking packages", "metric", "pagerank")
			l.Warn("registry lookup failed", "package", "left-pad")

			out := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.skip {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(5 * time.Millisecond)

	prog.done("Analyzed ./repo")

	out := strings.TrimSpace(buf.String())
	if !strings.Contains(out, "Analyzed ./repo (") || !strings.HasSuffix(out, "s)") {
		t.Errorf("done() = %q, want message followed by elapsed duration", out)
	}
	if got := prog.elapsed(); got < 5*time.Millisecond {
		t.Errorf("elapsed() = %v, want at least 5ms", got)
	}
	if got := prog.elapsed(); got != got.Round(time.Millisecond) {
		t.Errorf("elapsed() = %v, want millisecond rounding", got)
	}
}

func TestProgressQuietLogger(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.WarnLevel))
	prog.done("Analyzed ./repo")

	if buf.Len() != 0 {
		t.Errorf("done() at warn level wrote %q", buf.String())
	}
}
