package alias

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

// PathConfig is the path-alias section of a tsconfig.json or jsconfig.json:
// a base directory and pattern -> targets mappings.
type PathConfig struct {
	// Dir is the repository-relative directory holding the config file.
	Dir string
	// BaseURL is compilerOptions.baseUrl as written.
	BaseURL string
	Paths   map[string][]string
}

// Empty reports whether the config declares nothing.
func (c PathConfig) Empty() bool { return c.BaseURL == "" && len(c.Paths) == 0 }

// Base is the repository-relative directory that targets are relative to.
func (c PathConfig) Base() string {
	return path.Clean(path.Join(c.Dir, c.BaseURL))
}

// Rules converts the mappings into rules with targets rebased onto Base.
// Patterns with longer literal prefixes come first, then lexical order, the
// way the TypeScript compiler picks among overlapping patterns.
func (c PathConfig) Rules() []Rule {
	if len(c.Paths) == 0 {
		return nil
	}
	base := c.Base()
	patterns := make([]string, 0, len(c.Paths))
	for p := range c.Paths {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		pi, pj := prefixLen(patterns[i]), prefixLen(patterns[j])
		if pi != pj {
			return pi > pj
		}
		return patterns[i] < patterns[j]
	})
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		if errs := (Rule{Pattern: p, Targets: c.Paths[p]}).violations(); len(errs) > 0 {
			continue
		}
		targets := make([]string, len(c.Paths[p]))
		for i, t := range c.Paths[p] {
			targets[i] = rebase(base, t)
		}
		rules = append(rules, Rule{Pattern: p, Targets: targets, Origin: OriginPathConfig})
	}
	return rules
}

func rebase(base, target string) string {
	target = strings.TrimPrefix(target, "./")
	if base == "." || base == "" {
		return target
	}
	// path.Join would drop a trailing "/*"; keep the wildcard intact.
	star := strings.IndexByte(target, '*')
	if star < 0 {
		return path.Join(base, target)
	}
	prefix := target[:star]
	joined := path.Join(base, prefix)
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		joined += "/"
	}
	return joined + target[star:]
}

type tsconfig struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// ParsePathConfig reads the baseUrl and paths of a tsconfig.json or
// jsconfig.json located in dir. Comments and trailing commas are accepted.
func ParsePathConfig(data []byte, dir string) (PathConfig, error) {
	var tc tsconfig
	if err := json.Unmarshal(StripJSONC(data), &tc); err != nil {
		return PathConfig{}, fmt.Errorf("parse path config: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	return PathConfig{Dir: dir, BaseURL: tc.CompilerOptions.BaseURL, Paths: tc.CompilerOptions.Paths}, nil
}

var trailingComma = regexp.MustCompile(`,(\s*[}\]])`)

// StripJSONC removes // and /* */ comments outside strings and commas that
// precede a closing bracket.
func StripJSONC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
		default:
			out = append(out, c)
		}
	}
	return trailingComma.ReplaceAll(out, []byte("$1"))
}
