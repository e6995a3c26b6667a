package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/centrality"
	"github.com/drips-network/gardener/pkg/config"
	"github.com/drips-network/gardener/pkg/diag"
	"github.com/drips-network/gardener/pkg/errors"
	gio "github.com/drips-network/gardener/pkg/io"
)

func sampleResult() *gio.Result {
	return &gio.Result{
		Root:   "/src/app",
		Metric: config.MetricPageRank,
		DripList: []centrality.Entry{
			{
				PackageName: "lodash",
				URL:         "https://github.com/lodash/lodash",
				Ecosystem:   "npm",
				Packages:    []string{"lodash", "lodash.get", "lodash.set", "lodash.merge"},
				Mass:        0.6,
				Percentage:  decimal.RequireFromString("60.0000"),
			},
			{
				PackageName: "requests",
				URL:         "https://github.com/psf/requests",
				Ecosystem:   "pypi",
				Packages:    []string{"requests"},
				Mass:        0.4,
				Percentage:  decimal.RequireFromString("40.0000"),
			},
		},
		Stats:   gio.Stats{Files: 3, Packages: 2, Edges: 4, Resolved: 2, Unresolved: 1},
		Summary: map[diag.Kind]int{diag.UnresolvedPackage: 1, diag.ParseError: 2},
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := New(&errOut, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	for _, name := range []string{"analyze", "show", "cache", "version", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestApplyWeights(t *testing.T) {
	cfg := config.Default()
	if err := applyWeights(cfg, []string{"imports_local=1.5", " uses_component = 2 "}); err != nil {
		t.Fatalf("applyWeights() error: %v", err)
	}
	if cfg.Weights["imports_local"] != 1.5 {
		t.Errorf("imports_local = %g, want 1.5", cfg.Weights["imports_local"])
	}
	if cfg.Weights["uses_component"] != 2 {
		t.Errorf("uses_component = %g, want 2", cfg.Weights["uses_component"])
	}
	if cfg.Weights["imports_package"] != 0.5 {
		t.Errorf("imports_package = %g, want default 0.5", cfg.Weights["imports_package"])
	}

	err := applyWeights(config.Default(), []string{"imports_local", "=1", "imports_local=abc"})
	var v *errors.ValidationError
	if !asValidation(err, &v) {
		t.Fatalf("applyWeights() error = %v, want ValidationError", err)
	}
	if len(v.Violations) != 3 {
		t.Errorf("got %d violations, want 3: %v", len(v.Violations), v.Violations)
	}
}

func asValidation(err error, target **errors.ValidationError) bool {
	v, ok := err.(*errors.ValidationError)
	if ok {
		*target = v
	}
	return ok
}

func parseAnalyze(t *testing.T, args ...string) (*cobra.Command, *analyzeOpts) {
	t.Helper()
	opts := &analyzeOpts{}
	cmd := &cobra.Command{Use: "analyze"}
	opts.bindFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error: %v", args, err)
	}
	return cmd, opts
}

func TestAnalyzeConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "gardener.toml")
	if err := os.WriteFile(file, []byte("centrality_metric = \"katz\"\nmax_files = 10\ndrip_list_max_length = 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := map[string]string{
		"GARDENER_MAX_FILES":   "20",
		"GARDENER_CACHE":       "memory",
		"GARDENER_REPO_URL":    "https://github.com/acme/from-env",
		"GARDENER_ALPHA":       "0.2",
		"GARDENER_WORKERS":     "2",
		"GARDENER_CACHE_URL":   "",
		"GARDENER_CACHE_DIR":   "",
		"GARDENER_GITHUB_ONLY": "true",
	}
	getenv := func(k string) string { return env[k] }

	cmd, opts := parseAnalyze(t, "--config", file, "--limit", "3", "--all-forges", "--weight", "imports_local=2")
	cfg, err := opts.config(cmd, getenv)
	if err != nil {
		t.Fatalf("config() error: %v", err)
	}

	if cfg.Metric != config.MetricKatz {
		t.Errorf("Metric = %q, want katz from file", cfg.Metric)
	}
	if cfg.MaxFiles != 20 {
		t.Errorf("MaxFiles = %d, want 20 from env over file", cfg.MaxFiles)
	}
	if cfg.DripListMaxLength != 3 {
		t.Errorf("DripListMaxLength = %d, want 3 from flag over file", cfg.DripListMaxLength)
	}
	if cfg.Alpha != 0.2 || cfg.Workers != 2 {
		t.Errorf("Alpha, Workers = %g, %d, want env values", cfg.Alpha, cfg.Workers)
	}
	if cfg.Cache.Kind != cache.KindMemory {
		t.Errorf("Cache.Kind = %q, want memory from env", cfg.Cache.Kind)
	}
	if cfg.RepoURL != "https://github.com/acme/from-env" {
		t.Errorf("RepoURL = %q", cfg.RepoURL)
	}
	if cfg.GitHubOnly {
		t.Error("GitHubOnly should be false with --all-forges")
	}
	if cfg.Weights["imports_local"] != 2 {
		t.Errorf("imports_local weight = %g, want 2", cfg.Weights["imports_local"])
	}
	if cfg.MaxPathLength != config.DefaultMaxPathLength {
		t.Errorf("unset flag overrode MaxPathLength: %d", cfg.MaxPathLength)
	}
}

func TestAnalyzeConfigNoCache(t *testing.T) {
	cmd, opts := parseAnalyze(t, "--cache", "redis", "--no-cache")
	cfg, err := opts.config(cmd, func(string) string { return "" })
	if err != nil {
		t.Fatalf("config() error: %v", err)
	}
	if cfg.Cache.Kind != cache.KindNone {
		t.Errorf("Cache.Kind = %q, want none", cfg.Cache.Kind)
	}
}

func TestAnalyzeConfigErrors(t *testing.T) {
	cmd, opts := parseAnalyze(t, "--config", filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := opts.config(cmd, func(string) string { return "" }); err == nil {
		t.Error("config() should fail for a missing config file")
	}

	cmd, opts = parseAnalyze(t, "--weight", "bogus")
	if _, err := opts.config(cmd, func(string) string { return "" }); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("config() error = %v, want INVALID_CONFIG", err)
	}
}

func TestAnalyzeCommand(t *testing.T) {
	repo := t.TempDir()
	if err := os.WriteFile(filepath.Join(repo, "main.py"), []byte("import os\nimport sys\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	outDir := filepath.Join(t.TempDir(), "out")

	stdout, err := execute(t, "analyze", repo, "--no-cache", "--output", outDir, "--repo-url", "https://github.com/acme/app")
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	if !strings.Contains(stdout, "no dependencies ranked") {
		t.Errorf("stdout should report an empty drip list:\n%s", stdout)
	}
	for _, name := range []string{graphFile, resultFile} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	res, err := gio.ImportResult(filepath.Join(outDir, resultFile))
	if err != nil {
		t.Fatalf("ImportResult() error: %v", err)
	}
	if res.Stats.Files != 1 {
		t.Errorf("Stats.Files = %d, want 1", res.Stats.Files)
	}
	if res.RepoURL != "https://github.com/acme/app" {
		t.Errorf("RepoURL = %q", res.RepoURL)
	}
}

func TestAnalyzeCommandInvalidConfig(t *testing.T) {
	_, err := execute(t, "analyze", t.TempDir(), "--no-cache", "--metric", "betweenness", "--max-files", "0")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("analyze error = %v, want INVALID_CONFIG", err)
	}
}

func TestShowCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), resultFile)
	if err := gio.ExportResult(sampleResult(), path); err != nil {
		t.Fatal(err)
	}

	stdout, err := execute(t, "show", path)
	if err != nil {
		t.Fatalf("show error: %v", err)
	}
	for _, want := range []string{"github.com/lodash/lodash", "github.com/psf/requests", "60.0000", "unresolved_package"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("show output missing %q:\n%s", want, stdout)
		}
	}

	if _, err := execute(t, "show", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("show should fail for a missing file")
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.Contains(stdout, "version: ") || !strings.Contains(stdout, "commit: ") {
		t.Errorf("version output = %q", stdout)
	}
}

func TestCachePathCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GARDENER_CACHE_DIR", dir)

	stdout, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if strings.TrimSpace(stdout) != dir {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(stdout), dir)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GARDENER_CACHE_DIR", dir)

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	keyer := cache.NewDefaultKeyer()
	ctx := context.Background()
	for _, name := range []string{"lodash", "react"} {
		if err := fc.Set(ctx, keyer.URLKey("npm", name), []byte("https://github.com/x/"+name), 0); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	for _, name := range []string{"lodash", "react"} {
		if _, ok, _ := fc.Get(ctx, keyer.URLKey("npm", name)); ok {
			t.Errorf("%s still cached after clear", name)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	stdout, err := execute(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion error: %v", err)
	}
	if !strings.Contains(stdout, "gardener") {
		t.Error("bash completion should mention gardener")
	}
}

// =============================================================================
// Rendering
// =============================================================================

func TestPackageSummary(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b", "c"}, "a, b, c"},
		{[]string{"a", "b", "c", "d", "e"}, "a, b, c +2"},
	}
	for _, tt := range tests {
		if got := packageSummary(tt.in); got != tt.want {
			t.Errorf("packageSummary(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderDripList(t *testing.T) {
	out := renderDripList(sampleResult().DripList)
	for _, want := range []string{"Repository", "github.com/lodash/lodash", "lodash, lodash.get, lodash.set +1", "40.0000", "pypi"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "https://") {
		t.Error("table should strip the URL scheme")
	}
}

func TestRenderDiagnosticSummary(t *testing.T) {
	if out := renderDiagnosticSummary(nil); !strings.Contains(out, "no diagnostics") {
		t.Errorf("empty summary = %q", out)
	}
	out := renderDiagnosticSummary(map[diag.Kind]int{diag.UnresolvedPackage: 1, diag.ParseError: 2})
	parse := strings.Index(out, "parse_error")
	unresolved := strings.Index(out, "unresolved_package")
	if parse < 0 || unresolved < 0 || parse > unresolved {
		t.Errorf("summary should list kinds sorted:\n%s", out)
	}
}

func TestWriteReportFallback(t *testing.T) {
	r := sampleResult()
	r.Metric = config.MetricPageRank
	r.MetricFallback = true
	var buf bytes.Buffer
	writeReport(&buf, r)
	if !strings.Contains(buf.String(), "(fallback)") {
		t.Errorf("report should flag the metric fallback:\n%s", buf.String())
	}
}

// =============================================================================
// Interactive browser
// =============================================================================

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m DripListModel, msgs ...tea.Msg) DripListModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(DripListModel)
	}
	return m
}

func TestDripListModelNavigation(t *testing.T) {
	m := NewDripListModel(sampleResult())

	m = update(m, key("up"))
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after up at top, want 0", m.Cursor)
	}
	m = update(m, key("down"), key("j"), key("down"))
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want clamped to 1", m.Cursor)
	}
	m = update(m, key("g"))
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after g, want 0", m.Cursor)
	}
	m = update(m, key("G"))
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d after G, want 1", m.Cursor)
	}
}

func TestDripListModelScrolls(t *testing.T) {
	r := sampleResult()
	for i := 0; i < 20; i++ {
		r.DripList = append(r.DripList, r.DripList[1])
	}
	m := update(NewDripListModel(r), tea.WindowSizeMsg{Width: 80, Height: 17})
	if m.Height != 5 {
		t.Fatalf("Height = %d, want 5", m.Height)
	}
	for i := 0; i < 7; i++ {
		m = update(m, key("down"))
	}
	if m.Cursor != 7 || m.Offset != 3 {
		t.Errorf("Cursor, Offset = %d, %d, want 7, 3", m.Cursor, m.Offset)
	}
}

func TestDripListModelDetails(t *testing.T) {
	m := update(NewDripListModel(sampleResult()), key("enter"))
	if !m.Details {
		t.Fatal("enter should open details")
	}
	view := m.View()
	for _, want := range []string{"https://github.com/lodash/lodash", "lodash.merge", "[1/2]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if m = update(m, key("enter")); m.Details {
		t.Error("enter should close details")
	}
}

func TestDripListModelEmpty(t *testing.T) {
	m := update(NewDripListModel(&gio.Result{Root: "."}), key("down"), key("enter"))
	if m.Cursor != 0 || m.Details {
		t.Errorf("empty list should ignore navigation: %+v", m)
	}
	if !strings.Contains(m.View(), "no dependencies ranked") {
		t.Error("empty view should say so")
	}
}

func TestDripListModelQuit(t *testing.T) {
	for _, k := range []string{"q", "esc"} {
		msg := key(k)
		if k == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		}
		_, cmd := NewDripListModel(sampleResult()).Update(msg)
		if cmd == nil {
			t.Errorf("%s should quit", k)
		}
	}
}
