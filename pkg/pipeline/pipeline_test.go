package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drips-network/gardener/pkg/alias"
	"github.com/drips-network/gardener/pkg/artifacts"
	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/config"
	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/diag"
	"github.com/drips-network/gardener/pkg/errors"
	"github.com/drips-network/gardener/pkg/graph"
	gio "github.com/drips-network/gardener/pkg/io"
	"github.com/drips-network/gardener/pkg/urls"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

// registry answers npm lookups from a fixed table.
func registry(repos map[string]string) map[deps.Ecosystem]urls.Provider {
	return map[deps.Ecosystem]urls.Provider{
		deps.NPM: urls.ProviderFunc(func(_ context.Context, req urls.Request, _ bool) (string, error) {
			if u, ok := repos[req.Name]; ok {
				return u, nil
			}
			return "", errors.New(errors.ErrCodeNotFound, "%s not found", req.Name)
		}),
	}
}

func testRunner(repos map[string]string) *Runner {
	r := NewRunner(nil, nil, log.New(io.Discard))
	r.Providers = registry(repos)
	return r
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Workers = 4
	return cfg
}

func diagsOf(res *Result, kind diag.Kind) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range res.Report.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func sumPercent(res *Result) decimal.Decimal {
	total := decimal.Zero
	for _, e := range res.Report.DripList {
		total = total.Add(e.Percentage)
	}
	return total
}

func edgesOfType(g *graph.Graph, t graph.EdgeType) []graph.Edge {
	var out []graph.Edge
	for _, e := range g.Edges {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

var monorepo = map[string]string{
	"package-a/package.json": `{"name": "package-a", "dependencies": {"lodash": "^4.17.21"}}`,
	"package-b/package.json": `{"name": "package-b", "dependencies": {`,
	"package-c/package.json": `{"name": "package-c", "dependencies": {"react": "^18.2.0"}}`,
	"package-a/index.js":     "import _ from \"lodash\";\nimport { helper } from \"./util\";\n",
	"package-a/util.js":      "export const helper = 1;\n",
	"package-c/index.js":     "import React from \"react\";\n",
}

var monorepoURLs = map[string]string{
	"lodash": "https://github.com/lodash/lodash",
	"react":  "git+https://github.com/facebook/react.git",
}

func TestRunCorruptManifestIsDiagnostic(t *testing.T) {
	root := writeTree(t, monorepo)

	res, err := testRunner(monorepoURLs).Run(context.Background(), root, testConfig())
	require.NoError(t, err)

	bad := diagsOf(res, diag.InvalidManifest)
	require.Len(t, bad, 1)
	assert.Equal(t, "package-b/package.json", bad[0].Path)

	require.Len(t, res.Report.DripList, 2)
	var got []string
	for _, e := range res.Report.DripList {
		got = append(got, e.URL)
	}
	assert.ElementsMatch(t, []string{"https://github.com/lodash/lodash", "https://github.com/facebook/react"}, got)
	assert.True(t, sumPercent(res).Equal(decimal.NewFromInt(100)))

	assert.Equal(t, 3, res.Report.Stats.Files)
	assert.Equal(t, 2, res.Report.Stats.Packages)
	assert.Equal(t, 2, res.Report.Stats.Resolved)

	local := edgesOfType(res.Graph, graph.ImportsLocal)
	require.Len(t, local, 1)
	assert.Equal(t, graph.FileID("package-a/index.js"), local[0].Source)
	assert.Equal(t, graph.FileID("package-a/util.js"), local[0].Target)
}

func TestRunIsDeterministic(t *testing.T) {
	root := writeTree(t, monorepo)

	export := func() ([]byte, []byte) {
		res, err := testRunner(monorepoURLs).Run(context.Background(), root, testConfig())
		require.NoError(t, err)
		var g, r bytes.Buffer
		require.NoError(t, gio.WriteGraph(res.Graph, &g, gio.Indented))
		require.NoError(t, gio.WriteResult(res.Report, &r, gio.Indented))
		return g.Bytes(), r.Bytes()
	}
	g1, r1 := export()
	for range 3 {
		g2, r2 := export()
		assert.Equal(t, string(g1), string(g2))
		assert.Equal(t, string(r1), string(r2))
	}
}

func TestRunExcludesSelf(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json": `{"name": "app", "dependencies": {"app-core": "1.0.0", "lodash": "4.0.0"}}`,
		"index.js":     "import core from \"app-core\";\nimport _ from \"lodash\";\nimport x from \"app/utils\";\n",
	})
	r := testRunner(map[string]string{
		"app-core": "https://github.com/Acme/App.git",
		"lodash":   "https://github.com/lodash/lodash",
	})
	cfg := testConfig()
	cfg.RepoURL = "https://github.com/acme/app.git"

	res, err := r.Run(context.Background(), root, cfg)
	require.NoError(t, err)

	require.Len(t, res.Report.DripList, 1)
	assert.Equal(t, "https://github.com/lodash/lodash", res.Report.DripList[0].URL)
	for _, e := range res.Report.DripList {
		assert.NotEqual(t, "https://github.com/acme/app", e.URL)
	}

	self, ok := res.Graph.Node(graph.PackageID("npm", "app"))
	require.True(t, ok)
	assert.True(t, self.IsSelf)
	for _, e := range res.Graph.Edges {
		assert.NotEqual(t, self.ID, e.Target)
	}
}

func TestRunTruncatesDripList(t *testing.T) {
	files := map[string]string{}
	repos := map[string]string{}
	var declared []string
	for i := range 10 {
		name := fmt.Sprintf("dep%d", i)
		declared = append(declared, fmt.Sprintf("%q: \"1.0.0\"", name))
		repos[name] = "https://github.com/acme/" + name
	}
	files["package.json"] = `{"name": "app", "dependencies": {` + strings.Join(declared, ", ") + `}}`
	// file k imports dep0..dep(k-1), so lower-numbered deps collect more mass.
	for k := 1; k <= 10; k++ {
		var b strings.Builder
		for i := range k {
			fmt.Fprintf(&b, "import \"dep%d\";\n", i)
		}
		files[fmt.Sprintf("src/f%02d.js", k)] = b.String()
	}
	root := writeTree(t, files)
	cfg := testConfig()
	cfg.DripListMaxLength = 3

	res, err := testRunner(repos).Run(context.Background(), root, cfg)
	require.NoError(t, err)

	require.Len(t, res.Report.DripList, 3)
	assert.Equal(t, "acme/dep0", res.Report.DripList[0].PackageName)
	assert.Equal(t, "acme/dep1", res.Report.DripList[1].PackageName)
	assert.Equal(t, "acme/dep2", res.Report.DripList[2].PackageName)
	assert.True(t, sumPercent(res).Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 10, res.Report.Stats.Resolved)
}

func TestRunCircularWorkspace(t *testing.T) {
	root := writeTree(t, map[string]string{
		"packages/a/package.json": `{"name": "a", "dependencies": {"b": "workspace:*"}}`,
		"packages/b/package.json": `{"name": "b", "dependencies": {"c": "workspace:*"}}`,
		"packages/c/package.json": `{"name": "c", "dependencies": {"a": "workspace:*"}}`,
		"packages/a/index.js":     "import { run } from \"b\";\n",
	})

	res, err := testRunner(nil).Run(context.Background(), root, testConfig())
	require.NoError(t, err)

	manifest := func(m string) string { return graph.FileID("packages/" + m + "/package.json") }
	var pairs []string
	for _, e := range edgesOfType(res.Graph, graph.ImportsLocal) {
		if e.Attrs[graph.AttrIdent] != "" {
			continue
		}
		pairs = append(pairs, e.Source+" -> "+e.Target)
	}
	assert.ElementsMatch(t, []string{
		manifest("a") + " -> " + manifest("b"),
		manifest("b") + " -> " + manifest("c"),
		manifest("c") + " -> " + manifest("a"),
	}, pairs)

	var member *graph.Edge
	for _, e := range res.Graph.Edges {
		if e.Source == graph.FileID("packages/a/index.js") {
			member = &e
		}
	}
	require.NotNil(t, member)
	assert.Equal(t, graph.ImportsLocal, member.Type)
	assert.Equal(t, manifest("b"), member.Target)
	assert.Equal(t, "b", member.Attrs[graph.AttrWorkspace])
	assert.Empty(t, res.Report.DripList)
}

func TestRunCustomAliasBeatsPathConfig(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json":      `{"name": "app"}`,
		"tsconfig.json":     `{"compilerOptions": {"baseUrl": ".", "paths": {"@lib/*": ["src/lib/*"]}}}`,
		"src/index.ts":      "import { x } from \"@lib/x\";\n",
		"src/lib/x.ts":      "export const x = 1;\n",
		"src/override/x.ts": "export const x = 2;\n",
	})
	cfg := testConfig()
	cfg.AliasRules = []alias.RuleSpec{{Pattern: "@lib/*", Targets: []string{"src/override/*"}}}

	res, err := testRunner(nil).Run(context.Background(), root, cfg)
	require.NoError(t, err)

	local := edgesOfType(res.Graph, graph.ImportsLocal)
	require.Len(t, local, 1)
	assert.Equal(t, graph.FileID("src/override/x.ts"), local[0].Target)
}

func TestRunStdlibAndUndeclaredImports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json": `{"name": "app", "dependencies": {"lodash": "4.0.0"}}`,
		"a.js":         "import fs from \"node:fs\";\nimport path from \"path\";\nimport leftPad from \"left-pad\";\n",
		"b.js":         "import leftPad from \"left-pad\";\nimport _ from \"lodash\";\n",
	})
	res, err := testRunner(monorepoURLs).Run(context.Background(), root, testConfig())
	require.NoError(t, err)

	_, ok := res.Graph.Node(graph.StdlibID("npm", "fs"))
	assert.True(t, ok)
	_, ok = res.Graph.Node(graph.StdlibID("npm", "path"))
	assert.True(t, ok)

	undeclared := diagsOf(res, diag.UndeclaredImport)
	require.Len(t, undeclared, 1, "reported once per package")
	assert.Equal(t, "left-pad", undeclared[0].Package)
	_, ok = res.Graph.Node(graph.PackageID("npm", "left-pad"))
	assert.False(t, ok)
}

func TestRunUnresolvedPackage(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json": `{"name": "app", "dependencies": {"lodash": "4.0.0", "mystery": "1.0.0"}}`,
		"index.js":     "import _ from \"lodash\";\nimport m from \"mystery\";\n",
	})
	res, err := testRunner(monorepoURLs).Run(context.Background(), root, testConfig())
	require.NoError(t, err)

	unresolved := diagsOf(res, diag.UnresolvedPackage)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "mystery", unresolved[0].Package)
	assert.Equal(t, 1, res.Report.Stats.Unresolved)
	require.Len(t, res.Report.DripList, 1)
	assert.True(t, res.Report.DripList[0].Percentage.Equal(decimal.NewFromInt(100)))
}

func TestRunImportLimit(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json": `{"name": "app", "dependencies": {"a": "1", "b": "1", "c": "1"}}`,
		"index.js":     "import \"a\";\nimport \"b\";\nimport \"c\";\n",
	})
	cfg := testConfig()
	cfg.MaxImportsPerFile = 2

	res, err := testRunner(nil).Run(context.Background(), root, cfg)
	require.NoError(t, err)
	limited := diagsOf(res, diag.ImportLimit)
	require.Len(t, limited, 1)
	assert.Equal(t, "index.js", limited[0].Path)
	assert.Len(t, edgesOfType(res.Graph, graph.ImportsPackage), 2)
}

func TestRunURLCache(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json": `{"name": "app", "dependencies": {"lodash": "4.0.0"}}`,
		"index.js":     "import _ from \"lodash\";\n",
	})
	mem, err := cache.NewMemoryCache(cache.DefaultMemoryEntries)
	require.NoError(t, err)

	r := NewRunner(mem, nil, log.New(io.Discard))
	r.Providers = registry(monorepoURLs)
	res, err := r.Run(context.Background(), root, testConfig())
	require.NoError(t, err)
	require.Len(t, res.Report.DripList, 1)

	// The registry is gone; the cached URL still resolves the package.
	r.Providers = registry(nil)
	res, err = r.Run(context.Background(), root, testConfig())
	require.NoError(t, err)
	require.Len(t, res.Report.DripList, 1)
	assert.Equal(t, "https://github.com/lodash/lodash", res.Report.DripList[0].URL)

	// A forced refresh skips the cache and reports the failure.
	cfg := testConfig()
	cfg.ForceURLRefresh = true
	res, err = r.Run(context.Background(), root, cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Report.DripList)
	assert.Len(t, diagsOf(res, diag.UnresolvedPackage), 1)
}

func TestRunSavesArtifacts(t *testing.T) {
	root := writeTree(t, monorepo)
	store := artifacts.NewMemoryStore()
	r := testRunner(monorepoURLs)
	r.Artifacts = store
	cfg := testConfig()
	cfg.RepoURL = "https://github.com/acme/monorepo"

	res, err := r.Run(context.Background(), root, cfg)
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 2)
	assert.True(t, strings.HasPrefix(res.Artifacts[0], "gardener/github.com/acme/monorepo/local/"))
	assert.Equal(t, artifacts.GraphName, path.Base(res.Artifacts[0]))

	saved, err := artifacts.LoadResult(context.Background(), store, res.Artifacts[1])
	require.NoError(t, err)
	assert.Len(t, saved.DripList, len(res.Report.DripList))

	g, err := artifacts.LoadGraph(context.Background(), store, res.Artifacts[0])
	require.NoError(t, err)
	assert.Equal(t, len(res.Graph.Nodes), len(g.Nodes))
}

func TestRunFatalErrors(t *testing.T) {
	ctx := context.Background()
	r := testRunner(nil)

	_, err := r.Run(ctx, filepath.Join(t.TempDir(), "missing"), testConfig())
	assert.True(t, errors.Is(err, errors.ErrCodeRootNotFound), "got %v", err)

	cfg := testConfig()
	cfg.MaxFiles = 0
	_, err = r.Run(ctx, t.TempDir(), cfg)
	assert.True(t, errors.Is(err, errors.ErrCodeResourceLimit), "got %v", err)

	cfg = testConfig()
	cfg.Metric = "betweenness"
	cfg.PerFileTimeoutMS = 0
	_, err = r.Run(ctx, t.TempDir(), cfg)
	var verr *errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 2)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Run(cancelled, writeTree(t, monorepo), testConfig())
	assert.True(t, errors.Is(err, errors.ErrCodeCancelled), "got %v", err)
}

func TestRankErrorCodes(t *testing.T) {
	failure := fmt.Errorf("fallback pagerank: no convergence")

	err := rankError(context.Background(), failure)
	assert.True(t, errors.Is(err, errors.ErrCodeInternal), "got %v", err)
	assert.ErrorIs(t, err, failure)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err = rankError(cancelled, context.Canceled)
	assert.True(t, errors.Is(err, errors.ErrCodeCancelled), "got %v", err)
}

// stallHandler blocks on files named slow.* and panics on boom.*.
type stallHandler struct {
	release chan struct{}
}

const stallEco deps.Ecosystem = "stall"

func (h *stallHandler) Ecosystem() deps.Ecosystem      { return stallEco }
func (h *stallHandler) Extensions() map[string]string { return map[string]string{".stall": "stall"} }
func (h *stallHandler) ManifestPatterns() []string    { return nil }
func (h *stallHandler) Stdlib(string) bool            { return false }

func (h *stallHandler) ParseManifest(string, []byte) (*deps.Manifest, error) { return nil, nil }

func (h *stallHandler) Prepare(context.Context, *deps.Project) error { return nil }

func (h *stallHandler) Extract(ctx context.Context, p *deps.Project, file string, src []byte) (*deps.Facts, error) {
	switch {
	case strings.HasPrefix(path.Base(file), "slow"):
		<-h.release
	case strings.HasPrefix(path.Base(file), "boom"):
		panic("handler bug")
	}
	return p.NewFacts(file, stallEco), nil
}

func TestRunPerFileTimeoutAndPanics(t *testing.T) {
	root := writeTree(t, map[string]string{
		"slow.stall": "x",
		"boom.stall": "x",
		"fast.stall": "x",
	})
	h := &stallHandler{release: make(chan struct{})}
	t.Cleanup(func() { close(h.release) })

	r := testRunner(nil)
	r.Handlers = func() []deps.Handler { return []deps.Handler{h} }
	cfg := testConfig()
	cfg.PerFileTimeoutMS = 50
	cfg.Workers = 1

	res, err := r.Run(context.Background(), root, cfg)
	require.NoError(t, err)

	timeouts := diagsOf(res, diag.Timeout)
	require.Len(t, timeouts, 1)
	assert.Equal(t, "slow.stall", timeouts[0].Path)

	panics := diagsOf(res, diag.ParseError)
	require.Len(t, panics, 1)
	assert.Equal(t, "boom.stall", panics[0].Path)

	assert.Equal(t, 3, res.Report.Stats.Files)
	_, ok := res.Graph.Node(graph.FileID("fast.stall"))
	assert.True(t, ok)
}
