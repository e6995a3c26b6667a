// Package golang implements the go handler.
//
// go.mod files are parsed with golang.org/x/mod/modfile. Imports inside one
// of the repository's own modules resolve to a file of the imported package
// directory; standard library imports are recognized by a first path
// element without a dot.
package golang

import (
	"context"
	"path"
	"slices"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/syntax"
)

type module struct {
	path string // module path
	dir  string // repository-relative directory of go.mod
}

// Handler is the go handler. Create one per run with [New].
type Handler struct {
	modules []module // longest module path first
}

// New returns a handler that knows no local modules yet.
func New() *Handler { return &Handler{} }

var extensions = map[string]string{".go": "go"}

func (h *Handler) Ecosystem() deps.Ecosystem     { return deps.Go }
func (h *Handler) Extensions() map[string]string { return extensions }
func (h *Handler) ManifestPatterns() []string    { return []string{"go.mod"} }

// ParseManifest parses a go.mod file.
func (h *Handler) ParseManifest(p string, data []byte) (*deps.Manifest, error) {
	return ParseGoMod(p, data)
}

// Stdlib reports whether an import path belongs to the standard library.
func (h *Handler) Stdlib(name string) bool {
	if name == "C" {
		return true
	}
	first, _, _ := strings.Cut(name, "/")
	return first != "" && !strings.Contains(first, ".")
}

// Prepare records the module path of every go.mod in the repository.
func (h *Handler) Prepare(ctx context.Context, p *deps.Project) error {
	h.modules = h.modules[:0]
	for _, m := range p.ManifestsOf(deps.Go) {
		if m.Name != "" {
			h.modules = append(h.modules, module{path: m.Name, dir: m.Dir()})
		}
	}
	slices.SortStableFunc(h.modules, func(a, b module) int { return len(b.path) - len(a.path) })
	return nil
}

// Extract parses one Go file.
func (h *Handler) Extract(ctx context.Context, p *deps.Project, file string, src []byte) (*deps.Facts, error) {
	tree, err := syntax.Parse(ctx, syntax.Go, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	facts := p.NewFacts(file, deps.Go)
	syntax.Walk(tree.Root(), func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "import_spec":
			h.record(p, facts, syntax.StringValue(n.ChildByFieldName("path"), tree.Source))
			return false
		case "function_declaration", "method_declaration", "type_declaration":
			return false
		}
		return true
	})
	return facts, nil
}

func (h *Handler) record(p *deps.Project, facts *deps.Facts, imp string) {
	if imp == "" {
		return
	}
	if file, ok := h.local(p, imp); ok {
		facts.AddLocal(file)
		return
	}
	if !facts.AddImport(imp) || h.Stdlib(imp) {
		return
	}
	facts.AddComponent(imp, path.Base(imp))
}

// local maps an import of one of the repository's modules to a file of the
// imported package: <dir>.go, <dir>/<base>.go, the only .go file in the
// directory, or else the first non-test file.
func (h *Handler) local(p *deps.Project, imp string) (string, bool) {
	for _, m := range h.modules {
		rest, ok := strings.CutPrefix(imp, m.path)
		if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
			continue
		}
		dir := path.Join(m.dir, strings.TrimPrefix(rest, "/"))
		if p.Has(dir + ".go") {
			return dir + ".go", true
		}
		if f := path.Join(dir, path.Base(dir)+".go"); p.Has(f) {
			return f, true
		}
		var goFiles, nonTest []string
		for _, f := range p.DirFiles(dir) {
			if strings.HasSuffix(f, ".go") {
				goFiles = append(goFiles, f)
				if !strings.HasSuffix(f, "_test.go") {
					nonTest = append(nonTest, f)
				}
			}
		}
		switch {
		case len(goFiles) == 1:
			return goFiles[0], true
		case len(nonTest) > 0:
			p.Logger.Debug("package has several files, using the first", "import", imp, "file", nonTest[0])
			return nonTest[0], true
		}
		return "", false
	}
	return "", false
}
