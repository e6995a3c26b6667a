package python

import (
	"context"
	"path"
	"slices"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/syntax"
)

// Handler is the pypi handler. Create one per run with [New].
type Handler struct {
	roots []string
}

// New returns a handler whose only import root is the repository root.
func New() *Handler { return &Handler{roots: []string{"."}} }

var extensions = map[string]string{".py": "python", ".pyi": "python"}

func (h *Handler) Ecosystem() deps.Ecosystem     { return deps.PyPI }
func (h *Handler) Extensions() map[string]string { return extensions }
func (h *Handler) ManifestPatterns() []string    { return manifestPatterns }
func (h *Handler) Stdlib(name string) bool       { return stdlib[name] }

// ParseManifest parses any supported Python manifest.
func (h *Handler) ParseManifest(p string, data []byte) (*deps.Manifest, error) {
	return ParseManifest(p, data)
}

// Prepare collects the import roots: the repository root, every directory
// holding a Python manifest and the src/ layout directories below them.
func (h *Handler) Prepare(ctx context.Context, p *deps.Project) error {
	seen := map[string]bool{".": true}
	var extra []string
	add := func(dir string) {
		if !seen[dir] && p.HasDir(dir) {
			seen[dir] = true
			extra = append(extra, dir)
		}
	}
	add("src")
	for _, m := range p.ManifestsOf(deps.PyPI) {
		add(m.Dir())
		add(path.Join(m.Dir(), "src"))
	}
	slices.Sort(extra)
	h.roots = append([]string{"."}, extra...)
	p.Logger.Debug("python import roots", "roots", h.roots)
	return nil
}

// Roots returns the directories absolute imports are resolved against.
func (h *Handler) Roots() []string { return h.roots }

// Extract parses one Python file.
func (h *Handler) Extract(ctx context.Context, p *deps.Project, file string, src []byte) (*deps.Facts, error) {
	tree, err := syntax.Parse(ctx, syntax.Python, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	x := &extractor{roots: h.roots, p: p, file: file, src: tree.Source, facts: p.NewFacts(file, deps.PyPI)}
	x.walk(tree)
	return x.facts, nil
}
