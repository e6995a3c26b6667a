package rust

import (
	"context"
	"path"
	"strings"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/syntax"
)

// Handler is the cargo handler. It keeps no per-run state.
type Handler struct{}

// New returns a handler.
func New() *Handler { return &Handler{} }

var extensions = map[string]string{".rs": "rust"}

var stdCrates = map[string]bool{"std": true, "core": true, "alloc": true, "proc_macro": true, "test": true}

// builtinAttributes are attribute names provided by the compiler.
var builtinAttributes = map[string]bool{
	"derive":                true, "cfg": true, "cfg_attr": true, "test": true, "allow": true,
	"warn":                  true, "deny": true, "forbid": true, "deprecated": true, "expect": true,
	"inline":                true, "must_use": true, "doc": true, "repr": true, "path": true,
	"non_exhaustive":        true, "macro_export": true, "macro_use": true,
	"no_mangle":             true, "ignore": true, "should_panic": true, "bench": true,
	"proc_macro":            true, "proc_macro_derive": true, "proc_macro_attribute": true,
	"automatically_derived": true, "track_caller": true, "cold": true,
	"feature":               true, "no_std": true, "no_main": true, "recursion_limit": true,
	"global_allocator":      true, "link": true, "export_name": true, "used": true,
}

func (h *Handler) Ecosystem() deps.Ecosystem     { return deps.Cargo }
func (h *Handler) Extensions() map[string]string { return extensions }
func (h *Handler) ManifestPatterns() []string    { return []string{"Cargo.toml"} }
func (h *Handler) Stdlib(name string) bool       { return stdCrates[name] }

// ParseManifest parses a Cargo.toml file.
func (h *Handler) ParseManifest(p string, data []byte) (*deps.Manifest, error) {
	return ParseCargoToml(p, data)
}

// Prepare is a no-op; crate roots are found per file.
func (h *Handler) Prepare(ctx context.Context, p *deps.Project) error { return nil }

// Extract parses one Rust file for use declarations, extern crates, module
// items, attribute paths and crate-qualified paths.
func (h *Handler) Extract(ctx context.Context, p *deps.Project, file string, src []byte) (*deps.Facts, error) {
	tree, err := syntax.Parse(ctx, syntax.Rust, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	x := &extractor{
		p:     p,
		file:  file,
		src:   tree.Source,
		mods:  make(map[string]bool),
		facts: p.NewFacts(file, deps.Cargo),
	}
	x.collectModules(tree.Root())
	x.run(tree.Root())
	return x.facts, nil
}

// moduleDir is the directory holding the child modules of file.
func moduleDir(file string) string {
	dir, base := path.Dir(file), path.Base(file)
	switch base {
	case "lib.rs", "main.rs", "mod.rs", "build.rs":
		return dir
	}
	return path.Join(dir, strings.TrimSuffix(base, ".rs"))
}

// crateSrc returns the src directory of the crate owning file: the nearest
// directory with a Cargo.toml, plus "src".
func crateSrc(p *deps.Project, file string) string {
	for dir := path.Dir(file); ; dir = path.Dir(dir) {
		if p.Has(path.Join(dir, "Cargo.toml")) {
			return path.Join(dir, "src")
		}
		if dir == "." {
			return "src"
		}
	}
}
