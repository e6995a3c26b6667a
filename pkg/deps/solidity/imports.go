package solidity

import (
	"path"
	"slices"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/syntax"
)

// directive is one parsed import directive.
type directive struct {
	path    string
	alias   string
	symbols []string
}

// parseImports returns the import directives of a parsed source file.
func parseImports(tree *syntax.Tree) []directive {
	var out []directive
	syntax.Walk(tree.Root(), func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "source_file":
			return true
		case "import_directive":
			if d, ok := parseDirective(n, tree.Source); ok {
				out = append(out, d)
			}
		}
		return false
	})
	return out
}

// parseDirective reads the tokens of one import directive in order:
// the source string, "*", braces, symbols and "as" aliases.
func parseDirective(n *tree_sitter.Node, src []byte) (directive, bool) {
	var (
		d      directive
		star   bool
		braces bool
		prev   string
	)
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		kind := c.Kind()
		switch kind {
		case "string":
			if d.path == "" {
				d.path = syntax.StringValue(c, src)
			}
		case "*":
			star = true
		case "{":
			braces = true
		case "}":
			braces = false
		case "identifier":
			name := syntax.NodeText(c, src)
			switch {
			case prev != "as":
				d.symbols = append(d.symbols, name)
			case braces || (!star && d.path == "" && len(d.symbols) > 0):
				d.symbols[len(d.symbols)-1] += " as " + name
			default:
				d.alias = name
			}
		}
		prev = kind
	}
	return d, d.path != ""
}

// component formats the component string of an external import:
// "pkg.normalized/path" followed by " { A, B }" and " as Alias".
func (d directive) component(pkg string) string {
	var b strings.Builder
	if pkg == "" {
		b.WriteString(d.path)
	} else {
		b.WriteString(pkg)
		b.WriteByte('.')
		b.WriteString(normalizePath(d.path, pkg))
	}
	c := b.String()
	if d.alias == "" || len(d.symbols) > 0 {
		c = strings.TrimSuffix(c, ".sol")
	}
	if len(d.symbols) > 0 {
		syms := slices.Clone(d.symbols)
		slices.Sort(syms)
		c += " { " + strings.Join(slices.Compact(syms), ", ") + " }"
	}
	if d.alias != "" {
		c += " as " + d.alias
	}
	return c
}

// normalizePath strips the package prefix and then the first matching
// conventional source directory from an import path.
func normalizePath(spec, pkg string) string {
	p := strings.TrimPrefix(spec, pkg+"/")
	for _, prefix := range []string{"lib/" + pkg + "/", "src/" + pkg + "/", "src/", "lib/"} {
		if rest, ok := strings.CutPrefix(p, prefix); ok {
			return rest
		}
	}
	return p
}

func (h *Handler) record(p *deps.Project, facts *deps.Facts, file string, d directive) {
	spec := d.path
	if strings.HasPrefix(spec, ".") {
		if target := h.relative(p, file, spec); target != "" {
			facts.AddLocal(target)
			return
		}
		p.Logger.Debug("unresolved import", "file", file, "path", spec)
		return
	}

	target, r, ok := h.remap(p, file, spec)
	switch {
	case ok:
		facts.AddLocal(target)
		if !r.libraryLike() {
			return
		}
	case p.Has(spec):
		facts.AddLocal(spec)
		return
	}
	pkg := PackageName(spec)
	if pkg == "" {
		return
	}
	if facts.AddImport(pkg) {
		facts.AddComponent(pkg, d.component(pkg))
	}
}

// remap resolves spec through the Hardhat remappings and then the
// remappings.txt and foundry.toml remappings.
func (h *Handler) remap(p *deps.Project, file, spec string) (string, Remapping, bool) {
	for _, set := range [][]Remapping{h.hardhat, h.remappings} {
		for _, r := range set {
			if r.Context != "" && !strings.HasPrefix(file, r.Context) {
				continue
			}
			if target, ok := r.Apply(spec); ok && p.Has(target) {
				return target, r, true
			}
		}
	}
	return "", Remapping{}, false
}

// relative resolves a "./" or "../" import. An import from inside the
// Foundry source directory that climbs out of it is retried relative to
// that directory.
func (h *Handler) relative(p *deps.Project, file, spec string) string {
	target := path.Join(path.Dir(file), spec)
	if !strings.HasSuffix(target, ".sol") || strings.HasPrefix(target, "../") {
		return ""
	}
	if p.Has(target) {
		return target
	}
	if h.src != "" && strings.HasPrefix(spec, "../") && strings.HasPrefix(file, h.src+"/") {
		fallback := path.Join(h.src, spec[3:])
		if p.Has(fallback) {
			return fallback
		}
	}
	return ""
}
