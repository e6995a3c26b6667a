package rust

import (
	"path"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/syntax"
)

type extractor struct {
	p     *deps.Project
	file  string
	src   []byte
	mods  map[string]bool // modules declared in this file
	facts *deps.Facts
}

// usePath is one leaf of a use tree.
type usePath struct {
	segs     []string
	wildcard bool
}

// collectModules records "mod name;" and "mod name { ... }" items and
// resolves the former to files.
func (x *extractor) collectModules(root *tree_sitter.Node) {
	syntax.Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() != "mod_item" {
			return true
		}
		name := x.ident(n.ChildByFieldName("name"))
		if name == "" {
			return true
		}
		x.mods[name] = true
		if n.ChildByFieldName("body") == nil {
			x.local(moduleDir(x.file), []string{name})
		}
		return true
	})
}

func (x *extractor) run(root *tree_sitter.Node) {
	syntax.Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "use_declaration":
			for _, up := range x.useTree(n.ChildByFieldName("argument"), nil) {
				x.usePath(up)
			}
			return false
		case "extern_crate_declaration":
			if name := x.ident(n.ChildByFieldName("name")); name != "self" {
				x.crate(name, nil)
			}
			return false
		case "attribute_item", "inner_attribute_item":
			for _, c := range syntax.Children(n) {
				if c.Kind() == "attribute" {
					x.attribute(c)
				}
			}
			return false
		case "scoped_identifier", "scoped_type_identifier":
			if root := pathRoot(n); root != nil && root.Kind() == "identifier" {
				x.qualified(x.ident(root))
			}
		case "token_tree":
			x.macroPaths(n)
		case "line_comment", "block_comment", "string_literal", "raw_string_literal", "char_literal":
			return false
		}
		return true
	})
}

func (x *extractor) ident(n *tree_sitter.Node) string {
	return strings.TrimPrefix(syntax.NodeText(n, x.src), "r#")
}

// segments flattens a simple path (a::b::c, self, super, crate) into its
// segments. It returns nil for anything else.
func (x *extractor) segments(n *tree_sitter.Node) []string {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "identifier", "self", "super", "crate", "metavariable":
		return []string{x.ident(n)}
	case "scoped_identifier":
		name := x.segments(n.ChildByFieldName("name"))
		if name == nil {
			return nil
		}
		return join(x.segments(n.ChildByFieldName("path")), name)
	}
	return nil
}

// useTree returns every leaf path of the use tree n under prefix.
func (x *extractor) useTree(n *tree_sitter.Node, prefix []string) []usePath {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "use_as_clause":
		if segs := x.segments(n.ChildByFieldName("path")); segs != nil {
			return []usePath{leaf(join(prefix, segs), false)}
		}
		return nil
	case "use_wildcard":
		var segs []string
		if kids := syntax.Children(n); len(kids) > 0 {
			segs = x.segments(kids[0])
		}
		return []usePath{leaf(join(prefix, segs), true)}
	case "use_list":
		var out []usePath
		for _, c := range syntax.Children(n) {
			out = append(out, x.useTree(c, prefix)...)
		}
		return out
	case "scoped_use_list":
		scope := prefix
		if p := n.ChildByFieldName("path"); p != nil {
			scope = join(prefix, x.segments(p))
		}
		return x.useTree(n.ChildByFieldName("list"), scope)
	}
	if segs := x.segments(n); segs != nil {
		return []usePath{leaf(join(prefix, segs), false)}
	}
	return nil
}

func join(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

// leaf drops a trailing "self" so that "use a::{self}" names a.
func leaf(segs []string, wildcard bool) usePath {
	if n := len(segs); n > 1 && segs[n-1] == "self" {
		segs = segs[:n-1]
	}
	return usePath{segs: segs, wildcard: wildcard}
}

func (x *extractor) usePath(up usePath) {
	if len(up.segs) == 0 {
		return
	}
	root, rest := up.segs[0], up.segs[1:]
	switch {
	case root == "crate":
		x.local(crateSrc(x.p, x.file), rest)
	case root == "self":
		x.local(moduleDir(x.file), rest)
	case root == "super":
		dir := moduleDir(x.file)
		for {
			if dir == "." {
				return
			}
			dir = path.Dir(dir)
			if len(rest) == 0 || rest[0] != "super" {
				break
			}
			rest = rest[1:]
		}
		x.local(dir, rest)
	case x.mods[root]:
		x.local(moduleDir(x.file), up.segs)
	default:
		var comp []string
		if len(up.segs) > 1 && !up.wildcard {
			comp = up.segs
		}
		x.crate(root, comp)
	}
}

func (x *extractor) crate(name string, comp []string) {
	if name == "" || name == "_" {
		return
	}
	if x.facts.AddImport(name) && len(comp) > 0 {
		x.facts.AddComponent(name, strings.Join(comp, "::"))
	}
}

// local adds the file of the longest module path in segs found under dir:
// dir/a/b.rs or dir/a/b/mod.rs.
func (x *extractor) local(dir string, segs []string) {
	for n := len(segs); n > 0; n-- {
		rel := path.Join(append([]string{dir}, segs[:n]...)...)
		for _, cand := range []string{rel + ".rs", path.Join(rel, "mod.rs")} {
			if x.p.Has(cand) {
				x.facts.AddLocal(cand)
				return
			}
		}
	}
	if len(segs) > 0 {
		x.p.Logger.Debug("unresolved module path", "file", x.file, "path", strings.Join(segs, "::"))
	}
}

// attribute handles the path of #[path::to::attr ...] and #![...].
func (x *extractor) attribute(attr *tree_sitter.Node) {
	kids := syntax.Children(attr)
	if len(kids) == 0 {
		return
	}
	segs := x.segments(kids[0])
	if len(segs) == 0 || builtinAttributes[segs[0]] || x.mods[segs[0]] {
		return
	}
	switch {
	case len(segs) > 1 && segs[0] != "crate" && segs[0] != "self" && segs[0] != "super":
		x.crate(segs[0], nil)
	case len(segs) == 1 && x.declared(segs[0]):
		x.crate(segs[0], nil)
	}
}

// macroPaths finds crate-qualified paths inside a macro token tree, which
// the grammar leaves unparsed.
func (x *extractor) macroPaths(tt *tree_sitter.Node) {
	count := tt.ChildCount()
	for i := uint(0); i+1 < count; i++ {
		c := tt.Child(i)
		if c.Kind() != "identifier" || tt.Child(i+1).Kind() != "::" {
			continue
		}
		if i > 0 && tt.Child(i-1).Kind() == "::" {
			continue
		}
		x.qualified(x.ident(c))
	}
}

// qualified handles a crate-qualified path such as serde_json::to_string
// outside use declarations. Only declared crates count.
func (x *extractor) qualified(root string) {
	if x.mods[root] || !x.declared(root) {
		return
	}
	x.crate(root, nil)
}

func (x *extractor) declared(name string) bool {
	_, ok := x.p.Resolve(deps.Cargo, name)
	return ok
}

// pathRoot returns the leftmost segment of a scoped path, or nil for paths
// anchored at "::".
func pathRoot(n *tree_sitter.Node) *tree_sitter.Node {
	for {
		p := n.ChildByFieldName("path")
		if p == nil {
			return nil
		}
		switch p.Kind() {
		case "scoped_identifier", "scoped_type_identifier":
			n = p
		default:
			return p
		}
	}
}
