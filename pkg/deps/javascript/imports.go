package javascript

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/drips-network/gardener/pkg/alias"
	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/syntax"
)

type extractor struct {
	resolver *alias.Resolver
	p        *deps.Project
	file     string
	src      []byte
	facts    *deps.Facts
}

func (x *extractor) walk(tree *syntax.Tree) {
	x.src = tree.Source
	syntax.Walk(tree.Root(), func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			x.importStatement(n)
			return false
		case "export_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				x.record(syntax.StringValue(src, x.src), exportedNames(n, x.src))
				return false
			}
		case "call_expression":
			x.call(n)
		}
		return true
	})
}

func (x *extractor) importStatement(n *tree_sitter.Node) {
	src := n.ChildByFieldName("source")
	if src == nil {
		// import x = require("y")
		for _, c := range syntax.Children(n) {
			if c.Kind() == "import_require_clause" {
				src = c.ChildByFieldName("source")
			}
		}
	}
	if src == nil {
		return
	}
	var comps []string
	for _, c := range syntax.Children(n) {
		if c.Kind() == "import_clause" {
			comps = append(comps, clauseNames(c, x.src)...)
		}
	}
	x.record(syntax.StringValue(src, x.src), comps)
}

// clauseNames returns the imported names of an import clause, using the
// exported name rather than any local alias.
func clauseNames(clause *tree_sitter.Node, src []byte) []string {
	var out []string
	for _, c := range syntax.Children(clause) {
		switch c.Kind() {
		case "identifier":
			out = append(out, "default")
		case "namespace_import":
			out = append(out, "*")
		case "named_imports":
			for _, spec := range syntax.Children(c) {
				if spec.Kind() != "import_specifier" {
					continue
				}
				if name := spec.ChildByFieldName("name"); name != nil {
					out = append(out, strings.Trim(syntax.NodeText(name, src), `"'`))
				}
			}
		}
	}
	return out
}

func exportedNames(n *tree_sitter.Node, src []byte) []string {
	var out []string
	for _, c := range syntax.Children(n) {
		switch c.Kind() {
		case "export_clause":
			for _, spec := range syntax.Children(c) {
				if name := spec.ChildByFieldName("name"); spec.Kind() == "export_specifier" && name != nil {
					out = append(out, strings.Trim(syntax.NodeText(name, src), `"'`))
				}
			}
		case "namespace_export":
			out = append(out, "*")
		}
	}
	if out == nil {
		out = []string{"*"}
	}
	return out
}

// call handles require("x") and import("x").
func (x *extractor) call(n *tree_sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	switch {
	case fn.Kind() == "import":
	case fn.Kind() == "identifier" && syntax.NodeText(fn, x.src) == "require":
	default:
		return
	}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	children := syntax.Children(args)
	if len(children) == 0 || children[0].Kind() != "string" {
		return
	}
	x.record(syntax.StringValue(children[0], x.src), destructured(n, x.src))
}

// destructured returns the keys of an object pattern the call result is
// assigned to, e.g. const { a, b: c } = require("x") -> [a b].
func destructured(call *tree_sitter.Node, src []byte) []string {
	parent := call.Parent()
	if parent != nil && parent.Kind() == "await_expression" {
		parent = parent.Parent()
	}
	if parent == nil || parent.Kind() != "variable_declarator" {
		return nil
	}
	pattern := parent.ChildByFieldName("name")
	if pattern == nil || pattern.Kind() != "object_pattern" {
		return nil
	}
	var out []string
	for _, c := range syntax.Children(pattern) {
		switch c.Kind() {
		case "shorthand_property_identifier_pattern":
			out = append(out, syntax.NodeText(c, src))
		case "pair_pattern":
			if key := c.ChildByFieldName("key"); key != nil {
				out = append(out, strings.Trim(syntax.NodeText(key, src), `"'`))
			}
		case "object_assignment_pattern":
			if left := c.ChildByFieldName("left"); left != nil {
				out = append(out, syntax.NodeText(left, src))
			}
		}
	}
	return out
}

// record classifies one specifier and adds it to the facts.
func (x *extractor) record(spec string, comps []string) {
	spec = strings.TrimSpace(spec)
	if i := strings.IndexAny(spec, "?#"); i > 0 {
		spec = spec[:i]
	}
	if spec == "" {
		return
	}

	if res, ok := x.resolver.Resolve(spec, x.file); ok {
		if res.Local() {
			x.facts.AddLocal(res.Path)
			return
		}
		if res.Package != "" && x.facts.AddImport(res.Package) {
			x.facts.AddComponent(res.Package, res.Package+"."+spec)
		}
		return
	}

	switch {
	case alias.IsRelative(spec), strings.HasPrefix(spec, "/"):
		x.p.Logger.Debug("unresolved local import", "file", x.file, "spec", spec)
		return
	case strings.HasPrefix(spec, "node:"):
		x.facts.AddImport(spec)
		return
	case strings.Contains(spec, ":"):
		// URL and virtual-module specifiers.
		return
	}

	name := PackageName(spec)
	if name == "" || strings.ContainsAny(name[:1], "~$#") {
		return
	}
	if !x.facts.AddImport(name) {
		return
	}
	for _, c := range comps {
		x.facts.AddComponent(name, name+"."+c)
	}
}
