package python

import (
	"path"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/syntax"
)

type extractor struct {
	roots []string
	p     *deps.Project
	file  string
	src   []byte
	facts *deps.Facts
}

func (x *extractor) walk(tree *syntax.Tree) {
	syntax.Walk(tree.Root(), func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			for _, c := range syntax.Children(n) {
				x.importModule(moduleName(c, x.src))
			}
			return false
		case "import_from_statement":
			x.importFrom(n)
			return false
		case "future_import_statement":
			x.facts.AddImport("__future__")
			return false
		}
		return true
	})
}

// moduleName returns the dotted name of a dotted_name or aliased_import.
func moduleName(n *tree_sitter.Node, src []byte) string {
	if n.Kind() == "aliased_import" {
		n = n.ChildByFieldName("name")
	}
	return strings.ReplaceAll(syntax.NodeText(n, src), " ", "")
}

// importModule handles "import a.b.c".
func (x *extractor) importModule(name string) {
	parts := splitDotted(name)
	if len(parts) == 0 {
		return
	}
	if file, _, ok := x.resolveAbsolute(parts); ok {
		if file != "" {
			x.facts.AddLocal(file)
		}
		return
	}
	if x.facts.AddImport(parts[0]) && len(parts) > 1 {
		x.facts.AddComponent(parts[0], name)
	}
}

// importFrom handles "from m import a, b" in absolute and relative form.
func (x *extractor) importFrom(n *tree_sitter.Node) {
	mod := n.ChildByFieldName("module_name")
	if mod == nil {
		return
	}
	var items []string
	for _, c := range syntax.Children(n) {
		if c.StartByte() == mod.StartByte() {
			continue
		}
		switch c.Kind() {
		case "dotted_name", "aliased_import":
			items = append(items, moduleName(c, x.src))
		case "wildcard_import":
			items = append(items, "*")
		}
	}

	if mod.Kind() == "relative_import" {
		x.relative(mod, items)
		return
	}

	name := moduleName(mod, x.src)
	parts := splitDotted(name)
	if len(parts) == 0 {
		return
	}
	if file, dir, ok := x.resolveAbsolute(parts); ok {
		if file != "" {
			x.facts.AddLocal(file)
		}
		x.submodules(dir, items)
		return
	}
	if !x.facts.AddImport(parts[0]) {
		return
	}
	for _, it := range items {
		x.facts.AddComponent(parts[0], it)
	}
}

func (x *extractor) relative(mod *tree_sitter.Node, items []string) {
	level := 0
	var parts []string
	for _, c := range syntax.Children(mod) {
		switch c.Kind() {
		case "import_prefix":
			level = strings.Count(syntax.NodeText(c, x.src), ".")
		case "dotted_name":
			parts = splitDotted(syntax.NodeText(c, x.src))
		}
	}
	if level == 0 {
		level = strings.Count(syntax.NodeText(mod, x.src), ".") - max(len(parts)-1, 0)
	}

	base := path.Dir(x.file)
	for i := 1; i < level; i++ {
		if base == "." {
			x.p.Logger.Debug("relative import above root", "file", x.file, "level", level)
			return
		}
		base = path.Dir(base)
	}

	if len(parts) == 0 {
		found := x.submodules(base, items)
		if init := path.Join(base, "__init__.py"); !found && x.p.Has(init) {
			x.facts.AddLocal(init)
		}
		return
	}
	file, isPkg := x.module(base, parts)
	if file == "" {
		x.p.Logger.Debug("unresolved relative import", "file", x.file, "module", strings.Join(parts, "."))
		return
	}
	x.facts.AddLocal(file)
	if isPkg {
		x.submodules(path.Join(append([]string{base}, parts...)...), items)
	}
}

// submodules resolves "from pkg import item" where item is itself a
// module of the package directory dir. It reports whether any resolved.
func (x *extractor) submodules(dir string, items []string) bool {
	if dir == "" {
		return false
	}
	found := false
	for _, it := range items {
		if it == "*" {
			continue
		}
		if file, _ := x.module(dir, []string{it}); file != "" {
			x.facts.AddLocal(file)
			found = true
		}
	}
	return found
}

// resolveAbsolute looks parts up under each import root, longest module
// path first. ok without a file means a namespace package directory. dir
// is the package directory when the full path named a package.
func (x *extractor) resolveAbsolute(parts []string) (file, dir string, ok bool) {
	for _, root := range x.roots {
		for n := len(parts); n > 0; n-- {
			if f, isPkg := x.module(root, parts[:n]); f != "" {
				if isPkg && n == len(parts) {
					dir = path.Join(append([]string{root}, parts...)...)
				}
				return f, dir, true
			}
		}
		full := path.Join(append([]string{root}, parts...)...)
		if x.hasSources(full) {
			return "", full, true
		}
	}
	return "", "", false
}

// module finds base/a/b.py, base/a/b.pyi or base/a/b/__init__.py.
func (x *extractor) module(base string, parts []string) (file string, isPkg bool) {
	rel := path.Join(append([]string{base}, parts...)...)
	for _, ext := range []string{".py", ".pyi"} {
		if x.p.Has(rel + ext) {
			return rel + ext, false
		}
	}
	if init := path.Join(rel, "__init__.py"); x.p.Has(init) {
		return init, true
	}
	return "", false
}

func (x *extractor) hasSources(dir string) bool {
	for _, f := range x.p.DirFiles(dir) {
		if strings.HasSuffix(f, ".py") {
			return true
		}
	}
	return false
}

func splitDotted(name string) []string {
	var out []string
	for _, p := range strings.Split(name, ".") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
