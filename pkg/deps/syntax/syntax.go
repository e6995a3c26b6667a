// Package syntax wraps the tree-sitter grammars used by the language
// handlers.
//
// Parsers are created per call and never shared. A parse that outlives its
// context is abandoned: Parse returns immediately and the tree is released
// in the background once tree-sitter finishes.
package syntax

import (
	"context"
	"strings"

	tree_sitter_solidity "github.com/JoranHonig/tree-sitter-solidity/bindings/go"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/drips-network/gardener/pkg/errors"
)

// Language selects a grammar.
type Language string

const (
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	Python     Language = "python"
	Go         Language = "go"
	Rust       Language = "rust"
	Solidity   Language = "solidity"
)

var grammars = map[Language]*tree_sitter.Language{
	JavaScript: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
	TypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
	TSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
	Python:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
	Go:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
	Rust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
	Solidity:   tree_sitter.NewLanguage(tree_sitter_solidity.Language()),
}

// Tree is a parsed source file. Close releases it.
type Tree struct {
	tree   *tree_sitter.Tree
	Source []byte
}

// Root returns the root node.
func (t *Tree) Root() *tree_sitter.Node { return t.tree.RootNode() }

// HasError reports whether the parse recovered from syntax errors.
func (t *Tree) HasError() bool { return t.Root().HasError() }

// Close releases the tree.
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
	}
}

type parsed struct {
	tree *tree_sitter.Tree
	err  error
}

// Parse parses source with the grammar of lang. It returns a TIMEOUT error
// when ctx expires first.
func Parse(ctx context.Context, lang Language, source []byte) (*Tree, error) {
	grammar, ok := grammars[lang]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "no grammar for %s", lang)
	}
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	done := make(chan parsed, 1)
	go func() {
		parser := tree_sitter.NewParser()
		defer parser.Close()
		if err := parser.SetLanguage(grammar); err != nil {
			done <- parsed{err: errors.Wrap(errors.ErrCodeInternal, err, "load %s grammar", lang)}
			return
		}
		tree := parser.Parse(source, nil)
		if tree == nil {
			done <- parsed{err: errors.New(errors.ErrCodeInternal, "%s parser returned no tree", lang)}
			return
		}
		done <- parsed{tree: tree}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return &Tree{tree: res.tree, Source: source}, nil
	case <-ctx.Done():
		go func() {
			if res := <-done; res.tree != nil {
				res.tree.Close()
			}
		}()
		return nil, contextError(ctx.Err())
	}
}

func contextError(err error) error {
	if err == context.DeadlineExceeded {
		return errors.Wrap(errors.ErrCodeTimeout, err, "parse timed out")
	}
	return errors.Wrap(errors.ErrCodeCancelled, err, "parse cancelled")
}

// Walk visits node and its descendants in document order. Returning false
// from fn skips the node's children.
func Walk(node *tree_sitter.Node, fn func(*tree_sitter.Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		Walk(node.Child(i), fn)
	}
}

// NodeText returns the source text of node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(source)
}

// StringValue returns the contents of a string literal node without its
// quotes. Prefixed Python literals such as r"x" are handled.
func StringValue(node *tree_sitter.Node, source []byte) string {
	s := strings.TrimLeft(NodeText(node, source), "rRbBuU")
	for _, q := range []string{`"""`, `'''`, `"`, `'`, "`"} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// Children returns the named children of node.
func Children(node *tree_sitter.Node) []*tree_sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*tree_sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if c := node.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Line returns the 1-based line of node.
func Line(node *tree_sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}
