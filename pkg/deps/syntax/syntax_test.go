package syntax

import (
	"context"
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drips-network/gardener/pkg/errors"
)

func TestParseAndWalk(t *testing.T) {
	src := []byte("package main\n\nimport (\n\t\"fmt\"\n\tx \"github.com/a/b\"\n)\n")
	tree, err := Parse(context.Background(), Go, src)
	require.NoError(t, err)
	defer tree.Close()
	assert.False(t, tree.HasError())

	var paths []string
	Walk(tree.Root(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "import_spec" {
			paths = append(paths, StringValue(n.ChildByFieldName("path"), src))
			return false
		}
		return true
	})
	assert.Equal(t, []string{"fmt", "github.com/a/b"}, paths)
}

func TestParseRecoversFromErrors(t *testing.T) {
	tree, err := Parse(context.Background(), JavaScript, []byte("import x from 'y';\nfunction ("))
	require.NoError(t, err)
	defer tree.Close()
	assert.True(t, tree.HasError())
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, Python, []byte("import os"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCancelled))
}

func TestParseUnknownLanguage(t *testing.T) {
	_, err := Parse(context.Background(), Language("cobol"), nil)
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported))
}

func TestStringValue(t *testing.T) {
	tree, err := Parse(context.Background(), Python, []byte(`x = r"raw"`))
	require.NoError(t, err)
	defer tree.Close()
	var got string
	Walk(tree.Root(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "string" {
			got = StringValue(n, tree.Source)
			return false
		}
		return true
	})
	assert.Equal(t, "raw", got)
}
