package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drips-network/gardener/pkg/config"
	"github.com/drips-network/gardener/pkg/graph"
	gio "github.com/drips-network/gardener/pkg/io"
)

func TestKey(t *testing.T) {
	run := Run{RepoURL: "git@github.com:Drips/App.git", Commit: "abc123", ID: "run-1"}
	assert.Equal(t, "gardener/github.com/drips/app/abc123/run-1/graph.json.gz", Key("/gardener/", run, GraphName))
	assert.Equal(t, "unknown/local/run-2/result.json.gz", Key("", Run{ID: "run-2"}, ResultName))
}

func TestWriterSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	b := graph.NewBuilder()
	f := b.AddFile("main.py", "python", 10)
	p := b.AddPackage("pypi", "requests", "2.31.0")
	b.AddEdge(f, p, graph.ImportsPackage, nil)
	g := b.Build()
	res := &gio.Result{Root: "/repo", Metric: "pagerank", Stats: gio.Stats{Files: 1, Packages: 1}}

	for name, store := range map[string]Store{
		"memory": NewMemoryStore(),
		"local":  mustLocal(t),
	} {
		t.Run(name, func(t *testing.T) {
			run := &Run{RepoURL: "https://github.com/o/r"}
			keys, err := NewWriter(store, "gardener").Save(ctx, run, g, res)
			require.NoError(t, err)
			require.Len(t, keys, 2)
			assert.NotEmpty(t, run.ID)
			assert.True(t, strings.HasPrefix(keys[0], "gardener/github.com/o/r/local/"+run.ID+"/"))

			listed, err := store.List(ctx, "gardener/github.com/o/r")
			require.NoError(t, err)
			assert.Equal(t, []string{keys[0], keys[1]}, listed)

			gotGraph, err := LoadGraph(ctx, store, keys[0])
			require.NoError(t, err)
			assert.Equal(t, g.Nodes, gotGraph.Nodes)
			assert.Equal(t, g.Edges, gotGraph.Edges)

			gotRes, err := LoadResult(ctx, store, keys[1])
			require.NoError(t, err)
			assert.Equal(t, res.Stats, gotRes.Stats)

			_, err = store.Get(ctx, "gardener/missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func mustLocal(t *testing.T) *LocalStore {
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "artifacts"))
	require.NoError(t, err)
	return s
}

func TestStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	for _, s := range []Store{NewMemoryStore(), mustLocal(t)} {
		assert.Error(t, s.Put(ctx, "../escape", []byte("x")))
		assert.Error(t, s.Put(ctx, "a//b", []byte("x")))
		assert.Error(t, s.Put(ctx, "", []byte("x")))
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(config.ArtifactConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(config.ArtifactConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = Open(config.ArtifactConfig{Endpoint: "localhost:9000", Bucket: "b"})
	assert.Error(t, err)

	s, err = Open(config.ArtifactConfig{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, s)
}

func TestHeadCommit(t *testing.T) {
	sha := strings.Repeat("a1", 20)
	root := t.TempDir()
	assert.Equal(t, "", HeadCommit(root))

	gitDir := filepath.Join(root, ".git")
	require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "refs", "heads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "packed-refs"), []byte("# pack-refs\n"+sha+" refs/heads/main\n"), 0o644))
	assert.Equal(t, sha, HeadCommit(root))

	loose := strings.Repeat("b2", 20)
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "refs", "heads", "main"), []byte(loose+"\n"), 0o644))
	assert.Equal(t, loose, HeadCommit(root))

	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte(sha+"\n"), 0o644))
	assert.Equal(t, sha, HeadCommit(root))
}
