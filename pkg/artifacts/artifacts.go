package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/drips-network/gardener/pkg/graph"
	gio "github.com/drips-network/gardener/pkg/io"
	"github.com/drips-network/gardener/pkg/urls"
)

// Artifact names.
const (
	GraphName  = "graph.json.gz"
	ResultName = "result.json.gz"
)

// LocalCommit stands in for the commit of a tree that is not a git checkout.
const LocalCommit = "local"

// Run identifies the objects of one run.
type Run struct {
	RepoURL string // canonical or raw repository URL; empty for unknown
	Commit  string // commit sha; empty for LocalCommit
	ID      string // run id; empty for a fresh uuid
}

// NewRunID returns a random run id.
func NewRunID() string { return uuid.NewString() }

// Key builds the object key of name for run under prefix.
func Key(prefix string, run Run, name string) string {
	repo := "unknown"
	if u, ok := urls.Parse(run.RepoURL); ok {
		repo = u.Key
	}
	commit := run.Commit
	if commit == "" {
		commit = LocalCommit
	}
	return path.Join(strings.Trim(prefix, "/"), repo, commit, run.ID, name)
}

// Writer persists run artifacts to a [Store].
type Writer struct {
	store  Store
	prefix string
}

// NewWriter returns a Writer that stores objects under prefix.
func NewWriter(store Store, prefix string) *Writer {
	return &Writer{store: store, prefix: prefix}
}

// Save writes the graph and result of run and returns the keys written.
// A missing run ID is filled with [NewRunID].
func (w *Writer) Save(ctx context.Context, run *Run, g *graph.Graph, res *gio.Result) ([]string, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	var keys []string

	graphKey := Key(w.prefix, *run, GraphName)
	if err := w.put(ctx, graphKey, func(wr io.Writer) error { return gio.WriteGraph(g, wr, gio.Compact) }); err != nil {
		return keys, fmt.Errorf("save %s: %w", GraphName, err)
	}
	keys = append(keys, graphKey)

	resultKey := Key(w.prefix, *run, ResultName)
	if err := w.put(ctx, resultKey, func(wr io.Writer) error { return gio.WriteResult(res, wr, gio.Compact) }); err != nil {
		return keys, fmt.Errorf("save %s: %w", ResultName, err)
	}
	return append(keys, resultKey), nil
}

func (w *Writer) put(ctx context.Context, key string, encode func(io.Writer) error) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := encode(zw); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return w.store.Put(ctx, key, buf.Bytes())
}

// LoadGraph reads and decompresses a graph artifact.
func LoadGraph(ctx context.Context, store Store, key string) (*graph.Graph, error) {
	r, err := open(ctx, store, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return gio.ReadGraph(r)
}

// LoadResult reads and decompresses a result artifact.
func LoadResult(ctx context.Context, store Store, key string) (*gio.Result, error) {
	r, err := open(ctx, store, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return gio.ReadResult(r)
}

func open(ctx context.Context, store Store, key string) (*gzip.Reader, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return zr, nil
}
