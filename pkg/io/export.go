package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/drips-network/gardener/pkg/centrality"
	"github.com/drips-network/gardener/pkg/diag"
	"github.com/drips-network/gardener/pkg/graph"
)

// Format selects the JSON layout of a writer.
type Format int

const (
	Indented Format = iota
	Compact
)

// WriteGraph encodes g to w.
func WriteGraph(g *graph.Graph, w io.Writer, f Format) error {
	return encode(w, g, f)
}

// ExportGraph writes g to a file at path.
func ExportGraph(g *graph.Graph, path string) error {
	return export(path, func(w io.Writer) error { return WriteGraph(g, w, Indented) })
}

// WriteResult encodes r to w. Nil slices are written as empty arrays.
func WriteResult(r *Result, w io.Writer, f Format) error {
	out := *r
	if out.DripList == nil {
		out.DripList = []centrality.Entry{}
	}
	if out.Diagnostics == nil {
		out.Diagnostics = []diag.Diagnostic{}
	}
	return encode(w, out, f)
}

// ExportResult writes r to a file at path.
func ExportResult(r *Result, path string) error {
	return export(path, func(w io.Writer) error { return WriteResult(r, w, Indented) })
}

func encode(w io.Writer, v any, f Format) error {
	enc := json.NewEncoder(w)
	if f == Indented {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func export(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
