package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/drips-network/gardener/pkg/graph"
)

var knownKinds = map[graph.NodeKind]bool{
	graph.KindFile:      true,
	graph.KindPackage:   true,
	graph.KindComponent: true,
	graph.KindStdlib:    true,
}

// ReadGraph decodes a graph from r and validates it. It returns an error
// for malformed JSON, a duplicate or empty node ID, an unknown node kind or
// edge type, or an edge whose endpoints are missing.
//
// ReadGraph does not close r.
func ReadGraph(r io.Reader) (*graph.Graph, error) {
	var g graph.Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		switch {
		case n.ID == "":
			return nil, fmt.Errorf("node with empty id")
		case seen[n.ID]:
			return nil, fmt.Errorf("node %s: duplicate id", n.ID)
		case !knownKinds[n.Kind]:
			return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
		}
		seen[n.ID] = true
	}
	for _, e := range g.Edges {
		if _, ok := graph.ParseEdgeType(string(e.Type)); !ok {
			return nil, fmt.Errorf("edge %s->%s: unknown type %q", e.Source, e.Target, e.Type)
		}
		if !seen[e.Source] || !seen[e.Target] {
			return nil, fmt.Errorf("edge %s->%s: unknown node", e.Source, e.Target)
		}
	}
	return &g, nil
}

// ImportGraph reads a graph file at path.
func ImportGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

// ReadResult decodes a result document from r.
func ReadResult(r io.Reader) (*Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &res, nil
}

// ImportResult reads a result file at path.
func ImportResult(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadResult(f)
}
