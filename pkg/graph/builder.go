package graph

import (
	"cmp"
	"maps"
	"slices"
)

type edgeKey struct {
	source, target string
	typ            EdgeType
}

// Builder accumulates nodes and edges during extraction. It is not safe for
// concurrent use; the pipeline feeds it from a single aggregator.
type Builder struct {
	nodes map[string]*Node
	edges map[edgeKey]*Edge
	self  map[string]bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[string]*Node),
		edges: make(map[edgeKey]*Edge),
		self:  make(map[string]bool),
	}
}

// AddFile adds a file node and returns its ID. Adding an existing path keeps
// the first language and size.
func (b *Builder) AddFile(path, language string, size int64) string {
	id := FileID(path)
	if _, ok := b.nodes[id]; !ok {
		b.nodes[id] = &Node{ID: id, Kind: KindFile, Key: path, Language: language, Size: size}
	}
	return id
}

// AddPackage adds a package node and returns its ID. A non-empty version or
// import name list fills in fields left empty by earlier calls.
func (b *Builder) AddPackage(ecosystem, name, version string, importNames ...string) string {
	id := PackageID(ecosystem, name)
	n, ok := b.nodes[id]
	if !ok {
		n = &Node{ID: id, Kind: KindPackage, Ecosystem: ecosystem, Key: name}
		b.nodes[id] = n
	}
	if n.Version == "" {
		n.Version = version
	}
	for _, in := range importNames {
		if !slices.Contains(n.ImportNames, in) {
			n.ImportNames = append(n.ImportNames, in)
		}
	}
	return id
}

// SetURL records the canonical repository URL of a package node.
func (b *Builder) SetURL(id, url string) {
	if n, ok := b.nodes[id]; ok && n.Kind == KindPackage {
		n.URL = url
	}
}

// MarkSelf flags a package as the analyzed repository itself. Edges into it
// or its components are dropped by Build.
func (b *Builder) MarkSelf(ecosystem, name string) {
	id := b.AddPackage(ecosystem, name, "")
	b.nodes[id].IsSelf = true
	b.self[id] = true
}

// AddComponent adds a component of pkg (a package node ID) and returns its
// ID, or "" when the component name normalizes to nothing. The package's
// contains_component edge is added once, when the component is first seen.
func (b *Builder) AddComponent(pkgID, component string) string {
	p, ok := b.nodes[pkgID]
	if !ok || p.Kind != KindPackage {
		return ""
	}
	key := ComponentKey(p.Key, component)
	if key == "" {
		return ""
	}
	id := string(KindComponent) + ":" + p.Ecosystem + ":" + key
	if _, ok := b.nodes[id]; !ok {
		b.nodes[id] = &Node{ID: id, Kind: KindComponent, Ecosystem: p.Ecosystem, Key: key, Package: pkgID}
		b.AddEdge(pkgID, id, ContainsComponent, nil)
	}
	return id
}

// AddStdlib adds a standard-library node and returns its ID.
func (b *Builder) AddStdlib(ecosystem, name string) string {
	id := StdlibID(ecosystem, name)
	if _, ok := b.nodes[id]; !ok {
		b.nodes[id] = &Node{ID: id, Kind: KindStdlib, Ecosystem: ecosystem, Key: name}
	}
	return id
}

// Has reports whether a node with id exists.
func (b *Builder) Has(id string) bool {
	_, ok := b.nodes[id]
	return ok
}

// AddEdge records one observation of source -> target of type t. The first
// observation creates the edge; later ones increment its multiplicity.
// Attributes are merged, keeping the first value seen for a key. Edges whose
// endpoints were never added are ignored.
func (b *Builder) AddEdge(source, target string, t EdgeType, attrs map[string]string) {
	if !b.Has(source) || !b.Has(target) {
		return
	}
	k := edgeKey{source, target, t}
	e, ok := b.edges[k]
	if !ok {
		e = &Edge{Source: source, Target: target, Type: t}
		b.edges[k] = e
	}
	e.Multiplicity++
	for key, v := range attrs {
		if e.Attrs == nil {
			e.Attrs = make(map[string]string, len(attrs))
		}
		if _, exists := e.Attrs[key]; !exists {
			e.Attrs[key] = v
		}
	}
}

// NodeCount returns the number of nodes added so far.
func (b *Builder) NodeCount() int { return len(b.nodes) }

// Build returns the finished graph in canonical order. Edges that point at a
// self package, or at a component owned by one, are excluded.
func (b *Builder) Build() *Graph {
	g := &Graph{
		Nodes: make([]Node, 0, len(b.nodes)),
		Edges: make([]Edge, 0, len(b.edges)),
	}
	for _, n := range b.nodes {
		c := *n
		c.ImportNames = slices.Clone(n.ImportNames)
		slices.Sort(c.ImportNames)
		g.Nodes = append(g.Nodes, c)
	}
	for _, e := range b.edges {
		if b.excluded(e.Target) {
			continue
		}
		c := *e
		c.Attrs = maps.Clone(e.Attrs)
		g.Edges = append(g.Edges, c)
	}
	slices.SortFunc(g.Nodes, func(x, y Node) int {
		return cmp.Or(cmp.Compare(kindOrder[x.Kind], kindOrder[y.Kind]), cmp.Compare(x.ID, y.ID))
	})
	slices.SortFunc(g.Edges, func(x, y Edge) int {
		return cmp.Or(cmp.Compare(x.Source, y.Source), cmp.Compare(x.Target, y.Target), cmp.Compare(x.Type, y.Type))
	})
	g.reindex()
	return g
}

func (b *Builder) excluded(id string) bool {
	if b.self[id] {
		return true
	}
	n, ok := b.nodes[id]
	return ok && n.Kind == KindComponent && b.self[n.Package]
}
