package graph

import (
	"strings"
)

// =============================================================================
// Kinds
// =============================================================================

// NodeKind distinguishes the four node families.
type NodeKind string

const (
	KindFile      NodeKind = "file"
	KindPackage   NodeKind = "package"
	KindComponent NodeKind = "component"
	KindStdlib    NodeKind = "stdlib"
)

// kindOrder fixes the export order of node kinds.
var kindOrder = map[NodeKind]int{
	KindFile:      0,
	KindPackage:   1,
	KindComponent: 2,
	KindStdlib:    3,
}

// EdgeType is the relationship an edge encodes.
type EdgeType string

const (
	ImportsLocal      EdgeType = "imports_local"
	ImportsPackage    EdgeType = "imports_package"
	UsesComponent     EdgeType = "uses_component"
	ContainsComponent EdgeType = "contains_component"
)

// EdgeTypes lists every edge type in a fixed order.
func EdgeTypes() []EdgeType {
	return []EdgeType{ImportsLocal, ImportsPackage, UsesComponent, ContainsComponent}
}

// ParseEdgeType returns the edge type named s.
func ParseEdgeType(s string) (EdgeType, bool) {
	for _, t := range EdgeTypes() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Edge attribute keys.
const (
	AttrIdent        = "ident"
	AttrAmbiguity    = "ambiguity_resolution"
	AttrWorkspace    = "workspace"
	AmbiguityLexical = "lexicographic"
)

// =============================================================================
// Graph - Serialized Form
// =============================================================================

// Graph is the finished, immutable result of a [Builder]. It is also the
// wire format written to graph.json.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`

	index map[string]int
}

// Node is one vertex of the graph. Fields that do not apply to a kind are
// left empty.
type Node struct {
	ID        string   `json:"id" bson:"id"`
	Kind      NodeKind `json:"kind" bson:"kind"`
	Ecosystem string   `json:"ecosystem,omitempty" bson:"ecosystem,omitempty"`
	Key       string   `json:"key" bson:"key"`

	Language string `json:"language,omitempty" bson:"language,omitempty"` // file
	Size     int64  `json:"size,omitempty" bson:"size,omitempty"`         // file

	Version     string   `json:"version,omitempty" bson:"version,omitempty"`           // package
	ImportNames []string `json:"import_names,omitempty" bson:"import_names,omitempty"` // package
	URL         string   `json:"url,omitempty" bson:"url,omitempty"`                   // package
	IsSelf      bool     `json:"is_self,omitempty" bson:"is_self,omitempty"`           // package

	Package string `json:"package,omitempty" bson:"package,omitempty"` // component: owning package ID
}

// Edge is a typed, directed edge. Multiplicity counts how many times the
// same fact was observed.
type Edge struct {
	Source       string            `json:"source" bson:"source"`
	Target       string            `json:"target" bson:"target"`
	Type         EdgeType          `json:"type" bson:"type"`
	Multiplicity int               `json:"multiplicity" bson:"multiplicity"`
	Attrs        map[string]string `json:"attrs,omitempty" bson:"attrs,omitempty"`
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	if g.index == nil || len(g.index) != len(g.Nodes) {
		g.reindex()
	}
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

func (g *Graph) reindex() {
	g.index = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		g.index[n.ID] = i
	}
}

// Packages returns the package nodes in export order.
func (g *Graph) Packages() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Kind == KindPackage {
			out = append(out, n)
		}
	}
	return out
}

// Count returns the number of nodes of kind.
func (g *Graph) Count(kind NodeKind) int {
	n := 0
	for _, node := range g.Nodes {
		if node.Kind == kind {
			n++
		}
	}
	return n
}

// =============================================================================
// Identity
// =============================================================================

// FileID is the ID of the file node at path.
func FileID(path string) string { return string(KindFile) + ":" + path }

// PackageID is the ID of a package node.
func PackageID(ecosystem, name string) string {
	return string(KindPackage) + ":" + ecosystem + ":" + name
}

// ComponentID is the ID of a component node. Keys already qualified with
// pkg+"." or pkg+"::" are used as is.
func ComponentID(ecosystem, pkg, component string) string {
	return string(KindComponent) + ":" + ecosystem + ":" + ComponentKey(pkg, component)
}

// StdlibID is the ID of a standard-library node.
func StdlibID(ecosystem, name string) string {
	return string(KindStdlib) + ":" + ecosystem + ":" + name
}

// ComponentKey normalizes a component name into "pkg.component". It strips
// " as Alias" and " { ... }" suffixes and a trailing ".sol", and returns ""
// when nothing remains.
func ComponentKey(pkg, component string) string {
	c := component
	if i := strings.Index(c, " {"); i >= 0 {
		c = strings.TrimSpace(c[:i])
	}
	if i := strings.Index(c, " as "); i >= 0 {
		c = strings.TrimSpace(c[:i])
	}
	c = strings.TrimSuffix(c, ".sol")
	switch {
	case strings.HasPrefix(c, pkg+"."):
		if len(c) == len(pkg)+1 {
			return ""
		}
		return c
	case strings.HasPrefix(c, pkg+"::"):
		return c
	case c == "":
		return ""
	}
	return pkg + "." + c
}
