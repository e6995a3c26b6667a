// Package graph holds the typed dependency graph produced by one analysis
// run and the [Builder] that accumulates it.
//
// # Nodes
//
// Every node has a kind and a key, and optionally an ecosystem:
//
//   - file: a scanned source or manifest file, keyed by its
//     repository-relative path
//   - package: an external package, keyed by its declared name
//   - component: a symbol or sub-path used from a package, keyed by
//     "pkg.component"
//   - stdlib: a standard-library module
//
// Node identity is the (kind, ecosystem, key) triple rendered as an ID such
// as "package:npm:react", so repeated references collapse into one node.
//
// # Edges
//
// Edges are typed ([ImportsLocal], [ImportsPackage], [UsesComponent],
// [ContainsComponent]) and unique per (source, target, type). Adding the same
// edge again increments its Multiplicity.
//
// # Determinism
//
// [Builder.Build] returns nodes sorted by (kind, key) and edges sorted by
// (source, target, type), so two runs over the same facts serialize to the
// same bytes regardless of insertion order.
package graph
