// Package centrality ranks the external dependencies of a dependency graph.
//
// [Compute] scores every node with weighted PageRank or Katz centrality,
// both power iterations over gonum float vectors. An edge's weight is its multiplicity times the configured
// multiplier for its type. Katz that fails to converge is retried without
// weights, and any metric failure falls back to unweighted PageRank.
//
// [Rank] folds package and component scores into one bucket per canonical
// repository URL, drops the analyzed repository itself, and turns the kept
// buckets into split percentages that sum to exactly 100.
package centrality
