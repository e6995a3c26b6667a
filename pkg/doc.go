// Package pkg provides the core libraries for Gardener dependency ranking.
//
// # Overview
//
// Gardener reads a source repository, works out which external packages its
// code actually imports, and ranks the upstream repositories of those
// packages by graph centrality. The ranking becomes a drip list: a funding
// split whose percentages sum to exactly 100.
//
// # Architecture
//
// The typical data flow through Gardener:
//
//	Repository on disk
//	         ↓
//	    [scan] package (safe walk, .gitignore, limits)
//	         ↓
//	    [deps] package (manifests, imports, aliases, components)
//	         ↓
//	    [graph] package (files, packages, weighted edges)
//	         ↓
//	    [urls] package (registry lookups, cached canonical URLs)
//	         ↓
//	    [centrality] package (PageRank or Katz, aggregation, split)
//	         ↓
//	    [io] and [artifacts] packages (graph.json, result.json)
//
// [pipeline] runs these stages in order and is what the CLI calls.
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/drips-network/gardener/pkg/config"
//	    "github.com/drips-network/gardener/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Run(context.Background(), "./repo", config.Default())
//	if err != nil {
//	    return err
//	}
//	for _, e := range res.Report.DripList {
//	    fmt.Println(e.URL, e.Percentage)
//	}
//
// # Main Packages
//
// ## Analysis
//
// [scan] - Repository walk that rejects symlinks and path escapes, honors
// .gitignore and reads .gitmodules.
//
// [deps] - Per-language handlers for npm, PyPI, Go, Cargo and Solidity. Each
// parses manifests and extracts the imports of one source file.
//
// [alias] and [names] - Import path aliasing (tsconfig paths, Solidity
// remappings, custom rules) and import-to-distribution name tables.
//
// [graph] - The typed dependency graph and its builder.
//
// [centrality] - Weighted PageRank and Katz over the graph, plus drip list
// aggregation and the exact percentage split.
//
// ## Infrastructure
//
// [cache] - Cache backends for registry responses and resolved URLs: file,
// memory, Redis, MongoDB and PostgreSQL.
//
// [integrations] - HTTP clients for npm, PyPI, crates.io, the Go module
// proxy and GitHub.
//
// [artifacts] - Persistence of run outputs to a directory or S3-compatible
// object storage.
//
// [config], [errors], [diag] and [observability] carry configuration, error
// codes, per-file diagnostics and instrumentation hooks.
package pkg
