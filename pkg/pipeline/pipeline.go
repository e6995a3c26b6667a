// Package pipeline runs one analysis of a repository tree end to end.
//
// A run has five stages, each reported through [observability.Pipeline]:
//
//  1. Scan: walk the tree and classify source files and manifests.
//  2. Extract: parse manifests, then every source file on a bounded worker
//     pool with a per-file timeout.
//  3. Build: merge the per-file facts, in path order, into one graph.
//  4. Resolve: map every external package to a canonical repository URL.
//  5. Rank: score the graph and split 100% across repositories.
//
// Only configuration errors, an unusable root, an impossible resource limit
// and cancellation fail a run. Everything else is a [diag.Diagnostic] in the
// result.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Run(ctx, "/path/to/repo", config.Default())
//	if err != nil {
//	    return err
//	}
//	for _, e := range res.Report.DripList {
//	    fmt.Println(e.PackageName, e.Percentage)
//	}
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/drips-network/gardener/pkg/artifacts"
	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/languages"
	"github.com/drips-network/gardener/pkg/graph"
	gio "github.com/drips-network/gardener/pkg/io"
	"github.com/drips-network/gardener/pkg/urls"
)

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the dependency graph in canonical order.
	Graph *graph.Graph

	// Report is the serializable outcome: drip list, diagnostics and counts.
	Report *gio.Result

	// Artifacts lists the keys written to the artifact store, if any.
	Artifacts []string

	// Timings contains the duration of each stage.
	Timings Timings
}

// Timings contains stage durations. They are kept out of the report so that
// reports of identical runs are byte-identical.
type Timings struct {
	Scan    time.Duration
	Extract time.Duration
	Resolve time.Duration
	Rank    time.Duration
}

// Total returns the sum of the stage durations.
func (t Timings) Total() time.Duration { return t.Scan + t.Extract + t.Resolve + t.Rank }

// Runner encapsulates pipeline execution. Both the CLI and library callers
// use it.
//
// The Runner holds no per-run state: handlers are created fresh for every
// run, so multiple goroutines can safely use the same Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Handlers returns the language handlers for one run. Nil means
	// [languages.All].
	Handlers func() []deps.Handler

	// Providers overrides the registry lookups per ecosystem. Nil means
	// [urls.DefaultProviders] over Cache.
	Providers map[deps.Ecosystem]urls.Provider

	// GitHub canonicalizes GitHub URLs. Nil builds a client when the
	// configuration carries a token.
	GitHub urls.GitHubAPI

	// Artifacts receives graph and result artifacts. Nil opens the store
	// described by the configuration, if any.
	Artifacts artifacts.Store
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

func (r *Runner) handlers() []deps.Handler {
	if r.Handlers != nil {
		return r.Handlers()
	}
	return languages.All()
}
