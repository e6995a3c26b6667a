package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drips-network/gardener/pkg/alias"
	"github.com/drips-network/gardener/pkg/artifacts"
	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/centrality"
	"github.com/drips-network/gardener/pkg/config"
	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/languages"
	"github.com/drips-network/gardener/pkg/diag"
	"github.com/drips-network/gardener/pkg/errors"
	"github.com/drips-network/gardener/pkg/graph"
	"github.com/drips-network/gardener/pkg/integrations/github"
	gio "github.com/drips-network/gardener/pkg/io"
	"github.com/drips-network/gardener/pkg/names"
	"github.com/drips-network/gardener/pkg/observability"
	"github.com/drips-network/gardener/pkg/scan"
	"github.com/drips-network/gardener/pkg/urls"
)

// run is the state of one [Runner.Run] call.
type run struct {
	r      *Runner
	cfg    *config.Config
	logger *log.Logger
	diags  *diag.Collector
	set    *languages.Set
	hooks  observability.PipelineHooks
}

// Run analyzes the repository at root with cfg. A nil cfg means
// [config.Default].
//
// The returned error is a *errors.ValidationError for a bad configuration,
// an *errors.Error with code ROOT_NOT_FOUND, ROOT_UNREADABLE or
// RESOURCE_LIMIT when the tree cannot be analyzed, or an error with code
// CANCELLED when ctx ends first. No partial result is returned with an
// error.
func (r *Runner) Run(ctx context.Context, root string, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rules, err := alias.CompileSpecs(cfg.AliasRules)
	if err != nil {
		return nil, err
	}
	nameRes := names.New()
	for eco, t := range cfg.NameTables {
		nameRes.Merge(eco, t)
	}

	x := &run{
		r:      r,
		cfg:    cfg,
		logger: r.Logger,
		diags:  diag.NewCollector(),
		set:    languages.NewSet(r.handlers()),
		hooks:  observability.Pipeline(),
	}
	if x.logger == nil {
		x.logger = log.Default()
	}
	result := &Result{}

	// Stage 1: Scan
	start := time.Now()
	sr, err := x.scan(ctx, root)
	result.Timings.Scan = time.Since(start)
	if err != nil {
		return nil, err
	}
	x.logger.Info("scanned repository",
		"files", len(sr.Files),
		"manifests", len(sr.Manifests),
		"duration", result.Timings.Scan)

	// Stage 2: Extract
	start = time.Now()
	p, facts, err := x.extractAll(ctx, sr, rules, nameRes)
	result.Timings.Extract = time.Since(start)
	if err != nil {
		return nil, err
	}

	// Stage 3: Build
	a := newAssembler(p, x.set, sr, x.diags, x.logger)
	for _, f := range facts {
		if f != nil {
			a.addFacts(f)
		}
	}
	a.addWorkspaceEdges()
	x.logger.Info("extracted dependencies",
		"files", len(sr.Files),
		"nodes", a.b.NodeCount(),
		"packages", len(a.packages),
		"duration", result.Timings.Extract)

	// Stage 4: Resolve
	start = time.Now()
	resolved, err := x.resolveURLs(ctx, a)
	result.Timings.Resolve = time.Since(start)
	if err != nil {
		return nil, err
	}
	x.logger.Info("resolved repository urls",
		"packages", len(a.packages),
		"resolved", resolved,
		"duration", result.Timings.Resolve)

	g := a.b.Build()
	result.Graph = g

	// Stage 5: Rank
	start = time.Now()
	selfURL := cfg.RepoURL
	if selfURL == "" {
		selfURL = scan.OriginURL(sr.Root)
	}
	report, err := x.rank(ctx, g, selfURL)
	result.Timings.Rank = time.Since(start)
	if err != nil {
		return nil, err
	}
	x.logger.Info("ranked dependencies",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"entries", len(report.DripList),
		"duration", result.Timings.Rank)

	report.Root = sr.Root
	report.RepoURL = selfURL
	report.Stats = gio.Stats{
		Files:      len(sr.Files),
		Manifests:  len(p.Manifests()),
		Packages:   len(a.packages),
		Components: g.Count(graph.KindComponent),
		Edges:      len(g.Edges),
		Resolved:   resolved,
		Unresolved: len(a.packages) - resolved,
	}
	x.finish(report)

	result.Artifacts = x.persist(ctx, sr.Root, selfURL, g, report)
	result.Report = report
	return result, nil
}

// finish copies the collected diagnostics into report.
func (x *run) finish(report *gio.Result) {
	report.Diagnostics = x.diags.Sorted()
	report.Summary = diag.Summary(report.Diagnostics)
	report.Stats.Skipped = 0
	for _, k := range []diag.Kind{diag.SkippedFile, diag.SymlinkSkipped, diag.PathRejected, diag.Timeout, diag.InvalidManifest} {
		report.Stats.Skipped += report.Summary[k]
	}
}

func (x *run) scan(ctx context.Context, root string) (*scan.Result, error) {
	langs := make(map[string]string)
	for _, ext := range x.set.Extensions() {
		if _, tag, ok := x.set.ForSource("f" + ext); ok {
			langs[ext] = tag
		}
	}
	x.hooks.OnScanStart(ctx, root)
	start := time.Now()
	sr, err := scan.Scan(ctx, root, scan.Options{
		Languages:        langs,
		ManifestPatterns: x.set.ManifestPatterns(),
		IgnoreDirs:       x.cfg.IgnoreDirs,
		MaxFiles:         x.cfg.MaxFiles,
		MaxFileSize:      x.cfg.MaxFileSize,
		MaxPathLength:    x.cfg.MaxPathLength,
		MaxDepth:         x.cfg.MaxDepth,
		Logger:           x.logger,
		Diags:            x.diags,
	})
	n := 0
	if sr != nil {
		n = len(sr.Files)
	}
	x.hooks.OnScanComplete(ctx, root, n, time.Since(start), err)
	return sr, err
}

// extractAll loads the manifests into a new project, prepares every handler
// and parses the source files.
func (x *run) extractAll(ctx context.Context, sr *scan.Result, rules []alias.Rule, nameRes *names.Resolver) (*deps.Project, []*deps.Facts, error) {
	all := make([]string, 0, len(sr.Files)+len(sr.Manifests))
	for _, f := range sr.Files {
		all = append(all, f.Path)
	}
	for _, f := range sr.Manifests {
		all = append(all, f.Path)
	}
	var helper []string
	if x.cfg.RemappingHelper != "" {
		helper = []string{"node", x.cfg.RemappingHelper}
	}
	p := deps.NewProject(deps.Options{
		Root:              sr.Root,
		Files:             all,
		Submodules:        sr.Submodules,
		Names:             nameRes,
		AliasRules:        rules,
		RemappingHelper:   helper,
		MaxImportsPerFile: x.cfg.MaxImportsPerFile,
		MaxFileSize:       x.cfg.MaxFileSize,
		Logger:            x.logger,
		Diags:             x.diags,
	})

	x.hooks.OnExtractStart(ctx, len(sr.Files))
	start := time.Now()
	facts, err := x.parse(ctx, p, sr)
	parsed := 0
	for _, f := range facts {
		if f != nil {
			parsed++
		}
	}
	x.hooks.OnExtractComplete(ctx, len(sr.Files), parsed, time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	return p, facts, nil
}

func (x *run) parse(ctx context.Context, p *deps.Project, sr *scan.Result) ([]*deps.Facts, error) {
	if err := x.loadManifests(ctx, p, sr.Manifests); err != nil {
		return nil, err
	}
	p.Finalize()
	for _, h := range x.set.Handlers() {
		if err := h.Prepare(ctx, p); err != nil {
			if cerr := cancelled(ctx); cerr != nil {
				return nil, cerr
			}
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "prepare %s handler", h.Ecosystem())
		}
	}
	return x.extract(ctx, p, sr.Files)
}

// resolveURLs attaches a repository URL to every external package node and
// returns how many were resolved.
func (x *run) resolveURLs(ctx context.Context, a *assembler) (int, error) {
	if err := cancelled(ctx); err != nil {
		return 0, err
	}
	ids := a.external()
	reqs := make([]urls.Request, len(ids))
	for i, id := range ids {
		pkg := a.packages[id]
		reqs[i] = urls.Request{
			Ecosystem:    pkg.Ecosystem,
			Name:         pkg.Name,
			Version:      pkg.Version,
			SubmoduleURL: pkg.SubmoduleURL,
			SourceURL:    pkg.SourceURL,
		}
	}

	x.hooks.OnResolveStart(ctx, len(reqs))
	start := time.Now()
	results, err := x.urlResolver().ResolveAll(ctx, reqs)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeCancelled, err, "url resolution cancelled")
	}
	x.hooks.OnResolveComplete(ctx, len(reqs), time.Since(start), err)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for i, res := range results {
		if res.Resolved() {
			a.b.SetURL(ids[i], res.URL.String())
			resolved++
			continue
		}
		msg := "no repository url found"
		if res.Err != nil {
			msg = errors.UserMessage(res.Err)
		}
		x.diags.AddPackage(diag.UnresolvedPackage, string(res.Request.Ecosystem), res.Request.Name, "%s", msg)
	}
	return resolved, nil
}

func (x *run) urlResolver() *urls.Resolver {
	backend, keyer := x.r.Cache, x.r.Keyer
	if backend == nil {
		backend = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	providers := x.r.Providers
	if providers == nil {
		providers = urls.DefaultProviders(backend, x.cfg.Cache.TTL)
	}
	gh := x.r.GitHub
	if gh == nil && x.cfg.GitHubToken != "" {
		gh = github.NewClient(backend, x.cfg.GitHubToken, x.cfg.Cache.TTL)
	}
	return urls.New(urls.Options{
		Providers:   providers,
		Store:       urls.NewCacheStore(backend, keyer, x.cfg.Cache.TTL),
		GitHub:      gh,
		Concurrency: x.cfg.RegistryConcurrency,
		Timeout:     x.cfg.RequestTimeout(),
		Refresh:     x.cfg.ForceURLRefresh,
		Logger:      x.logger,
	})
}

// rankError codes a centrality failure: CANCELLED when ctx is done and
// INTERNAL_ERROR otherwise, since the fallback PageRank itself failed.
func rankError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeCancelled, err, "ranking cancelled")
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "ranking failed")
}

// rank scores g and builds the drip list.
func (x *run) rank(ctx context.Context, g *graph.Graph, selfURL string) (*gio.Result, error) {
	x.hooks.OnRankStart(ctx, x.cfg.Metric, len(g.Nodes))
	start := time.Now()
	scores, err := centrality.Compute(ctx, g, centrality.Options{
		Metric:  x.cfg.Metric,
		Alpha:   x.cfg.EffectiveAlpha(),
		Weights: x.cfg.EdgeWeights(),
		Logger:  x.logger,
	})
	if err != nil {
		err = rankError(ctx, err)
	}
	x.hooks.OnRankComplete(ctx, x.cfg.Metric, len(g.Nodes), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if scores.Fallback {
		x.diags.Addf(diag.MetricFallback, "", "%s failed; scores come from unweighted pagerank", x.cfg.Metric)
	}
	return &gio.Result{
		Metric:         scores.Metric,
		MetricFallback: scores.Fallback,
		DripList: centrality.Rank(g, scores.Scores, centrality.RankOptions{
			MaxLength:  x.cfg.DripListMaxLength,
			GitHubOnly: x.cfg.GitHubOnly,
			SelfURL:    selfURL,
		}),
	}, nil
}

// persist writes the run's artifacts when a store is configured. Failures
// become diagnostics.
func (x *run) persist(ctx context.Context, root, repoURL string, g *graph.Graph, report *gio.Result) []string {
	store := x.r.Artifacts
	if store == nil {
		s, err := artifacts.Open(x.cfg.Artifacts)
		if err != nil {
			x.diags.Addf(diag.ArtifactError, "", "open artifact store: %s", errors.UserMessage(err))
			x.finish(report)
			return nil
		}
		store = s
	}
	if store == nil {
		return nil
	}
	run := &artifacts.Run{RepoURL: repoURL, Commit: artifacts.HeadCommit(root)}
	keys, err := artifacts.NewWriter(store, x.cfg.Artifacts.Prefix).Save(ctx, run, g, report)
	if err != nil {
		x.logger.Warn("saving artifacts failed", "error", err)
		x.diags.Addf(diag.ArtifactError, "", "%s", errors.UserMessage(err))
		x.finish(report)
		return keys
	}
	x.logger.Debug("saved artifacts", "run", run.ID, "keys", len(keys))
	return keys
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeCancelled, err, "analysis cancelled")
	}
	return nil
}
