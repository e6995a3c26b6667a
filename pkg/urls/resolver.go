package urls

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/drips-network/gardener/pkg/deps"
)

// Resolution sources.
const (
	SourceSubmodule = "submodule"
	SourceDeclared  = "declared"
	SourceCache     = "cache"
	SourceRegistry  = "registry"
)

// Defaults for [Options].
const (
	DefaultConcurrency = 8
	DefaultTimeout     = 10 * time.Second
)

// Request identifies one external package to resolve.
type Request struct {
	Ecosystem    deps.Ecosystem
	Name         string
	Version      string
	SubmoduleURL string // vendoring hint; wins over everything else
	SourceURL    string // URL declared in the manifest itself
}

// Result is the outcome of resolving one [Request]. A zero URL means the
// package is unresolved and Err, when set, says why.
type Result struct {
	Request Request
	URL     CanonicalURL
	Source  string
	Err     error
}

// Resolved reports whether r carries a URL.
func (r Result) Resolved() bool { return !r.URL.IsZero() }

// GitHubAPI canonicalizes GitHub repositories that were renamed or moved.
type GitHubAPI interface {
	CanonicalURL(ctx context.Context, owner, repo string, refresh bool) (string, error)
}

// Options configures a [Resolver].
type Options struct {
	Providers   map[deps.Ecosystem]Provider
	Store       Store     // nil disables the URL cache
	GitHub      GitHubAPI // nil skips html_url canonicalization
	Concurrency int
	Timeout     time.Duration // per registry request
	Refresh     bool          // skip cache reads, still write back
	Logger      *log.Logger
}

// Resolver maps packages to canonical repository URLs. Priority is the
// submodule hint, then a manifest-declared source URL, then the URL cache,
// then the ecosystem registry. Registry failures never surface as errors
// from [Resolver.ResolveAll]; the package is reported unresolved instead.
//
// A Resolver is safe for concurrent use. Concurrent requests for the same
// (ecosystem, name) share one lookup.
type Resolver struct {
	opts  Options
	sem   *semaphore.Weighted
	group singleflight.Group
}

// New returns a Resolver with defaults filled in.
func New(opts Options) *Resolver {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Resolver{
		opts: opts,
		sem:  semaphore.NewWeighted(int64(opts.Concurrency)),
	}
}

// Resolve resolves a single package.
func (r *Resolver) Resolve(ctx context.Context, req Request) Result {
	if u, ok := Parse(req.SubmoduleURL); ok {
		return Result{Request: req, URL: r.canonicalize(ctx, u), Source: SourceSubmodule}
	}
	if u, ok := Parse(req.SourceURL); ok {
		return Result{Request: req, URL: r.canonicalize(ctx, u), Source: SourceDeclared}
	}

	key := string(req.Ecosystem) + ":" + req.Name
	v, _, _ := r.group.Do(key, func() (any, error) {
		return r.lookup(ctx, req), nil
	})
	res := v.(Result)
	res.Request = req
	return res
}

// ResolveAll resolves reqs with bounded concurrency and returns results in
// input order. The only error is ctx's, when it is cancelled before every
// request was started.
func (r *Resolver) ResolveAll(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, req := range reqs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			results[i] = r.Resolve(gctx, req)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (r *Resolver) lookup(ctx context.Context, req Request) Result {
	eco, name := string(req.Ecosystem), req.Name
	var cached CanonicalURL
	if r.opts.Store != nil {
		u, ok, err := r.opts.Store.Get(ctx, eco, name)
		switch {
		case err != nil:
			r.opts.Logger.Debug("url cache read failed", "ecosystem", eco, "package", name, "error", err)
		case ok && !r.opts.Refresh:
			return Result{URL: u, Source: SourceCache}
		case ok:
			cached = u
		}
	}

	provider, ok := r.opts.Providers[req.Ecosystem]
	if !ok {
		return Result{Err: errors.New("no registry for ecosystem " + eco)}
	}
	raw, err := r.query(ctx, provider, req)
	if err != nil {
		r.opts.Logger.Debug("registry lookup failed", "ecosystem", eco, "package", name, "error", err)
		return Result{Err: err}
	}
	u, ok := Parse(raw)
	if !ok {
		return Result{Err: errors.New("no repository URL in registry metadata")}
	}
	u = r.canonicalize(ctx, u)

	if r.opts.Store != nil && (r.opts.Refresh || cached.Key != u.Key) {
		if err := r.opts.Store.Put(ctx, eco, name, u); err != nil {
			r.opts.Logger.Debug("url cache write failed", "ecosystem", eco, "package", name, "error", err)
		}
	}
	return Result{URL: u, Source: SourceRegistry}
}

// query runs one registry lookup under the semaphore and the per-request
// timeout.
func (r *Resolver) query(ctx context.Context, p Provider, req Request) (string, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	return p.Lookup(ctx, req, r.opts.Refresh)
}

// canonicalize replaces a GitHub URL with the repository's current
// html_url when a GitHub client is configured. Failures keep u.
func (r *Resolver) canonicalize(ctx context.Context, u CanonicalURL) CanonicalURL {
	if r.opts.GitHub == nil || u.Forge != GitHub {
		return u
	}
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	html, err := r.opts.GitHub.CanonicalURL(ctx, u.Owner, u.Repo, r.opts.Refresh)
	if err != nil {
		r.opts.Logger.Debug("github canonicalization failed", "url", u.String(), "error", err)
		return u
	}
	if c, ok := Parse(html); ok {
		return c
	}
	return u
}
