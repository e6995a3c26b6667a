// Package observability exposes instrumentation hooks for the analysis
// pipeline, the caches and the registry HTTP client.
//
// Every hook set defaults to a no-op. A binary installs its own at startup
// (the CLI uses [PipelineHooks] to relabel its spinner) and libraries only
// ever call the accessors:
//
//	observability.Pipeline().OnScanStart(ctx, root)
//	files, err := walk(root)
//	observability.Pipeline().OnScanComplete(ctx, root, len(files), time.Since(start), err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the analysis pipeline, one pair per stage.
type PipelineHooks interface {
	// Scan events
	OnScanStart(ctx context.Context, root string)
	OnScanComplete(ctx context.Context, root string, files int, duration time.Duration, err error)

	// Extract events (manifest and import extraction over all files)
	OnExtractStart(ctx context.Context, files int)
	OnExtractComplete(ctx context.Context, nodes, edges int, duration time.Duration, err error)

	// Resolve events (external URL resolution)
	OnResolveStart(ctx context.Context, packages int)
	OnResolveComplete(ctx context.Context, resolved int, duration time.Duration, err error)

	// Rank events (centrality and drip list)
	OnRankStart(ctx context.Context, metric string, nodes int)
	OnRankComplete(ctx context.Context, metric string, entries int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations. keyType names the cached
// concern, e.g. "url" for resolved repository URLs or "http" for registry
// responses.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnScanStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnScanComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnExtractStart(context.Context, int)                               {}
func (NoopPipelineHooks) OnExtractComplete(context.Context, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnResolveStart(context.Context, int)                               {}
func (NoopPipelineHooks) OnResolveComplete(context.Context, int, time.Duration, error)      {}
func (NoopPipelineHooks) OnRankStart(context.Context, string, int)                          {}
func (NoopPipelineHooks) OnRankComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Registry
// =============================================================================

// slot holds one registered hook set. Reads are lock-free so hot paths such
// as the HTTP client pay nothing when no hooks are installed.
type slot[T any] struct {
	v    atomic.Pointer[T]
	noop T
}

func (s *slot[T]) get() T {
	if p := s.v.Load(); p != nil {
		return *p
	}
	return s.noop
}

func (s *slot[T]) set(h T) { s.v.Store(&h) }

func (s *slot[T]) reset() { s.v.Store(nil) }

var (
	pipelineSlot = slot[PipelineHooks]{noop: NoopPipelineHooks{}}
	cacheSlot    = slot[CacheHooks]{noop: NoopCacheHooks{}}
	httpSlot     = slot[HTTPHooks]{noop: NoopHTTPHooks{}}
)

// SetPipelineHooks installs h for the pipeline stages. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		pipelineSlot.set(h)
	}
}

// SetCacheHooks installs h for URL and response caching. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

// SetHTTPHooks installs h for registry requests. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpSlot.set(h)
	}
}

func Pipeline() PipelineHooks { return pipelineSlot.get() }

func Cache() CacheHooks { return cacheSlot.get() }

func HTTP() HTTPHooks { return httpSlot.get() }

// Reset restores every hook set to its no-op default.
func Reset() {
	pipelineSlot.reset()
	cacheSlot.reset()
	httpSlot.reset()
}
