package urls

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/deps"
)

type countingProvider struct {
	calls atomic.Int32
	urls  map[string]string
}

func (p *countingProvider) Lookup(_ context.Context, req Request, _ bool) (string, error) {
	p.calls.Add(1)
	if u, ok := p.urls[req.Name]; ok {
		return u, nil
	}
	return "", errors.New("not found")
}

type memStore struct {
	mu   sync.Mutex
	m    map[string]CanonicalURL
	puts int
}

func newMemStore() *memStore { return &memStore{m: map[string]CanonicalURL{}} }

func (s *memStore) Get(_ context.Context, eco, name string) (CanonicalURL, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.m[eco+":"+name]
	return u, ok, nil
}

func (s *memStore) Put(_ context.Context, eco, name string, u CanonicalURL) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[eco+":"+name] = u
	s.puts++
	return nil
}

type fakeGitHub map[string]string

func (f fakeGitHub) CanonicalURL(_ context.Context, owner, repo string, _ bool) (string, error) {
	if u, ok := f[owner+"/"+repo]; ok {
		return u, nil
	}
	return "", errors.New("not found")
}

func newTestResolver(p Provider, store Store, refresh bool) *Resolver {
	return New(Options{
		Providers: map[deps.Ecosystem]Provider{deps.NPM: p},
		Store:     store,
		Refresh:   refresh,
	})
}

func TestResolvePriority(t *testing.T) {
	p := &countingProvider{urls: map[string]string{"lib": "https://github.com/registry/lib"}}
	r := newTestResolver(p, nil, false)
	ctx := context.Background()

	res := r.Resolve(ctx, Request{Ecosystem: deps.NPM, Name: "lib", SubmoduleURL: "git@github.com:vendored/lib.git", SourceURL: "https://github.com/declared/lib"})
	assert.Equal(t, SourceSubmodule, res.Source)
	assert.Equal(t, "github.com/vendored/lib", res.URL.Key)

	res = r.Resolve(ctx, Request{Ecosystem: deps.NPM, Name: "lib", SourceURL: "https://github.com/declared/lib"})
	assert.Equal(t, SourceDeclared, res.Source)
	assert.Equal(t, "github.com/declared/lib", res.URL.Key)
	assert.Equal(t, int32(0), p.calls.Load())

	res = r.Resolve(ctx, Request{Ecosystem: deps.NPM, Name: "lib"})
	assert.Equal(t, SourceRegistry, res.Source)
	assert.Equal(t, "github.com/registry/lib", res.URL.Key)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestResolveCache(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := &countingProvider{urls: map[string]string{"lib": "https://github.com/owner/lib"}}

	res := newTestResolver(p, store, false).Resolve(ctx, Request{Ecosystem: deps.NPM, Name: "lib"})
	require.True(t, res.Resolved())
	assert.Equal(t, 1, store.puts)

	res = newTestResolver(p, store, false).Resolve(ctx, Request{Ecosystem: deps.NPM, Name: "lib"})
	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, int32(1), p.calls.Load())

	// A forced refresh bypasses the read but still writes back.
	res = newTestResolver(p, store, true).Resolve(ctx, Request{Ecosystem: deps.NPM, Name: "lib"})
	assert.Equal(t, SourceRegistry, res.Source)
	assert.Equal(t, int32(2), p.calls.Load())
	assert.Equal(t, 2, store.puts)
}

func TestResolveRegistryFailure(t *testing.T) {
	r := newTestResolver(&countingProvider{}, newMemStore(), false)
	results, err := r.ResolveAll(context.Background(), []Request{
		{Ecosystem: deps.NPM, Name: "missing"},
		{Ecosystem: deps.PyPI, Name: "no-provider"},
	})
	require.NoError(t, err)
	for _, res := range results {
		assert.False(t, res.Resolved())
		assert.Error(t, res.Err)
	}
}

func TestResolveUnparsableMetadata(t *testing.T) {
	p := &countingProvider{urls: map[string]string{"lib": "see the docs"}}
	res := newTestResolver(p, nil, false).Resolve(context.Background(), Request{Ecosystem: deps.NPM, Name: "lib"})
	assert.False(t, res.Resolved())
}

func TestResolveTimeout(t *testing.T) {
	slow := ProviderFunc(func(ctx context.Context, _ Request, _ bool) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := New(Options{
		Providers: map[deps.Ecosystem]Provider{deps.NPM: slow},
		Timeout:   20 * time.Millisecond,
	})
	res := r.Resolve(context.Background(), Request{Ecosystem: deps.NPM, Name: "slow"})
	assert.False(t, res.Resolved())
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestResolveGitHubCanonicalization(t *testing.T) {
	p := &countingProvider{urls: map[string]string{"lib": "https://github.com/old/name"}}
	r := New(Options{
		Providers: map[deps.Ecosystem]Provider{deps.NPM: p},
		GitHub:    fakeGitHub{"old/name": "https://github.com/New/Name"},
	})
	res := r.Resolve(context.Background(), Request{Ecosystem: deps.NPM, Name: "lib"})
	assert.Equal(t, "github.com/new/name", res.URL.Key)

	res = r.Resolve(context.Background(), Request{Ecosystem: deps.NPM, Name: "x", SubmoduleURL: "https://github.com/unknown/repo"})
	assert.Equal(t, "github.com/unknown/repo", res.URL.Key)
}

func TestResolveAllOrder(t *testing.T) {
	p := &countingProvider{urls: map[string]string{
		"a": "https://github.com/o/a",
		"b": "https://github.com/o/b",
		"c": "https://github.com/o/c",
	}}
	r := New(Options{Providers: map[deps.Ecosystem]Provider{deps.NPM: p}, Concurrency: 2})
	var reqs []Request
	for _, n := range []string{"c", "a", "b", "a"} {
		reqs = append(reqs, Request{Ecosystem: deps.NPM, Name: n})
	}
	results, err := r.ResolveAll(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, n := range []string{"c", "a", "b", "a"} {
		assert.Equal(t, n, results[i].Request.Name)
		assert.Equal(t, "github.com/o/"+n, results[i].URL.Key)
	}
}

func TestResolveAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newTestResolver(&countingProvider{}, nil, false)
	_, err := r.ResolveAll(ctx, []Request{{Ecosystem: deps.NPM, Name: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCacheStore(t *testing.T) {
	ctx := context.Background()
	backend, err := cache.NewMemoryCache(cache.DefaultMemoryEntries)
	require.NoError(t, err)
	s := NewCacheStore(backend, nil, time.Hour)

	_, ok, err := s.Get(ctx, "npm", "react")
	require.NoError(t, err)
	assert.False(t, ok)

	want, _ := Parse("https://github.com/facebook/react")
	require.NoError(t, s.Put(ctx, "npm", "react", want))
	got, ok, err := s.Get(ctx, "npm", "react")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, present, _ := backend.Get(ctx, "url:npm:react")
	assert.True(t, present)

	require.NoError(t, backend.Set(ctx, "url:npm:broken", []byte("{"), 0))
	_, ok, err = s.Get(ctx, "npm", "broken")
	require.NoError(t, err)
	assert.False(t, ok)
}
