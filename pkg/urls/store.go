package urls

import (
	"context"
	"encoding/json"
	"time"

	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/observability"
)

// Store is the URL cache contract, keyed by (ecosystem, package name).
// Get reports ok=false on a miss.
type Store interface {
	Get(ctx context.Context, ecosystem, name string) (CanonicalURL, bool, error)
	Put(ctx context.Context, ecosystem, name string, u CanonicalURL) error
}

// CacheStore keeps canonical URLs in a byte-level [cache.Cache] under
// [cache.Keyer.URLKey] keys.
type CacheStore struct {
	backend cache.Cache
	keys    cache.Keyer
	ttl     time.Duration
}

// NewCacheStore wraps backend. A nil keys uses [cache.NewDefaultKeyer].
func NewCacheStore(backend cache.Cache, keys cache.Keyer, ttl time.Duration) *CacheStore {
	if keys == nil {
		keys = cache.NewDefaultKeyer()
	}
	return &CacheStore{backend: backend, keys: keys, ttl: ttl}
}

func (s *CacheStore) Get(ctx context.Context, ecosystem, name string) (CanonicalURL, bool, error) {
	data, ok, err := s.backend.Get(ctx, s.keys.URLKey(ecosystem, name))
	if err != nil {
		return CanonicalURL{}, false, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "url")
		return CanonicalURL{}, false, nil
	}
	var u CanonicalURL
	if err := json.Unmarshal(data, &u); err != nil || u.Key == "" {
		// Unreadable entries count as misses and get overwritten.
		observability.Cache().OnCacheMiss(ctx, "url")
		return CanonicalURL{}, false, nil
	}
	observability.Cache().OnCacheHit(ctx, "url")
	return u, true, nil
}

func (s *CacheStore) Put(ctx context.Context, ecosystem, name string, u CanonicalURL) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := s.backend.Set(ctx, s.keys.URLKey(ecosystem, name), data, s.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, "url", len(data))
	return nil
}
