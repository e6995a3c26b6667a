// Package cache provides byte-level key/value caches with optional expiry.
//
// The pipeline uses a [Cache] for two things: registry HTTP responses (via
// the integrations clients) and resolved repository URLs keyed by
// (ecosystem, package name). Both outlive a single analysis run, so the
// backend is chosen by the caller:
//
//   - [FileCache]: JSON entry files under the user cache directory (CLI default)
//   - [MemoryCache]: process-local LRU, useful for tests and one-shot runs
//   - [RedisCache]: shared cache for multi-worker deployments
//   - [MongoCache]: document-store cache
//   - [PostgresCache]: table-backed cache
//   - [NullCache]: caching disabled
//
// Use [Open] to construct a backend from a kind name and connection string.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownBackend is returned by [Open] for an unrecognised backend kind.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Cache is a byte-level key/value store.
//
// Get reports (nil, false, nil) on a miss or an expired entry; a non-nil
// error means the backend itself failed. A ttl of 0 passed to Set stores the
// entry without expiry. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys so that all components agree on the key layout.
type Keyer interface {
	// HTTPKey generates a key for a cached registry response.
	HTTPKey(namespace, key string) string
	// URLKey generates a key for a resolved repository URL.
	URLKey(ecosystem, name string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard key layout.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// URLKey returns "url:<ecosystem>:<name>".
func (DefaultKeyer) URLKey(ecosystem, name string) string {
	return "url:" + ecosystem + ":" + name
}
