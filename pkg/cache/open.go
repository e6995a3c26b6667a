package cache

import (
	"context"
	"fmt"
	"strings"
)

// Backend kinds accepted by Open.
const (
	KindFile     = "file"
	KindMemory   = "memory"
	KindRedis    = "redis"
	KindMongo    = "mongo"
	KindPostgres = "postgres"
	KindNone     = "none"
)

// Kinds lists the accepted backend kinds in display order.
var Kinds = []string{KindFile, KindMemory, KindRedis, KindMongo, KindPostgres, KindNone}

// OpenOptions configures Open.
type OpenOptions struct {
	Kind string // One of Kinds; empty means file
	URL  string // Connection string for redis, mongo and postgres
	Dir  string // Directory for the file backend
}

// Open constructs the backend named by opts.Kind.
func Open(ctx context.Context, opts OpenOptions) (Cache, error) {
	kind := strings.ToLower(strings.TrimSpace(opts.Kind))
	if kind == "" {
		kind = KindFile
	}
	needsURL := kind == KindRedis || kind == KindMongo || kind == KindPostgres
	if needsURL && opts.URL == "" {
		return nil, fmt.Errorf("cache backend %q requires a connection url", kind)
	}

	switch kind {
	case KindFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("file cache requires a directory")
		}
		return NewFileCache(opts.Dir)
	case KindMemory:
		return NewMemoryCache(DefaultMemoryEntries)
	case KindRedis:
		return NewRedisCache(ctx, opts.URL, "gardener:")
	case KindMongo:
		return NewMongoCache(ctx, opts.URL, "gardener", "cache")
	case KindPostgres:
		return NewPostgresCache(ctx, opts.URL, DefaultPostgresTable)
	case KindNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Kind)
	}
}
