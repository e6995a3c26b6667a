// Package artifacts persists the graph and result of a run as gzip-compressed
// JSON objects.
//
// Objects are addressed by key:
//
//	<prefix>/<canonical repo url>/<commit sha or "local">/<run id>/<name>
//
// A [Store] is either a local directory ([LocalStore]), an S3-compatible
// bucket ([S3Store], created on first use) or process memory
// ([MemoryStore]).
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/drips-network/gardener/pkg/config"
)

// ErrNotFound is returned by Get for a missing object.
var ErrNotFound = errors.New("artifact not found")

// Store holds artifact objects by key.
type Store interface {
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Open returns the store configured by cfg: S3 when an endpoint is set,
// a local directory when Dir is set, and nil when persistence is disabled.
func Open(cfg config.ArtifactConfig) (Store, error) {
	switch {
	case cfg.Endpoint != "":
		return NewS3Store(S3Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
	case cfg.Dir != "":
		return NewLocalStore(cfg.Dir)
	}
	return nil, nil
}

func cleanKey(key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("artifact key is required")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return "", fmt.Errorf("invalid artifact key %q", key)
		}
	}
	return key, nil
}
