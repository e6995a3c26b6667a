package crates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/integrations"
)

// DefaultBaseURL is the crates.io API root.
const DefaultBaseURL = "https://crates.io/api/v1"

// CrateInfo holds the repository metadata of a Rust crate from crates.io.
//
// The Version field contains the max_version (latest stable or highest version).
type CrateInfo struct {
	Name       string `json:"name"`                 // Crate name (e.g., "serde")
	Version    string `json:"version"`              // Latest version (e.g., "1.0.193")
	Repository string `json:"repository,omitempty"` // Repository URL (may be empty)
	HomePage   string `json:"homepage,omitempty"`   // Homepage URL (may be empty)
}

// Client provides access to the crates.io package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
//
// Note: crates.io requires a User-Agent header; the shared client sets one.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a crates.io client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{
		"User-Agent": integrations.UserAgent,
		"Accept":     "application/json",
	}
	return &Client{
		Client:  integrations.NewClient(backend, "crates:", cacheTTL, headers),
		baseURL: DefaultBaseURL,
	}
}

// FetchCrate retrieves metadata for a Rust crate from crates.io.
//
// crates.io treats '-' and '_' as equivalent, so either spelling resolves.
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// Returns:
//   - CrateInfo populated with metadata on success
//   - [integrations.ErrNotFound] if the crate doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
func (c *Client) FetchCrate(ctx context.Context, crate string, refresh bool) (*CrateInfo, error) {
	key := crate

	var info CrateInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, crate, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, crate string, info *CrateInfo) error {
	var data crateResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/crates/%s", c.baseURL, crate), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: crate %s", err, crate)
		}
		return err
	}

	*info = CrateInfo{
		Name:       data.Crate.Name,
		Version:    data.Crate.MaxVersion,
		Repository: data.Crate.Repository,
		HomePage:   data.Crate.HomePage,
	}
	return nil
}

type crateResponse struct {
	Crate struct {
		Name       string `json:"name"`
		MaxVersion string `json:"max_version"`
		Repository string `json:"repository"`
		HomePage   string `json:"homepage"`
	} `json:"crate"`
}
