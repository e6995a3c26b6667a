package goproxy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/mod/module"

	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/integrations"
)

// DefaultBaseURL is the public Go module proxy.
const DefaultBaseURL = "https://proxy.golang.org"

// ModuleInfo holds metadata for a Go module from the Go module proxy.
//
// OriginURL is the VCS URL recorded by the proxy for recent versions; it is
// empty for modules fetched before the proxy recorded origins.
type ModuleInfo struct {
	Path      string `json:"path"`
	Version   string `json:"version"`
	OriginURL string `json:"origin_url,omitempty"`
}

// Client provides access to the Go module proxy API and to go-get vanity
// import metadata.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	scheme  string // scheme for go-get requests; https outside tests
}

// NewClient creates a Go module proxy client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "goproxy:", cacheTTL, nil),
		baseURL: DefaultBaseURL,
		scheme:  "https",
	}
}

// FetchModule retrieves the latest version of a Go module from the proxy.
//
// Module paths with uppercase letters are escaped per the module proxy
// protocol. If refresh is true, the cache is bypassed.
//
// Returns:
//   - ModuleInfo populated with metadata on success
//   - [integrations.ErrNotFound] if the module doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
func (c *Client) FetchModule(ctx context.Context, mod string, refresh bool) (*ModuleInfo, error) {
	mod = strings.TrimSpace(mod)
	key := mod

	var info ModuleInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, mod, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, mod string, info *ModuleInfo) error {
	escaped, err := module.EscapePath(mod)
	if err != nil {
		return fmt.Errorf("%w: invalid module path %s: %v", integrations.ErrNotFound, mod, err)
	}
	url := fmt.Sprintf("%s/%s/@latest", c.baseURL, escaped)

	var data latestResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: go module %s", err, mod)
		}
		return err
	}

	*info = ModuleInfo{Path: mod, Version: data.Version}
	if data.Origin != nil {
		info.OriginURL = data.Origin.URL
	}
	return nil
}

type latestResponse struct {
	Version string  `json:"Version"`
	Time    string  `json:"Time"`
	Origin  *origin `json:"Origin,omitempty"`
}

type origin struct {
	VCS string `json:"VCS"`
	URL string `json:"URL"`
}
