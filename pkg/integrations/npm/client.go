package npm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/integrations"
)

// DefaultBaseURL is the public npm registry.
const DefaultBaseURL = "https://registry.npmjs.org"

// PackageInfo holds the repository metadata of an npm package.
//
// Repository, HomePage and BugsURL are raw registry values; the URL resolver
// decides which of them identifies the source repository.
type PackageInfo struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Repository string `json:"repository,omitempty"`
	Directory  string `json:"directory,omitempty"` // monorepo sub-directory, if declared
	HomePage   string `json:"homepage,omitempty"`
	BugsURL    string `json:"bugs_url,omitempty"`
}

// Client provides access to the npm registry API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an npm client with the given cache backend and TTL.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "npm:", cacheTTL, nil),
		baseURL: DefaultBaseURL,
	}
}

// FetchPackage retrieves the latest published metadata for pkg.
// Scoped names (@scope/name) are supported. If refresh is true the cache is
// not read.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))
	key := pkg

	var info PackageInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, info *PackageInfo) error {
	var data registryResponse
	if err := c.Get(ctx, c.baseURL+"/"+escapeName(pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return err
	}

	latest := data.DistTags.Latest
	v, ok := data.Versions[latest]
	if !ok {
		// Some packages only carry repository data at the top level.
		v = versionDetails{Repository: data.Repository, HomePage: data.HomePage, Bugs: data.Bugs}
	}

	*info = PackageInfo{
		Name:       data.Name,
		Version:    latest,
		Repository: extractField(v.Repository, "url"),
		Directory:  extractField(v.Repository, "directory"),
		HomePage:   v.HomePage,
		BugsURL:    extractField(v.Bugs, "url"),
	}
	if info.Repository == "" {
		info.Repository = extractField(data.Repository, "url")
	}
	return nil
}

// escapeName encodes the scope separator the way the registry expects:
// @scope/name becomes @scope%2Fname.
func escapeName(pkg string) string {
	if strings.HasPrefix(pkg, "@") {
		return "@" + url.PathEscape(pkg[1:])
	}
	return url.PathEscape(pkg)
}

func extractField(v any, field string) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val[field].(string); ok {
			return s
		}
	}
	return ""
}

type registryResponse struct {
	Name       string                    `json:"name"`
	DistTags   distTags                  `json:"dist-tags"`
	Versions   map[string]versionDetails `json:"versions"`
	Repository any                       `json:"repository"`
	HomePage   string                    `json:"homepage"`
	Bugs       any                       `json:"bugs"`
}

type distTags struct {
	Latest string `json:"latest"`
}

type versionDetails struct {
	Repository any    `json:"repository"`
	HomePage   string `json:"homepage"`
	Bugs       any    `json:"bugs"`
}
