package github

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/integrations"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

var repoURLPattern = regexp.MustCompile(`https?://(?:www\.)?github\.com/([^/]+)/([^/?#]+?)(?:\.git)?(?:[/?#]|$)`)

// Repo is the subset of the GitHub repository resource the resolver uses.
// HTMLURL reflects renames and transfers: requesting an old owner/name
// returns the current location.
type Repo struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
	Archived bool   `json:"archived"`
	Fork     bool   `json:"fork"`
}

// Client provides access to the GitHub API for repository canonicalisation.
// It handles HTTP requests with caching, automatic retries, and optional authentication.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client with optional authentication.
// Pass an empty string for token to use unauthenticated requests (lower rate limits).
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(backend, "github:", cacheTTL, headers),
		baseURL: DefaultBaseURL,
	}
}

// FetchRepo retrieves repository metadata. If refresh is true, cached data
// is bypassed.
func (c *Client) FetchRepo(ctx context.Context, owner, repo string, refresh bool) (*Repo, error) {
	if err := ValidateRepoRef(owner, repo); err != nil {
		return nil, err
	}
	key := strings.ToLower(owner + "/" + repo)

	var r Repo
	err := c.Cached(ctx, key, refresh, &r, func() error {
		url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
		if err := c.Get(ctx, url, &r); err != nil {
			if errors.Is(err, integrations.ErrNotFound) {
				return fmt.Errorf("%w: github repo %s/%s", err, owner, repo)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CanonicalURL returns the repository's current html_url, following renames
// and transfers.
func (c *Client) CanonicalURL(ctx context.Context, owner, repo string, refresh bool) (string, error) {
	r, err := c.FetchRepo(ctx, owner, repo, refresh)
	if err != nil {
		return "", err
	}
	if r.HTMLURL == "" {
		return "", fmt.Errorf("github repo %s/%s has no html_url", owner, repo)
	}
	return r.HTMLURL, nil
}

// ExtractURL finds a GitHub owner and repo among labelled project URLs,
// falling back to homepage.
func ExtractURL(urls map[string]string, homepage string) (owner, repo string, ok bool) {
	return integrations.ExtractRepoURL(repoURLPattern, urls, homepage)
}
