package integrations

import (
	"errors"
	"maps"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/drips-network/gardener/pkg/buildinfo"
)

const httpTimeout = 10 * time.Second

// UserAgent identifies gardener to registries. crates.io rejects requests
// without one.
var UserAgent = "gardener/" + buildinfo.Version + " (https://github.com/drips-network/gardener)"

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NewHTTPClientWithTimeout creates an HTTP client with the given timeout;
// a non-positive timeout selects the standard one.
func NewHTTPClientWithTimeout(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = httpTimeout
	}
	return &http.Client{Timeout: timeout}
}

// NormalizePkgName converts a package name to its canonical form.
// Applies lowercase and replaces underscores with hyphens, following PEP 503
// normalization rules used by PyPI and other registries.
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// RepoURLKeys are the project URL labels searched first, in order.
var RepoURLKeys = []string{"Source", "Source Code", "Repository", "Code", "Homepage"}

// ExtractRepoURL finds a forge owner and repo from package URLs.
// It searches through urls using [RepoURLKeys], then every other URL in
// sorted label order, and falls back to homepage if no match is found. The
// re parameter should match URLs and capture owner (group 1) and repo name
// (group 2). Returns ok=false if no valid repository URL is found.
func ExtractRepoURL(re *regexp.Regexp, urls map[string]string, homepage string) (owner, repo string, ok bool) {
	match := func(u string) bool {
		if strings.Contains(u, "/sponsors/") {
			return false
		}
		if m := re.FindStringSubmatch(u); len(m) >= 3 {
			owner = m[1]
			repo = strings.TrimSuffix(m[2], ".git")
			ok = true
			return true
		}
		return false
	}

	for _, key := range RepoURLKeys {
		if u, exists := urls[key]; exists && match(u) {
			return
		}
	}
	for _, key := range slices.Sorted(maps.Keys(urls)) {
		if match(urls[key]) {
			return
		}
	}
	if homepage != "" {
		match(homepage)
	}
	return
}
