// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// The URL resolver asks each ecosystem's registry where a package's source
// lives. Each registry has its own subpackage:
//
//   - [npm]: npm registry (JavaScript, TypeScript and npm-distributed Solidity)
//   - [pypi]: Python Package Index
//   - [crates]: Rust crates.io
//   - [goproxy]: Go module proxy and go-get vanity import metadata
//   - [github]: GitHub API, used to canonicalise renamed repositories
//
// # Client Pattern
//
// All registry clients follow a consistent pattern:
//
//	client := pypi.NewClient(backend, 24*time.Hour)
//	pkg, err := client.FetchPackage(ctx, "requests", false) // false = use cache
//
// Clients handle:
//   - HTTP requests with retry and rate-limit backoff
//   - Response caching through a [cache.Cache] backend with a TTL
//   - API-specific parsing of repository metadata
//
// # Shared Infrastructure
//
// The [Client] type provides the shared HTTP functionality used by all
// registry clients. Transient failures (network errors, 429 and 5xx
// responses) are wrapped in [httputil.RetryableError] and retried; 404 maps
// to [ErrNotFound].
//
// [npm]: github.com/drips-network/gardener/pkg/integrations/npm
// [pypi]: github.com/drips-network/gardener/pkg/integrations/pypi
// [crates]: github.com/drips-network/gardener/pkg/integrations/crates
// [goproxy]: github.com/drips-network/gardener/pkg/integrations/goproxy
// [github]: github.com/drips-network/gardener/pkg/integrations/github
package integrations
