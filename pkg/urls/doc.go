// Package urls resolves external packages to canonical upstream repository
// URLs.
//
// [Parse] normalizes the many spellings of a repository address (git+ssh,
// scp-style, npm "github:" shorthand, trailing .git, deep links into a
// repository) into a [CanonicalURL] whose Key is the lower-cased,
// scheme-less form used as the aggregation key for rankings.
//
// A [Resolver] applies the lookup priority for one package:
//
//  1. the submodule hint from .gitmodules
//  2. a source URL declared in the manifest (for example a foundry git source)
//  3. the URL cache ([Store]), unless a refresh is forced
//  4. the ecosystem registry, through a per-ecosystem [Provider]
//
// Registry lookups run under a semaphore with a per-request timeout, and
// any failure leaves the package unresolved rather than failing the run.
package urls

import (
	"time"

	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/integrations/crates"
	"github.com/drips-network/gardener/pkg/integrations/goproxy"
	"github.com/drips-network/gardener/pkg/integrations/npm"
	"github.com/drips-network/gardener/pkg/integrations/pypi"
)

// DefaultProviders returns registry-backed providers for all five
// ecosystems. Registry responses are cached in backend for ttl.
func DefaultProviders(backend cache.Cache, ttl time.Duration) map[deps.Ecosystem]Provider {
	npmProvider := &NPMProvider{Registry: npm.NewClient(backend, ttl)}
	return map[deps.Ecosystem]Provider{
		deps.NPM:      npmProvider,
		deps.PyPI:     &PyPIProvider{Registry: pypi.NewClient(backend, ttl)},
		deps.Cargo:    &CratesProvider{Registry: crates.NewClient(backend, ttl)},
		deps.Go:       &GoProvider{Registry: goproxy.NewClient(backend, ttl)},
		deps.Solidity: &SolidityProvider{NPM: npmProvider},
	}
}
