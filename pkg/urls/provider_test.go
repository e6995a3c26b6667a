package urls

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/integrations"
	"github.com/drips-network/gardener/pkg/integrations/crates"
	"github.com/drips-network/gardener/pkg/integrations/goproxy"
	"github.com/drips-network/gardener/pkg/integrations/npm"
	"github.com/drips-network/gardener/pkg/integrations/pypi"
)

type fakeNPM map[string]*npm.PackageInfo

func (f fakeNPM) FetchPackage(_ context.Context, pkg string, _ bool) (*npm.PackageInfo, error) {
	if info, ok := f[pkg]; ok {
		return info, nil
	}
	return nil, integrations.ErrNotFound
}

type fakePyPI map[string]*pypi.PackageInfo

func (f fakePyPI) FetchPackage(_ context.Context, pkg string, _ bool) (*pypi.PackageInfo, error) {
	if info, ok := f[pkg]; ok {
		return info, nil
	}
	return nil, integrations.ErrNotFound
}

type fakeCrates map[string]*crates.CrateInfo

func (f fakeCrates) FetchCrate(_ context.Context, crate string, _ bool) (*crates.CrateInfo, error) {
	if info, ok := f[crate]; ok {
		return info, nil
	}
	return nil, integrations.ErrNotFound
}

type fakeGo struct {
	modules map[string]*goproxy.ModuleInfo
	meta    map[string]*goproxy.ImportMeta
}

func (f fakeGo) FetchModule(_ context.Context, mod string, _ bool) (*goproxy.ModuleInfo, error) {
	if info, ok := f.modules[mod]; ok {
		return info, nil
	}
	return nil, integrations.ErrNotFound
}

func (f fakeGo) FetchImportMeta(_ context.Context, path string, _ bool) (*goproxy.ImportMeta, error) {
	if m, ok := f.meta[path]; ok {
		return m, nil
	}
	return nil, integrations.ErrNotFound
}

func lookup(t *testing.T, p Provider, eco deps.Ecosystem, name string) string {
	t.Helper()
	u, err := p.Lookup(context.Background(), Request{Ecosystem: eco, Name: name}, false)
	require.NoError(t, err)
	return u
}

func TestNPMProvider(t *testing.T) {
	p := &NPMProvider{Registry: fakeNPM{
		"lodash": {Name: "lodash", Repository: "git+https://github.com/lodash/lodash.git"},
		"react":  {Name: "react", HomePage: "https://react.dev", BugsURL: "https://github.com/facebook/react/issues"},
		"bare":   {Name: "bare", HomePage: "https://bare.example"},
	}}

	assert.Equal(t, definitelyTyped, lookup(t, p, deps.NPM, "@types/node"))
	assert.Equal(t, "git+https://github.com/lodash/lodash.git", lookup(t, p, deps.NPM, "lodash"))
	assert.Equal(t, "https://github.com/facebook/react/issues", lookup(t, p, deps.NPM, "react"))
	assert.Equal(t, "", lookup(t, p, deps.NPM, "bare"))

	_, err := p.Lookup(context.Background(), Request{Name: "missing"}, false)
	assert.True(t, errors.Is(err, integrations.ErrNotFound))
}

func TestPyPIProvider(t *testing.T) {
	p := &PyPIProvider{Registry: fakePyPI{
		"requests": {ProjectURLs: map[string]string{
			"Documentation": "https://requests.readthedocs.io",
			"Source Code":   "https://github.com/psf/requests",
		}},
		"legacy": {
			ProjectURLs: map[string]string{"Homepage": "https://legacy.example.org"},
			HomePage:    "https://gitlab.com/g/legacy",
		},
		"tracked": {ProjectURLs: map[string]string{
			"Funding": "https://github.com/sponsors/someone",
			"Tracker": "https://github.com/a/tracked/issues",
		}},
		"none": {HomePage: "https://none.example"},
	}}

	assert.Equal(t, "https://github.com/psf/requests", lookup(t, p, deps.PyPI, "requests"))
	assert.Equal(t, "https://gitlab.com/g/legacy", lookup(t, p, deps.PyPI, "legacy"))
	assert.Equal(t, "https://github.com/a/tracked/issues", lookup(t, p, deps.PyPI, "tracked"))
	assert.Equal(t, "", lookup(t, p, deps.PyPI, "none"))
}

func TestCratesProvider(t *testing.T) {
	p := &CratesProvider{Registry: fakeCrates{
		"serde": {Repository: "https://github.com/serde-rs/serde"},
		"home":  {HomePage: "https://github.com/owner/home"},
		"docs":  {HomePage: "https://docs.rs/docs"},
	}}
	assert.Equal(t, "https://github.com/serde-rs/serde", lookup(t, p, deps.Cargo, "serde"))
	assert.Equal(t, "https://github.com/owner/home", lookup(t, p, deps.Cargo, "home"))
	assert.Equal(t, "", lookup(t, p, deps.Cargo, "docs"))
}

func TestGoStaticURL(t *testing.T) {
	tests := map[string]string{
		"github.com/stretchr/testify/assert": "https://github.com/stretchr/testify",
		"gitlab.com/group/project":           "https://gitlab.com/group/project",
		"golang.org/x/sync/errgroup":         "https://github.com/golang/sync",
		"gopkg.in/yaml.v3":                   "https://github.com/go-yaml/yaml",
		"gopkg.in/src-d/go-git.v4":           "https://github.com/src-d/go-git",
		"google.golang.org/grpc":             "",
		"github.com/onlyowner":               "",
	}
	for mod, want := range tests {
		assert.Equal(t, want, goStaticURL(mod), mod)
	}
}

func TestGoProvider(t *testing.T) {
	p := &GoProvider{Registry: fakeGo{
		meta: map[string]*goproxy.ImportMeta{
			"google.golang.org/grpc": {Prefix: "google.golang.org/grpc", VCS: "git", RepoURL: "https://github.com/grpc/grpc-go"},
			"example.org/tool":       {Prefix: "example.org/tool", VCS: "git", RepoURL: "https://code.example.org/tool"},
		},
		modules: map[string]*goproxy.ModuleInfo{
			"go.uber.org/zap": {Path: "go.uber.org/zap", OriginURL: "https://github.com/uber-go/zap"},
		},
	}}
	assert.Equal(t, "https://github.com/grpc/grpc-go", lookup(t, p, deps.Go, "google.golang.org/grpc"))
	assert.Equal(t, "https://code.example.org/tool", lookup(t, p, deps.Go, "example.org/tool"))
	assert.Equal(t, "https://github.com/uber-go/zap", lookup(t, p, deps.Go, "go.uber.org/zap"))
	assert.Equal(t, "https://github.com/golang/net", lookup(t, p, deps.Go, "golang.org/x/net/html"))

	_, err := p.Lookup(context.Background(), Request{Name: "unknown.example/mod"}, false)
	assert.Error(t, err)
}

func TestSolidityProvider(t *testing.T) {
	p := &SolidityProvider{NPM: &NPMProvider{Registry: fakeNPM{
		"@openzeppelin/contracts": {Repository: "https://github.com/OpenZeppelin/openzeppelin-contracts"},
	}}}
	assert.Equal(t, "https://github.com/OpenZeppelin/openzeppelin-contracts", lookup(t, p, deps.Solidity, "@openzeppelin/contracts"))
	assert.Equal(t, "https://github.com/transmissions11/solmate", lookup(t, p, deps.Solidity, "transmissions11/solmate"))
	assert.Equal(t, "", lookup(t, p, deps.Solidity, "@openzeppelin/"))
	assert.Equal(t, "", lookup(t, p, deps.Solidity, "@scope"))

	_, err := p.Lookup(context.Background(), Request{Name: "forge-std"}, false)
	assert.True(t, errors.Is(err, integrations.ErrNotFound))
}
