package urls

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/integrations/crates"
	"github.com/drips-network/gardener/pkg/integrations/goproxy"
	"github.com/drips-network/gardener/pkg/integrations/npm"
	"github.com/drips-network/gardener/pkg/integrations/pypi"
)

// Provider looks up the raw repository URL of one ecosystem's package. An
// empty result with a nil error means the registry knows the package but
// declares no usable repository.
type Provider interface {
	Lookup(ctx context.Context, req Request, refresh bool) (string, error)
}

// ProviderFunc adapts a function to [Provider].
type ProviderFunc func(ctx context.Context, req Request, refresh bool) (string, error)

func (f ProviderFunc) Lookup(ctx context.Context, req Request, refresh bool) (string, error) {
	return f(ctx, req, refresh)
}

// Registry clients, narrowed to what the providers call.
type (
	NPMRegistry interface {
		FetchPackage(ctx context.Context, pkg string, refresh bool) (*npm.PackageInfo, error)
	}
	PyPIRegistry interface {
		FetchPackage(ctx context.Context, pkg string, refresh bool) (*pypi.PackageInfo, error)
	}
	CratesRegistry interface {
		FetchCrate(ctx context.Context, crate string, refresh bool) (*crates.CrateInfo, error)
	}
	GoRegistry interface {
		FetchModule(ctx context.Context, mod string, refresh bool) (*goproxy.ModuleInfo, error)
		FetchImportMeta(ctx context.Context, path string, refresh bool) (*goproxy.ImportMeta, error)
	}
)

const definitelyTyped = "https://github.com/DefinitelyTyped/DefinitelyTyped"

// NPMProvider resolves npm packages from registry.npmjs.org metadata:
// repository, then a forge homepage, then a forge bugs URL. @types/*
// packages all live in DefinitelyTyped.
type NPMProvider struct {
	Registry NPMRegistry
}

func (p *NPMProvider) Lookup(ctx context.Context, req Request, refresh bool) (string, error) {
	if strings.HasPrefix(req.Name, "@types/") {
		return definitelyTyped, nil
	}
	info, err := p.Registry.FetchPackage(ctx, req.Name, refresh)
	if err != nil {
		return "", err
	}
	if _, ok := Parse(info.Repository); ok {
		return info.Repository, nil
	}
	return firstForge(info.HomePage, info.BugsURL), nil
}

// pypiRepoLabels are project_urls labels that name the code repository,
// compared case-insensitively.
var pypiRepoLabels = []string{"repository", "source", "source code", "code", "github", "repo", "code repository", "vcs"}

var pypiHomeLabels = []string{"homepage", "home", "home page"}

// PyPIProvider resolves Python distributions from pypi.org project_urls,
// falling back to a forge home_page and then any forge-hosted project URL.
type PyPIProvider struct {
	Registry PyPIRegistry
}

func (p *PyPIProvider) Lookup(ctx context.Context, req Request, refresh bool) (string, error) {
	info, err := p.Registry.FetchPackage(ctx, req.Name, refresh)
	if err != nil {
		return "", err
	}
	labelled := make(map[string]string, len(info.ProjectURLs))
	for k, v := range info.ProjectURLs {
		labelled[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for _, label := range pypiRepoLabels {
		if u, ok := labelled[label]; ok {
			if _, ok := Parse(u); ok {
				return u, nil
			}
		}
	}
	for _, label := range pypiHomeLabels {
		if u := firstForge(labelled[label]); u != "" {
			return u, nil
		}
	}
	if u := firstForge(info.HomePage); u != "" {
		return u, nil
	}
	for _, label := range slices.Sorted(maps.Keys(labelled)) {
		if strings.Contains(labelled[label], "/sponsors/") {
			continue
		}
		if u := firstForge(labelled[label]); u != "" {
			return u, nil
		}
	}
	return "", nil
}

// CratesProvider resolves crates from crates.io: repository, then a forge
// homepage.
type CratesProvider struct {
	Registry CratesRegistry
}

func (p *CratesProvider) Lookup(ctx context.Context, req Request, refresh bool) (string, error) {
	info, err := p.Registry.FetchCrate(ctx, req.Name, refresh)
	if err != nil {
		return "", err
	}
	if _, ok := Parse(info.Repository); ok {
		return info.Repository, nil
	}
	return firstForge(info.HomePage), nil
}

// GoProvider resolves module paths. Forge-hosted paths and the well-known
// redirectors (golang.org/x, gopkg.in) are mapped without network access;
// vanity paths use the go-get meta tag and then the module proxy's origin.
type GoProvider struct {
	Registry GoRegistry
}

func (p *GoProvider) Lookup(ctx context.Context, req Request, refresh bool) (string, error) {
	if u := goStaticURL(req.Name); u != "" {
		return u, nil
	}
	meta, metaErr := p.Registry.FetchImportMeta(ctx, req.Name, refresh)
	if metaErr == nil && meta.RepoURL != "" {
		if u := goStaticURL(strings.TrimPrefix(strings.TrimPrefix(meta.RepoURL, "https://"), "http://")); u != "" {
			return u, nil
		}
		return meta.RepoURL, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mod, err := p.Registry.FetchModule(ctx, req.Name, refresh)
	if err != nil {
		if metaErr != nil {
			return "", fmt.Errorf("%w (go-get: %v)", err, metaErr)
		}
		return "", err
	}
	return mod.OriginURL, nil
}

// goStaticURL maps a module path to its repository without a lookup, or
// returns "".
func goStaticURL(mod string) string {
	segs := strings.Split(strings.TrimSuffix(mod, ".git"), "/")
	switch segs[0] {
	case "github.com", "gitlab.com", "bitbucket.org":
		if len(segs) < 3 {
			return ""
		}
		return "https://" + strings.Join(segs[:3], "/")
	case "golang.org":
		if len(segs) >= 3 && segs[1] == "x" {
			return "https://github.com/golang/" + segs[2]
		}
	case "gopkg.in":
		// gopkg.in/pkg.v1 is github.com/go-pkg/pkg; gopkg.in/user/pkg.v1 is
		// github.com/user/pkg.
		switch {
		case len(segs) == 2:
			name := gopkgName(segs[1])
			return "https://github.com/go-" + name + "/" + name
		case len(segs) >= 3:
			return "https://github.com/" + segs[1] + "/" + gopkgName(segs[2])
		}
	}
	return ""
}

func gopkgName(seg string) string {
	if i := strings.LastIndex(seg, ".v"); i > 0 {
		return seg[:i]
	}
	return seg
}

// SolidityProvider resolves Solidity libraries. npm-style names go through
// the npm registry and owner/repo names map to GitHub. Remapping aliases
// (a trailing "/" or a bare "@scope") have no registry identity.
type SolidityProvider struct {
	NPM *NPMProvider
}

func (p *SolidityProvider) Lookup(ctx context.Context, req Request, refresh bool) (string, error) {
	name := req.Name
	switch {
	case name == "", strings.HasSuffix(name, "/"):
		return "", nil
	case strings.HasPrefix(name, "@"):
		if !strings.Contains(name, "/") {
			return "", nil
		}
	case strings.Count(name, "/") == 1:
		return "https://github.com/" + name, nil
	}
	if p.NPM == nil {
		return "", nil
	}
	return p.NPM.Lookup(ctx, Request{Ecosystem: deps.NPM, Name: name}, refresh)
}

// firstForge returns the first candidate that parses as a GitHub, GitLab or
// Bitbucket repository.
func firstForge(candidates ...string) string {
	for _, c := range candidates {
		if u, ok := Parse(c); ok && u.Forge != Other {
			return c
		}
	}
	return ""
}
