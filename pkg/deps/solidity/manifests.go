package solidity

import (
	"net/url"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/errors"
	"github.com/drips-network/gardener/pkg/names"
)

var builtinNames = sync.OnceValue(names.New)

type foundryProfile struct {
	Src        string   `toml:"src"`
	Remappings []string `toml:"remappings"`
}

type foundryFile struct {
	Profile      map[string]foundryProfile `toml:"profile"`
	Dependencies map[string]any            `toml:"dependencies"`
}

func decodeFoundry(p string, data []byte) (*foundryFile, error) {
	var f foundryFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s", p)
	}
	return &f, nil
}

// ParseFoundryToml parses the [dependencies] table of foundry.toml and the
// library remappings of its default profile. A dependency fetched from git
// keeps its repository as the source URL; the repository name becomes an
// extra import name.
func ParseFoundryToml(p string, data []byte) (*deps.Manifest, error) {
	f, err := decodeFoundry(p, data)
	if err != nil {
		return nil, err
	}
	m := &deps.Manifest{Path: p, Ecosystem: deps.Solidity}
	for _, key := range sortedKeys(f.Dependencies) {
		m.Packages = appendPackage(m.Packages, foundryDependency(key, f.Dependencies[key]))
	}
	for _, r := range parseRemappingLines(f.Profile["default"].Remappings, path.Dir(p)) {
		if pkg, ok := r.library(); ok {
			m.Packages = appendPackage(m.Packages, pkg)
		}
	}
	return m, nil
}

func foundryDependency(key string, spec any) deps.Package {
	pkg := deps.Package{Name: builtinNames().Canonical(string(deps.Solidity), key), Ecosystem: deps.Solidity}
	var source string
	switch v := spec.(type) {
	case string:
		pkg.Version = v
	case map[string]any:
		for _, k := range []string{"version", "tag", "rev", "branch"} {
			if s, ok := v[k].(string); ok && s != "" {
				pkg.Version = s
				break
			}
		}
		for _, k := range []string{"git", "url"} {
			if s, ok := v[k].(string); ok && s != "" {
				source = s
				break
			}
		}
	}
	if source == "" {
		return pkg
	}
	pkg.SourceURL = source
	if repo := repoName(source); repo != "" && repo != key {
		pkg.ImportNames = []string{key, repo}
	} else if pkg.Name != key {
		pkg.ImportNames = []string{key}
	}
	return pkg
}

// repoName returns the last path segment of a git source without ".git".
// Archive URLs return "".
func repoName(source string) string {
	s := source
	if u, err := url.Parse(source); err == nil && u.Host != "" {
		s = u.Path
	} else if i := strings.Index(s, ":"); strings.HasPrefix(s, "git@") && i > 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	base := path.Base(s)
	if base == "." || base == "/" || strings.ContainsAny(base, ".") {
		return ""
	}
	return base
}

// ParseRemappingsTxt parses remappings.txt. Remappings whose target lies
// under lib/ or node_modules/ declare a library package.
func ParseRemappingsTxt(p string, data []byte) (*deps.Manifest, error) {
	m := &deps.Manifest{Path: p, Ecosystem: deps.Solidity}
	for _, r := range parseRemappings(string(data), path.Dir(p)) {
		if pkg, ok := r.library(); ok {
			m.Packages = appendPackage(m.Packages, pkg)
		}
	}
	return m, nil
}

func appendPackage(pkgs []deps.Package, pkg deps.Package) []deps.Package {
	for i := range pkgs {
		if pkgs[i].Name != pkg.Name {
			continue
		}
		if pkgs[i].SourceURL == "" {
			pkgs[i].SourceURL = pkg.SourceURL
		}
		for _, n := range pkg.ImportNames {
			if !slices.Contains(pkgs[i].ImportNames, n) {
				pkgs[i].ImportNames = append(pkgs[i].ImportNames, n)
			}
		}
		return pkgs
	}
	return append(pkgs, pkg)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
