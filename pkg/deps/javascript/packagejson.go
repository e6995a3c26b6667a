package javascript

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/errors"
)

type packageFile struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	BundleDependencies   json.RawMessage   `json:"bundleDependencies"`
	BundledDependencies  json.RawMessage   `json:"bundledDependencies"`
	PNPM                 struct {
		Overrides           map[string]string `json:"overrides"`
		PatchedDependencies map[string]string `json:"patchedDependencies"`
	} `json:"pnpm"`
}

// ParsePackageJSON parses a package.json file. Invalid JSON yields the
// packages recovered by a lenient scan together with an INVALID_MANIFEST
// error.
func ParsePackageJSON(path string, data []byte) (*deps.Manifest, error) {
	m := &deps.Manifest{Path: path, Ecosystem: deps.NPM}

	var pkg packageFile
	if err := json.Unmarshal(data, &pkg); err != nil {
		m.Packages = lenientDependencies(data)
		return m, errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s", path)
	}
	m.Name = pkg.Name

	seen := make(map[string]bool)
	add := func(name, version string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		m.Packages = append(m.Packages, deps.Package{Name: name, Version: strings.TrimSpace(version), Ecosystem: deps.NPM})
	}
	addAll := func(set map[string]string) {
		for _, name := range sortedKeys(set) {
			add(name, set[name])
		}
	}

	addAll(pkg.Dependencies)
	addAll(pkg.DevDependencies)
	addAll(pkg.PeerDependencies)
	addAll(pkg.OptionalDependencies)
	for _, raw := range []json.RawMessage{pkg.BundleDependencies, pkg.BundledDependencies} {
		var names []string
		if json.Unmarshal(raw, &names) == nil {
			for _, n := range names {
				add(n, "")
			}
		}
	}
	for _, key := range sortedKeys(pkg.PNPM.Overrides) {
		add(overrideTarget(key), pkg.PNPM.Overrides[key])
	}
	for _, key := range sortedKeys(pkg.PNPM.PatchedDependencies) {
		name, version := splitVersioned(key)
		add(name, version)
	}
	return m, nil
}

// overrideTarget returns the package a pnpm override key applies to, e.g.
// "foo@1>bar@^2" -> "bar".
func overrideTarget(key string) string {
	if i := strings.LastIndex(key, ">"); i >= 0 {
		key = key[i+1:]
	}
	name, _ := splitVersioned(key)
	return name
}

// splitVersioned splits "name@version", keeping a scope's leading "@".
func splitVersioned(s string) (name, version string) {
	if i := strings.LastIndex(s, "@"); i > 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

var (
	sectionPattern = regexp.MustCompile(`"(dependencies|devDependencies|peerDependencies|optionalDependencies)"\s*:\s*\{([^}]*)\}?`)
	entryPattern   = regexp.MustCompile(`"([^"\s]+)"\s*:\s*"([^"]*)"`)
)

// lenientDependencies recovers "name": "version" pairs from the dependency
// sections of a broken package.json.
func lenientDependencies(data []byte) []deps.Package {
	var out []deps.Package
	seen := make(map[string]bool)
	for _, section := range sectionPattern.FindAllSubmatch(data, -1) {
		for _, e := range entryPattern.FindAllSubmatch(section[2], -1) {
			name := string(e[1])
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, deps.Package{Name: name, Version: string(e[2]), Ecosystem: deps.NPM})
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
