package rust

import (
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/errors"
)

type cargoFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"`
	} `toml:"package"`
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
	Target            map[string]struct {
		Dependencies      map[string]any `toml:"dependencies"`
		DevDependencies   map[string]any `toml:"dev-dependencies"`
		BuildDependencies map[string]any `toml:"build-dependencies"`
	} `toml:"target"`
	Workspace struct {
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"workspace"`
}

// ParseCargoToml parses a Cargo.toml file. Dependency tables of every
// target and the workspace table are included. A renamed dependency
// (package = "...") is declared under its crates.io name and importable
// under its key.
func ParseCargoToml(path string, data []byte) (*deps.Manifest, error) {
	var cargo cargoFile
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s", path)
	}
	m := &deps.Manifest{Path: path, Ecosystem: deps.Cargo, Name: cargo.Package.Name}

	tables := []map[string]any{cargo.Dependencies, cargo.DevDependencies, cargo.BuildDependencies}
	for _, target := range sortedKeys(cargo.Target) {
		t := cargo.Target[target]
		tables = append(tables, t.Dependencies, t.DevDependencies, t.BuildDependencies)
	}
	tables = append(tables, cargo.Workspace.Dependencies)

	index := make(map[string]int)
	for _, table := range tables {
		for _, key := range sortedKeys(table) {
			pkg := dependency(key, table[key])
			if i, ok := index[pkg.Name]; ok {
				for _, n := range pkg.ImportNames {
					if !slices.Contains(m.Packages[i].ImportNames, n) {
						m.Packages[i].ImportNames = append(m.Packages[i].ImportNames, n)
					}
				}
				continue
			}
			index[pkg.Name] = len(m.Packages)
			m.Packages = append(m.Packages, pkg)
		}
	}
	return m, nil
}

func dependency(key string, spec any) deps.Package {
	pkg := deps.Package{Name: key, Ecosystem: deps.Cargo}
	switch v := spec.(type) {
	case string:
		pkg.Version = v
	case map[string]any:
		if s, ok := v["version"].(string); ok {
			pkg.Version = s
		}
		if renamed, ok := v["package"].(string); ok && renamed != "" && renamed != key {
			pkg.Name = renamed
			pkg.ImportNames = []string{strings.ReplaceAll(key, "-", "_")}
		}
		if git, ok := v["git"].(string); ok {
			pkg.SourceURL = git
		}
	}
	return pkg
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
