package golang

import (
	"golang.org/x/mod/modfile"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/errors"
)

// ParseGoMod parses a go.mod file. The module path becomes the manifest
// name; every require directive, indirect ones included, is a package.
func ParseGoMod(path string, data []byte) (*deps.Manifest, error) {
	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s", path)
	}
	m := &deps.Manifest{Path: path, Ecosystem: deps.Go}
	if f.Module != nil {
		m.Name = f.Module.Mod.Path
	}
	seen := make(map[string]bool, len(f.Require))
	for _, r := range f.Require {
		if seen[r.Mod.Path] {
			continue
		}
		seen[r.Mod.Path] = true
		m.Packages = append(m.Packages, deps.Package{
			Name:      r.Mod.Path,
			Version:   r.Mod.Version,
			Ecosystem: deps.Go,
		})
	}
	return m, nil
}
