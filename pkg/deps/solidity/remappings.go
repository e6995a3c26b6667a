package solidity

import (
	"path"
	"slices"
	"strings"

	"github.com/drips-network/gardener/pkg/deps"
)

// Remapping rewrites import paths starting with Prefix to Target. Target is
// relative to Dir, the directory of the file that declared it.
type Remapping struct {
	Context string
	Prefix  string
	Target  string
	Dir     string
}

// Path returns the repository-relative target directory.
func (r Remapping) Path() string {
	return strings.TrimSuffix(path.Join(r.Dir, r.Target), "/")
}

// Apply rewrites spec when it starts with the remapping's prefix.
func (r Remapping) Apply(spec string) (string, bool) {
	rest, ok := strings.CutPrefix(spec, r.Prefix)
	if !ok {
		return "", false
	}
	return path.Join(r.Dir, r.Target, rest), true
}

// library reports whether r points into lib/ or node_modules/ and returns
// the package it declares.
func (r Remapping) library() (deps.Package, bool) {
	if strings.HasPrefix(r.Prefix, ".") || !r.vendored() {
		return deps.Package{}, false
	}
	name := PackageName(r.Prefix)
	if name == "" {
		return deps.Package{}, false
	}
	return deps.Package{Name: name, Ecosystem: deps.Solidity}, true
}

func (r Remapping) vendored() bool {
	return strings.Contains(r.Target, "node_modules/") || strings.Contains(r.Target, "lib/")
}

var knownLibraries = map[string]bool{
	"forge-std/": true, "openzeppelin-contracts/": true, "solmate/": true,
	"hardhat/":   true, "@openzeppelin/contracts/": true,
}

// libraryLike is the looser test used for submodule association: scoped
// prefixes and well-known library prefixes qualify as well.
func (r Remapping) libraryLike() bool {
	return r.vendored() || strings.HasPrefix(r.Prefix, "@") || knownLibraries[r.Prefix]
}

func parseRemappings(content, dir string) []Remapping {
	return parseRemappingLines(strings.Split(content, "\n"), dir)
}

// parseRemappingLines parses "[context:]prefix=target" lines. Blank lines,
// comments and lines without "=" are skipped.
func parseRemappingLines(lines []string, dir string) []Remapping {
	var out []Remapping
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prefix, target, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		r := Remapping{Prefix: strings.TrimSpace(prefix), Target: strings.TrimSpace(target), Dir: dir}
		if ctx, p, ok := strings.Cut(r.Prefix, ":"); ok {
			r.Context, r.Prefix = ctx, p
		}
		if r.Prefix == "" || r.Target == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// sortRemappings orders remappings by prefix length, longest first, and
// then by prefix.
func sortRemappings(rs []Remapping) {
	slices.SortStableFunc(rs, func(a, b Remapping) int {
		if len(a.Prefix) != len(b.Prefix) {
			return len(b.Prefix) - len(a.Prefix)
		}
		return strings.Compare(a.Prefix, b.Prefix)
	})
}

// PackageName returns the package an import path belongs to: the scope and
// name of "@scope/name/...", the directory after "lib/", or the first path
// segment. Known aliases are canonicalized. Relative paths return "".
func PackageName(spec string) string {
	if spec == "" || strings.HasPrefix(spec, ".") {
		return ""
	}
	parts := strings.Split(strings.TrimSuffix(spec, "/"), "/")
	var name string
	switch {
	case strings.HasPrefix(spec, "@") && len(parts) >= 2:
		name = parts[0] + "/" + parts[1]
	case parts[0] == "lib" && len(parts) > 1:
		name = parts[1]
	default:
		name = parts[0]
	}
	return builtinNames().Canonical(string(deps.Solidity), name)
}
