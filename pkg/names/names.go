// Package names maps package-manager distribution names to the names used
// to import them in source code.
//
// Mappings come from per-ecosystem data tables. The built-in tables are
// embedded YAML; callers may layer their own on top with [Resolver.Merge].
// Names without a table entry go through an ecosystem heuristic, and names
// the heuristic does not change resolve to themselves. Resolution never
// fails.
package names

import (
	"embed"
	"fmt"
	"io"
	"maps"
	"path"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var builtin embed.FS

// Table is the data for one ecosystem.
type Table struct {
	// Imports maps a distribution name to its import names, primary first.
	Imports map[string][]string `yaml:"imports" toml:"imports"`
	// Aliases maps alternative spellings to a canonical distribution name.
	Aliases map[string]string `yaml:"aliases" toml:"aliases"`
}

// Resolver answers name lookups. The zero value is not usable; call [New].
// A Resolver is read-only after construction and safe for concurrent use.
type Resolver struct {
	tables map[string]Table
}

// New returns a resolver loaded with the built-in tables.
func New() *Resolver {
	r := &Resolver{tables: make(map[string]Table)}
	entries, err := builtin.ReadDir("tables")
	if err != nil {
		panic(fmt.Sprintf("names: read embedded tables: %v", err))
	}
	for _, e := range entries {
		f, err := builtin.Open(path.Join("tables", e.Name()))
		if err != nil {
			panic(fmt.Sprintf("names: open %s: %v", e.Name(), err))
		}
		t, err := LoadTable(f)
		f.Close()
		if err != nil {
			panic(fmt.Sprintf("names: %s: %v", e.Name(), err))
		}
		r.Merge(strings.TrimSuffix(e.Name(), path.Ext(e.Name())), t)
	}
	return r
}

// LoadTable decodes a YAML table.
func LoadTable(r io.Reader) (Table, error) {
	var t Table
	if err := yaml.NewDecoder(r).Decode(&t); err != nil && err != io.EOF {
		return Table{}, fmt.Errorf("decode table: %w", err)
	}
	return t, nil
}

// Merge layers t over the table for ecosystem. Entries in t win.
func (r *Resolver) Merge(ecosystem string, t Table) {
	cur := r.tables[ecosystem]
	if cur.Imports == nil {
		cur.Imports = make(map[string][]string)
	}
	if cur.Aliases == nil {
		cur.Aliases = make(map[string]string)
	}
	for k, v := range t.Imports {
		cur.Imports[normalize(ecosystem, k)] = slices.Clone(v)
	}
	for k, v := range t.Aliases {
		cur.Aliases[k] = v
	}
	r.tables[ecosystem] = cur
}

// Resolve returns the primary import name of distribution.
func (r *Resolver) Resolve(ecosystem, distribution string) string {
	return r.ImportNames(ecosystem, distribution)[0]
}

// ImportNames returns every name distribution may be imported as, primary
// first. The result is never empty.
func (r *Resolver) ImportNames(ecosystem, distribution string) []string {
	if t, ok := r.tables[ecosystem]; ok {
		if names, ok := t.Imports[normalize(ecosystem, distribution)]; ok && len(names) > 0 {
			return slices.Clone(names)
		}
	}
	var out []string
	switch ecosystem {
	case "pypi":
		out = dedupe(pythonCandidates(distribution))
	case "cargo":
		out = dedupe([]string{strings.ReplaceAll(distribution, "-", "_"), distribution})
	}
	if len(out) == 0 {
		return []string{distribution}
	}
	return out
}

// Canonical returns the canonical distribution for an alternative spelling,
// or name itself. Besides exact matches, a name containing a dashed alias
// (such as "lib/openzeppelin-contracts") maps to that alias's target; the
// longest such alias wins.
func (r *Resolver) Canonical(ecosystem, name string) string {
	t, ok := r.tables[ecosystem]
	if !ok {
		return name
	}
	if c, ok := t.Aliases[name]; ok {
		return c
	}
	best := ""
	for _, alias := range slices.Sorted(maps.Keys(t.Aliases)) {
		if strings.Contains(alias, "-") && strings.Contains(name, alias) && len(alias) > len(best) {
			best = alias
		}
	}
	if best != "" {
		return t.Aliases[best]
	}
	return name
}

var pep503 = regexp.MustCompile(`[-_.]+`)

func normalize(ecosystem, name string) string {
	if ecosystem == "pypi" {
		return pep503.ReplaceAllString(strings.ToLower(name), "-")
	}
	return name
}

// pythonCandidates guesses import names from a PyPI distribution name.
func pythonCandidates(dist string) []string {
	name := strings.ToLower(dist)
	out := []string{strings.NewReplacer("-", "_", ".", "_").Replace(name)}
	if base, ok := strings.CutPrefix(name, "python-"); ok {
		out = append(out, strings.ReplaceAll(base, "-", "_"))
		if core, ok := strings.CutSuffix(base, "-bot"); ok {
			out = append(out, core)
		}
		return out
	}
	if parts := strings.Split(name, "-"); len(parts) >= 2 {
		out = append(out, parts[0])
		if len(parts) > 2 {
			out = append(out, strings.Join(parts[1:], "_"))
		}
	}
	return out
}

func dedupe(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
