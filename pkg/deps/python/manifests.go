package python

import (
	"bytes"
	"encoding/json"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-ini/ini"
	"gopkg.in/yaml.v3"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/errors"
)

// manifestPatterns are the Python manifest base names.
var manifestPatterns = []string{
	"requirements*.txt",
	"*-requirements.txt",
	"pyproject.toml",
	"setup.py",
	"setup.cfg",
	"Pipfile",
	"Pipfile.lock",
	"poetry.lock",
	"environment.yml",
	"environment.yaml",
}

// ParseManifest dispatches on the manifest's base name.
func ParseManifest(p string, data []byte) (*deps.Manifest, error) {
	m := &deps.Manifest{Path: p, Ecosystem: deps.PyPI}
	var (
		pkgs []deps.Package
		err  error
	)
	switch base := path.Base(p); {
	case base == "pyproject.toml":
		m.Name, pkgs, err = parsePyproject(data)
	case base == "setup.py":
		m.Name, pkgs = parseSetupPy(data)
	case base == "setup.cfg":
		m.Name, pkgs, err = parseSetupCfg(data)
	case base == "Pipfile":
		pkgs, err = parsePipfile(data)
	case base == "Pipfile.lock":
		pkgs, err = parsePipfileLock(data)
	case base == "poetry.lock":
		pkgs, err = parsePoetryLock(data)
	case strings.HasPrefix(base, "environment."):
		pkgs, err = parseEnvironment(data)
	default:
		pkgs = parseRequirements(data)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s", p)
	}
	m.Packages = dedupe(pkgs)
	return m, nil
}

// dedupe drops repeated and excluded names, keeping the first declaration.
func dedupe(pkgs []deps.Package) []deps.Package {
	seen := make(map[string]bool, len(pkgs))
	out := pkgs[:0]
	for _, p := range pkgs {
		key := normalize(p.Name)
		if key == "" || key == "python" || key == "pip" || seen[key] {
			continue
		}
		seen[key] = true
		p.Ecosystem = deps.PyPI
		out = append(out, p)
	}
	return out
}

var pep503 = regexp.MustCompile(`[-_.]+`)

func normalize(name string) string {
	return pep503.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

func fromRequirements(reqs []string) []deps.Package {
	var out []deps.Package
	for _, r := range reqs {
		if name, version, ok := ParseRequirement(r); ok {
			out = append(out, deps.Package{Name: name, Version: version})
		}
	}
	return out
}

// fromTable converts Poetry and Pipenv dependency tables, whose values are
// either a version string or a table with a "version" key.
func fromTable(table map[string]any) []deps.Package {
	var out []deps.Package
	for _, name := range sortedKeys(table) {
		version := ""
		switch v := table[name].(type) {
		case string:
			version = v
		case map[string]any:
			version, _ = v["version"].(string)
		}
		out = append(out, deps.Package{Name: name, Version: version})
	}
	return out
}

type pyproject struct {
	Project struct {
		Name                 string              `toml:"name"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	DependencyGroups map[string][]any `toml:"dependency-groups"`
	Tool             struct {
		Poetry struct {
			Name            string         `toml:"name"`
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func parsePyproject(data []byte) (string, []deps.Package, error) {
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return "", nil, err
	}
	pkgs := fromRequirements(doc.Project.Dependencies)
	for _, group := range sortedKeys(doc.Project.OptionalDependencies) {
		pkgs = append(pkgs, fromRequirements(doc.Project.OptionalDependencies[group])...)
	}
	for _, group := range sortedKeys(doc.DependencyGroups) {
		for _, item := range doc.DependencyGroups[group] {
			if s, ok := item.(string); ok {
				pkgs = append(pkgs, fromRequirements([]string{s})...)
			}
		}
	}
	poetry := doc.Tool.Poetry
	pkgs = append(pkgs, fromTable(poetry.Dependencies)...)
	pkgs = append(pkgs, fromTable(poetry.DevDependencies)...)
	for _, group := range sortedKeys(poetry.Group) {
		pkgs = append(pkgs, fromTable(poetry.Group[group].Dependencies)...)
	}

	name := doc.Project.Name
	if name == "" {
		name = poetry.Name
	}
	return name, pkgs, nil
}

var (
	setupNameRE  = regexp.MustCompile(`\bname\s*=\s*['"]([^'"]+)['"]`)
	setupListRE  = regexp.MustCompile(`(?s)\b(?:install_requires|setup_requires|tests_require)\s*=\s*\[(.*?)\]`)
	setupExtraRE = regexp.MustCompile(`(?s)\bextras_require\s*=\s*\{(.*?)\}`)
	quotedRE     = regexp.MustCompile(`['"]([^'"]+)['"]`)
	bracketRE    = regexp.MustCompile(`(?s)\[(.*?)\]`)
)

// parseSetupPy extracts literal requirement lists from a setup.py. Computed
// values are not evaluated.
func parseSetupPy(data []byte) (string, []deps.Package) {
	var name string
	if m := setupNameRE.FindSubmatch(data); m != nil {
		name = string(m[1])
	}
	var reqs []string
	for _, m := range setupListRE.FindAllSubmatch(data, -1) {
		for _, q := range quotedRE.FindAllSubmatch(m[1], -1) {
			reqs = append(reqs, string(q[1]))
		}
	}
	for _, m := range setupExtraRE.FindAllSubmatch(data, -1) {
		for _, list := range bracketRE.FindAllSubmatch(m[1], -1) {
			for _, q := range quotedRE.FindAllSubmatch(list[1], -1) {
				reqs = append(reqs, string(q[1]))
			}
		}
	}
	return name, fromRequirements(reqs)
}

func parseSetupCfg(data []byte) (string, []deps.Package, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:        true,
		AllowPythonMultilineValues: true,
	}, data)
	if err != nil {
		return "", nil, err
	}
	name := cfg.Section("metadata").Key("name").String()
	var reqs []string
	for _, key := range []string{"install_requires", "setup_requires", "tests_require"} {
		reqs = append(reqs, lines(cfg.Section("options").Key(key).String())...)
	}
	if extras, err := cfg.GetSection("options.extras_require"); err == nil {
		for _, k := range extras.Keys() {
			reqs = append(reqs, lines(k.String())...)
		}
	}
	return name, fromRequirements(reqs), nil
}

func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" && !strings.HasPrefix(l, "#") {
			out = append(out, l)
		}
	}
	return out
}

func parsePipfile(data []byte) ([]deps.Package, error) {
	var doc struct {
		Packages    map[string]any `toml:"packages"`
		DevPackages map[string]any `toml:"dev-packages"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return append(fromTable(doc.Packages), fromTable(doc.DevPackages)...), nil
}

func parsePipfileLock(data []byte) ([]deps.Package, error) {
	var doc struct {
		Default map[string]struct {
			Version string `json:"version"`
		} `json:"default"`
		Develop map[string]struct {
			Version string `json:"version"`
		} `json:"develop"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var out []deps.Package
	for _, section := range []map[string]struct {
		Version string `json:"version"`
	}{doc.Default, doc.Develop} {
		for _, name := range sortedKeys(section) {
			out = append(out, deps.Package{Name: name, Version: section[name].Version})
		}
	}
	return out, nil
}

func parsePoetryLock(data []byte) ([]deps.Package, error) {
	var lock struct {
		Packages []struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, err
	}
	out := make([]deps.Package, 0, len(lock.Packages))
	for _, p := range lock.Packages {
		out = append(out, deps.Package{Name: p.Name, Version: "==" + p.Version})
	}
	return out, nil
}

var condaSpecRE = regexp.MustCompile(`^(?:[\w.-]+::)?([A-Za-z0-9][A-Za-z0-9._-]*)\s*(.*)$`)

// parseEnvironment reads a conda environment file. Conda entries use
// "name=version" or "channel::name"; pip entries are PEP 508.
func parseEnvironment(data []byte) ([]deps.Package, error) {
	var doc struct {
		Dependencies []yaml.Node `yaml:"dependencies"`
	}
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, err
	}
	var out []deps.Package
	for _, n := range doc.Dependencies {
		switch n.Kind {
		case yaml.ScalarNode:
			m := condaSpecRE.FindStringSubmatch(strings.TrimSpace(n.Value))
			if m == nil {
				continue
			}
			version := strings.TrimSpace(m[2])
			if strings.HasPrefix(version, "=") && !strings.HasPrefix(version, "==") {
				version = "=" + version
			}
			out = append(out, deps.Package{Name: m[1], Version: version})
		case yaml.MappingNode:
			var section map[string][]string
			if err := n.Decode(&section); err == nil {
				out = append(out, fromRequirements(section["pip"])...)
			}
		}
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
