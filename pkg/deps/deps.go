package deps

import (
	"context"
	"path"
)

// Ecosystem identifies a package-management environment.
type Ecosystem string

const (
	NPM      Ecosystem = "npm"
	PyPI     Ecosystem = "pypi"
	Go       Ecosystem = "go"
	Cargo    Ecosystem = "cargo"
	Solidity Ecosystem = "solidity"
)

// Ecosystems lists the supported ecosystems in a fixed order.
func Ecosystems() []Ecosystem {
	return []Ecosystem{NPM, PyPI, Go, Cargo, Solidity}
}

// Package is one declared dependency.
type Package struct {
	Name      string
	Version   string
	Ecosystem Ecosystem

	// ImportNames are names introduced by the manifest itself, in addition
	// to those the distribution-name resolver derives from Name.
	ImportNames []string

	// SourceURL is a repository URL declared next to the dependency, such
	// as a Foundry git source.
	SourceURL string

	// SubmodulePath and SubmoduleURL associate the package with a vendored
	// git submodule.
	SubmodulePath string
	SubmoduleURL  string
}

// Manifest is the parsed form of one manifest file.
type Manifest struct {
	Path      string // repository-relative
	Ecosystem Ecosystem

	// Name is the manifest's own package name, if it declares one.
	Name string

	Packages []Package
}

// Dir returns the directory holding the manifest, "." for the root.
func (m *Manifest) Dir() string { return path.Dir(m.Path) }

// IsRoot reports whether the manifest sits at the repository root.
func (m *Manifest) IsRoot() bool { return m.Dir() == "." }

// Handler parses manifests and source files of one ecosystem.
type Handler interface {
	// Ecosystem returns the ecosystem this handler declares packages for.
	Ecosystem() Ecosystem

	// Extensions maps source file extensions (with the dot) to the language
	// tag reported for those files.
	Extensions() map[string]string

	// ManifestPatterns are path.Match patterns for manifest base names.
	ManifestPatterns() []string

	// ParseManifest parses the manifest at path. A syntactically broken
	// manifest returns an error; partial results may accompany it.
	ParseManifest(path string, data []byte) (*Manifest, error)

	// Prepare reads build configuration once all manifests are known.
	// Failures are recorded as diagnostics; a returned error aborts the run.
	Prepare(ctx context.Context, p *Project) error

	// Extract returns the import facts of one source file.
	Extract(ctx context.Context, p *Project, file string, src []byte) (*Facts, error)

	// Stdlib reports whether an undeclared import name belongs to the
	// language's standard library.
	Stdlib(name string) bool
}

// MatchManifest reports whether base matches one of h's manifest patterns.
func MatchManifest(h Handler, base string) bool {
	for _, p := range h.ManifestPatterns() {
		if ok, _ := path.Match(p, base); ok {
			return true
		}
	}
	return false
}
