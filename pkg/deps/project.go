package deps

import (
	"io"
	"maps"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/drips-network/gardener/pkg/alias"
	"github.com/drips-network/gardener/pkg/diag"
	"github.com/drips-network/gardener/pkg/errors"
	"github.com/drips-network/gardener/pkg/names"
)

// Options configures a [Project].
type Options struct {
	// Root is the resolved absolute repository root.
	Root string
	// Files are the repository-relative paths of every scanned file,
	// manifests included.
	Files []string
	// Submodules maps submodule paths to their declared URLs.
	Submodules map[string]string

	Names      *names.Resolver
	AliasRules []alias.Rule

	// RemappingHelper is the command line of the Hardhat remapping helper.
	// Empty disables it.
	RemappingHelper []string

	MaxImportsPerFile int
	MaxFileSize       int64

	Logger *log.Logger
	Diags  *diag.Collector
}

// Project is the shared, read-mostly state of one analysis run. Manifests
// are added first; [Project.Finalize] then freezes the declarations and
// builds the lookup indexes. After Finalize the project is safe for
// concurrent reads.
type Project struct {
	Root       string
	Files      alias.Paths
	Submodules map[string]string
	Names      *names.Resolver
	AliasRules []alias.Rule

	RemappingHelper   []string
	MaxImportsPerFile int
	MaxFileSize       int64

	Logger *log.Logger
	Diags  *diag.Collector

	dirs      map[string][]string
	tree      map[string]bool
	manifests []*Manifest
	declared  map[Ecosystem]map[string]*Package
	order     map[Ecosystem][]string
	self      map[Ecosystem]map[string]bool
	index     map[Ecosystem]map[string][]string
	members   map[Ecosystem]map[string]string
	finalized bool
}

// NewProject returns an empty project over the scanned files.
func NewProject(opts Options) *Project {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Names == nil {
		opts.Names = names.New()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 1 << 20
	}
	p := &Project{
		Root:              opts.Root,
		Files:             alias.NewPaths(opts.Files...),
		Submodules:        opts.Submodules,
		Names:             opts.Names,
		AliasRules:        opts.AliasRules,
		RemappingHelper:   opts.RemappingHelper,
		MaxImportsPerFile: opts.MaxImportsPerFile,
		MaxFileSize:       opts.MaxFileSize,
		Logger:            opts.Logger,
		Diags:             opts.Diags,
		dirs:              make(map[string][]string),
		tree:              map[string]bool{".": true},
		declared:          make(map[Ecosystem]map[string]*Package),
		order:             make(map[Ecosystem][]string),
		self:              make(map[Ecosystem]map[string]bool),
		index:             make(map[Ecosystem]map[string][]string),
		members:           make(map[Ecosystem]map[string]string),
	}
	if p.Submodules == nil {
		p.Submodules = map[string]string{}
	}
	for _, f := range opts.Files {
		d := path.Dir(f)
		p.dirs[d] = append(p.dirs[d], f)
		for ; d != "." && !p.tree[d]; d = path.Dir(d) {
			p.tree[d] = true
		}
	}
	for d := range p.dirs {
		slices.Sort(p.dirs[d])
	}
	return p
}

// Has reports whether rel is a scanned file.
func (p *Project) Has(rel string) bool { return p.Files.Has(rel) }

// DirFiles returns the sorted scanned files directly inside dir.
func (p *Project) DirFiles(dir string) []string {
	if dir == "" {
		dir = "."
	}
	return p.dirs[dir]
}

// HasDir reports whether some scanned file lies under dir.
func (p *Project) HasDir(dir string) bool { return p.tree[path.Clean(dir)] }

// NewFacts returns an empty fact set for file using the project's import
// ceiling.
func (p *Project) NewFacts(file string, eco Ecosystem) *Facts {
	return NewFacts(file, eco, p.MaxImportsPerFile)
}

// ReadFile reads a repository file that may not have been scanned, such as
// a tsconfig.json or remappings.txt. Paths leaving the root are refused.
func (p *Project) ReadFile(rel string) ([]byte, error) {
	if err := errors.ValidateRelPath(rel, errors.DefaultMaxPathLength); err != nil {
		return nil, err
	}
	abs, err := filepath.EvalSymlinks(filepath.Join(p.Root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "%s", rel)
	}
	if r, err := filepath.Rel(p.Root, abs); err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s resolves outside the repository", rel)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "%s", rel)
	}
	if info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is a directory", rel)
	}
	if info.Size() > p.MaxFileSize {
		return nil, errors.New(errors.ErrCodeResourceLimit, "%s exceeds %d bytes", rel, p.MaxFileSize)
	}
	return os.ReadFile(abs)
}

// AddManifest records a parsed manifest. Packages already declared by an
// earlier manifest are merged with [MergeVersions]; conflicting versions
// produce a diagnostic.
func (p *Project) AddManifest(m *Manifest) {
	if m == nil || p.finalized {
		return
	}
	p.manifests = append(p.manifests, m)
	for i := range m.Packages {
		pkg := m.Packages[i]
		if pkg.Ecosystem == "" {
			pkg.Ecosystem = m.Ecosystem
		}
		p.declare(m.Path, pkg)
	}
}

func (p *Project) declare(source string, pkg Package) {
	eco := pkg.Ecosystem
	if p.declared[eco] == nil {
		p.declared[eco] = make(map[string]*Package)
	}
	key := nameKey(eco, pkg.Name)
	cur, ok := p.declared[eco][key]
	if !ok {
		cp := pkg
		cp.ImportNames = slices.Clone(pkg.ImportNames)
		p.declared[eco][key] = &cp
		p.order[eco] = append(p.order[eco], key)
		return
	}
	kept, conflict := MergeVersions(cur.Version, pkg.Version)
	if conflict {
		p.Diags.Add(diag.Diagnostic{
			Kind:      diag.VersionConflict,
			Path:      source,
			Ecosystem: string(eco),
			Package:   cur.Name,
			Message:   "declared as " + cur.Version + " and " + pkg.Version + ", keeping " + kept,
		})
	}
	cur.Version = kept
	for _, n := range pkg.ImportNames {
		if !slices.Contains(cur.ImportNames, n) {
			cur.ImportNames = append(cur.ImportNames, n)
		}
	}
	if cur.SourceURL == "" {
		cur.SourceURL = pkg.SourceURL
	}
}

// UpdatePackage applies fn to a declared package. It is meant for handlers
// annotating packages during Prepare.
func (p *Project) UpdatePackage(eco Ecosystem, name string, fn func(*Package)) bool {
	pkg, ok := p.declared[eco][nameKey(eco, name)]
	if ok {
		fn(pkg)
	}
	return ok
}

// Finalize computes workspace members, self packages and the import-name
// index. It is idempotent.
func (p *Project) Finalize() {
	if p.finalized {
		return
	}
	p.finalized = true
	slices.SortFunc(p.manifests, func(a, b *Manifest) int { return strings.Compare(a.Path, b.Path) })

	for _, m := range p.manifests {
		if m.Name == "" {
			continue
		}
		if m.IsRoot() {
			p.markSelf(m.Ecosystem, m.Name)
			continue
		}
		if p.members[m.Ecosystem] == nil {
			p.members[m.Ecosystem] = make(map[string]string)
		}
		for _, n := range append([]string{m.Name}, p.Names.ImportNames(string(m.Ecosystem), m.Name)...) {
			if _, dup := p.members[m.Ecosystem][n]; !dup {
				p.members[m.Ecosystem][n] = m.Path
			}
		}
	}

	for eco, keys := range p.order {
		for _, key := range keys {
			pkg := p.declared[eco][key]
			if _, ok := p.memberPath(eco, pkg.Name); ok {
				delete(p.declared[eco], key)
				continue
			}
			if strings.HasPrefix(pkg.Version, "workspace:") {
				p.markSelf(eco, pkg.Name)
			}
		}
	}
	for eco, set := range p.self {
		for name := range set {
			if _, ok := p.declared[eco][nameKey(eco, name)]; !ok {
				p.declare("", Package{Name: name, Ecosystem: eco})
			}
		}
	}

	for eco, pkgs := range p.declared {
		idx := make(map[string][]string)
		for _, pkg := range pkgs {
			importNames := append(p.Names.ImportNames(string(eco), pkg.Name), pkg.ImportNames...)
			for _, n := range importNames {
				if !slices.Contains(idx[n], pkg.Name) {
					idx[n] = append(idx[n], pkg.Name)
				}
			}
		}
		for n := range idx {
			slices.Sort(idx[n])
		}
		p.index[eco] = idx
	}
}

func (p *Project) markSelf(eco Ecosystem, name string) {
	if p.self[eco] == nil {
		p.self[eco] = make(map[string]bool)
	}
	p.self[eco][name] = true
}

// Manifests returns every added manifest, sorted by path after Finalize.
func (p *Project) Manifests() []*Manifest { return p.manifests }

// ManifestsOf returns the manifests of one ecosystem.
func (p *Project) ManifestsOf(eco Ecosystem) []*Manifest {
	var out []*Manifest
	for _, m := range p.manifests {
		if m.Ecosystem == eco {
			out = append(out, m)
		}
	}
	return out
}

// Declared returns the declared packages of eco sorted by name. Workspace
// members are not included; self packages are.
func (p *Project) Declared(eco Ecosystem) []Package {
	out := make([]Package, 0, len(p.declared[eco]))
	for _, pkg := range p.declared[eco] {
		out = append(out, *pkg)
	}
	slices.SortFunc(out, func(a, b Package) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Package returns the declared package with the given distribution name.
func (p *Project) Package(eco Ecosystem, name string) (Package, bool) {
	pkg, ok := p.declared[eco][nameKey(eco, name)]
	if !ok {
		return Package{}, false
	}
	return *pkg, true
}

// IsDeclared reports whether a distribution is declared in eco.
func (p *Project) IsDeclared(eco Ecosystem, name string) bool {
	_, ok := p.declared[eco][nameKey(eco, name)]
	return ok
}

// IsSelf reports whether name is the repository's own package.
func (p *Project) IsSelf(eco Ecosystem, name string) bool { return p.self[eco][name] }

// Self returns the sorted self package names of eco.
func (p *Project) Self(eco Ecosystem) []string {
	return slices.Sorted(maps.Keys(p.self[eco]))
}

// MemberManifest returns the manifest of the workspace member published as
// name.
func (p *Project) MemberManifest(eco Ecosystem, name string) (string, bool) {
	return p.memberPath(eco, name)
}

func (p *Project) memberPath(eco Ecosystem, name string) (string, bool) {
	set := p.members[eco]
	if set == nil {
		return "", false
	}
	if mp, ok := set[name]; ok {
		return mp, true
	}
	key := nameKey(eco, name)
	for _, n := range slices.Sorted(maps.Keys(set)) {
		if nameKey(eco, n) == key {
			return set[n], true
		}
	}
	return "", false
}

// TargetKind classifies the result of [Project.Resolve].
type TargetKind int

const (
	TargetPackage TargetKind = iota + 1
	TargetMember
)

// Target is what an external import name refers to.
type Target struct {
	Kind      TargetKind
	Ecosystem Ecosystem
	// Name is the distribution name for packages.
	Name string
	// Manifest is the member's manifest path.
	Manifest string
	// Ambiguous is set when several packages claim the import name; Name is
	// then the lexicographically smallest of Candidates.
	Ambiguous  bool
	Candidates []string
}

var fallbackEcosystems = map[Ecosystem][]Ecosystem{
	Solidity: {NPM},
}

// Resolve maps an import name to a workspace member or declared package.
// Exact names are tried before "/"-separated prefixes, longest first. npm
// scoped names fall back to the scope's "core" package, and Solidity
// imports fall back to npm declarations.
func (p *Project) Resolve(eco Ecosystem, name string) (Target, bool) {
	for _, e := range append([]Ecosystem{eco}, fallbackEcosystems[eco]...) {
		if t, ok := p.resolveIn(e, name); ok {
			return t, true
		}
	}
	return Target{}, false
}

func (p *Project) resolveIn(eco Ecosystem, name string) (Target, bool) {
	for _, cand := range prefixes(name) {
		if mp, ok := p.members[eco][cand]; ok {
			return Target{Kind: TargetMember, Ecosystem: eco, Name: cand, Manifest: mp}, true
		}
		if dists := p.index[eco][cand]; len(dists) > 0 {
			return packageTarget(eco, dists), true
		}
	}
	if eco == NPM && strings.HasPrefix(name, "@") {
		if i := strings.Index(name, "/"); i > 0 {
			if dists := p.index[eco][name[:i]+"/core"]; len(dists) > 0 {
				return packageTarget(eco, dists), true
			}
		}
	}
	return Target{}, false
}

func packageTarget(eco Ecosystem, dists []string) Target {
	return Target{
		Kind:       TargetPackage,
		Ecosystem:  eco,
		Name:       dists[0],
		Ambiguous:  len(dists) > 1,
		Candidates: slices.Clone(dists),
	}
}

// prefixes returns name followed by its "/"-separated prefixes, longest
// first.
func prefixes(name string) []string {
	out := []string{name}
	for n := name; ; {
		i := strings.LastIndex(n, "/")
		if i <= 0 {
			break
		}
		n = n[:i]
		out = append(out, n)
	}
	return out
}

var pep503 = regexp.MustCompile(`[-_.]+`)

// nameKey normalizes a distribution name for duplicate detection.
func nameKey(eco Ecosystem, name string) string {
	switch eco {
	case PyPI:
		return pep503.ReplaceAllString(strings.ToLower(name), "-")
	case Cargo:
		return strings.ReplaceAll(name, "_", "-")
	}
	return name
}
