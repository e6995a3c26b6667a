package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/languages"
	"github.com/drips-network/gardener/pkg/diag"
	"github.com/drips-network/gardener/pkg/graph"
	"github.com/drips-network/gardener/pkg/scan"
)

// assembler turns extraction facts into graph nodes and edges. It runs on a
// single goroutine after every worker has finished.
type assembler struct {
	p      *deps.Project
	set    *languages.Set
	b      *graph.Builder
	diags  *diag.Collector
	logger *log.Logger

	files    map[string]scan.File
	packages map[string]deps.Package // package node ID -> declaration
	reported map[string]bool
}

func newAssembler(p *deps.Project, set *languages.Set, sr *scan.Result, diags *diag.Collector, logger *log.Logger) *assembler {
	a := &assembler{
		p:        p,
		set:      set,
		b:        graph.NewBuilder(),
		diags:    diags,
		logger:   logger,
		files:    make(map[string]scan.File, len(sr.Files)+len(sr.Manifests)),
		packages: make(map[string]deps.Package),
		reported: make(map[string]bool),
	}
	for _, f := range sr.Manifests {
		a.files[f.Path] = f
	}
	for _, f := range sr.Files {
		a.files[f.Path] = f
		a.b.AddFile(f.Path, f.Language, f.Size)
	}
	for _, eco := range deps.Ecosystems() {
		for _, name := range p.Self(eco) {
			a.b.MarkSelf(string(eco), name)
		}
	}
	return a
}

// fileNode returns the node of a repository file, adding it on first use.
// Manifests only become nodes once an edge touches them.
func (a *assembler) fileNode(rel string) string {
	f, ok := a.files[rel]
	if !ok {
		f = scan.File{Path: rel}
	}
	return a.b.AddFile(f.Path, f.Language, f.Size)
}

// packageNode adds the node of a declared package.
func (a *assembler) packageNode(eco deps.Ecosystem, name string) string {
	pkg, ok := a.p.Package(eco, name)
	if !ok {
		pkg = deps.Package{Name: name, Ecosystem: eco}
	}
	id := a.b.AddPackage(string(eco), pkg.Name, pkg.Version, pkg.ImportNames...)
	if a.p.IsSelf(eco, pkg.Name) {
		a.b.MarkSelf(string(eco), pkg.Name)
		return id
	}
	if _, seen := a.packages[id]; !seen {
		a.packages[id] = pkg
	}
	return id
}

// addFacts records one file's facts. Callers pass facts in path order.
func (a *assembler) addFacts(f *deps.Facts) {
	src := a.fileNode(f.File)
	for _, local := range f.Local {
		if local == f.File {
			continue
		}
		a.b.AddEdge(src, a.fileNode(local), graph.ImportsLocal, nil)
	}
	for _, name := range f.Imports {
		if dst, typ, attrs, ok := a.target(f.Ecosystem, f.File, name); ok {
			a.b.AddEdge(src, dst, typ, attrs)
		}
	}
	for _, c := range f.Components {
		t, ok := a.p.Resolve(f.Ecosystem, c.Import)
		if !ok || t.Kind != deps.TargetPackage || a.p.IsSelf(t.Ecosystem, t.Name) {
			continue
		}
		comp := a.b.AddComponent(a.packageNode(t.Ecosystem, t.Name), c.Name)
		if comp == "" {
			continue
		}
		a.b.AddEdge(src, comp, graph.UsesComponent, map[string]string{graph.AttrIdent: c.Name})
	}
}

// target maps one external import of file to a graph node.
func (a *assembler) target(eco deps.Ecosystem, file, name string) (string, graph.EdgeType, map[string]string, bool) {
	attrs := map[string]string{graph.AttrIdent: name}
	t, ok := a.p.Resolve(eco, name)
	if !ok {
		if h := a.set.Find(eco); h != nil && h.Stdlib(name) {
			return a.b.AddStdlib(string(eco), stdlibKey(eco, name)), graph.ImportsPackage, attrs, true
		}
		a.report(diag.UndeclaredImport, eco, name, file, "imported by %s but not declared in any manifest", file)
		return "", "", nil, false
	}
	if t.Kind == deps.TargetMember {
		attrs[graph.AttrWorkspace] = t.Name
		return a.fileNode(t.Manifest), graph.ImportsLocal, attrs, true
	}
	if t.Ambiguous {
		attrs[graph.AttrAmbiguity] = graph.AmbiguityLexical
		if a.report(diag.AmbiguousImport, t.Ecosystem, name, file, "claimed by %s; using %s", strings.Join(t.Candidates, ", "), t.Name) {
			a.logger.Warn("ambiguous import", "ecosystem", t.Ecosystem, "import", name, "candidates", t.Candidates, "chosen", t.Name)
		}
	}
	return a.packageNode(t.Ecosystem, t.Name), graph.ImportsPackage, attrs, true
}

// addWorkspaceEdges links every manifest to the workspace members it
// depends on. Only direct declarations are followed, so dependency cycles
// between members end after one edge each.
func (a *assembler) addWorkspaceEdges() {
	for _, m := range a.p.Manifests() {
		for _, pkg := range m.Packages {
			eco := pkg.Ecosystem
			if eco == "" {
				eco = m.Ecosystem
			}
			mp, ok := a.p.MemberManifest(eco, pkg.Name)
			if !ok || mp == m.Path {
				continue
			}
			a.b.AddEdge(a.fileNode(m.Path), a.fileNode(mp), graph.ImportsLocal, map[string]string{graph.AttrWorkspace: pkg.Name})
		}
	}
}

// report records a per-package diagnostic once per run and reports whether
// it was new.
func (a *assembler) report(kind diag.Kind, eco deps.Ecosystem, name, file, format string, args ...any) bool {
	key := string(kind) + "\x00" + string(eco) + "\x00" + name
	if a.reported[key] {
		return false
	}
	a.reported[key] = true
	a.diags.Add(diag.Diagnostic{
		Kind:      kind,
		Path:      file,
		Ecosystem: string(eco),
		Package:   name,
		Message:   fmt.Sprintf(format, args...),
	})
	return true
}

// external returns the non-self packages referenced by the graph, sorted by
// node ID.
func (a *assembler) external() []string {
	ids := make([]string, 0, len(a.packages))
	for id := range a.packages {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func stdlibKey(eco deps.Ecosystem, name string) string {
	if eco == deps.NPM {
		return strings.TrimPrefix(name, "node:")
	}
	return name
}
