// Package diag records the soft failures of an analysis run.
//
// Nothing that goes wrong with a single file, manifest or package aborts a
// run. Each such problem becomes a [Diagnostic] in a [Collector], and the
// collector's sorted contents are returned alongside the graph and the
// ranked list.
package diag

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Kind classifies a diagnostic.
type Kind string

const (
	SkippedFile       Kind = "skipped_file"
	SymlinkSkipped    Kind = "symlink_skipped"
	PathRejected      Kind = "path_rejected"
	ParseError        Kind = "parse_error"
	Timeout           Kind = "timeout"
	InvalidManifest   Kind = "invalid_manifest"
	VersionConflict   Kind = "version_conflict"
	ImportLimit       Kind = "import_limit"
	ResourceLimit     Kind = "resource_limit"
	UndeclaredImport  Kind = "undeclared_import"
	AmbiguousImport   Kind = "ambiguous_import"
	UnresolvedPackage Kind = "unresolved_package"
	HelperUnavailable Kind = "helper_unavailable"
	MetricFallback    Kind = "metric_fallback"
	ArtifactError     Kind = "artifact_error"
)

// Diagnostic is one recorded problem.
type Diagnostic struct {
	Kind      Kind   `json:"kind"`
	Path      string `json:"path,omitempty"`
	Ecosystem string `json:"ecosystem,omitempty"`
	Package   string `json:"package,omitempty"`
	Message   string `json:"message"`
}

func (d Diagnostic) String() string {
	subject := d.Path
	if d.Package != "" {
		subject = d.Package
		if d.Ecosystem != "" {
			subject = d.Ecosystem + ":" + d.Package
		}
	}
	if subject == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Kind, subject, d.Message)
}

// Collector accumulates diagnostics from concurrent workers. A nil
// *Collector discards everything.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records d.
func (c *Collector) Add(d Diagnostic) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Addf records a diagnostic about a path.
func (c *Collector) Addf(kind Kind, path, format string, args ...any) {
	c.Add(Diagnostic{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)})
}

// AddPackage records a diagnostic about a package.
func (c *Collector) AddPackage(kind Kind, ecosystem, pkg, format string, args ...any) {
	c.Add(Diagnostic{Kind: kind, Ecosystem: ecosystem, Package: pkg, Message: fmt.Sprintf(format, args...)})
}

// Merge appends every diagnostic in ds.
func (c *Collector) Merge(ds []Diagnostic) {
	if c == nil || len(ds) == 0 {
		return
	}
	c.mu.Lock()
	c.items = append(c.items, ds...)
	c.mu.Unlock()
}

// Len returns the number of recorded diagnostics, duplicates included.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Count returns how many distinct diagnostics of kind were recorded.
func (c *Collector) Count(kind Kind) int {
	n := 0
	for _, d := range c.Sorted() {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Sorted returns the distinct diagnostics ordered by kind, path, ecosystem,
// package and message. The order does not depend on the order of Add calls.
func (c *Collector) Sorted() []Diagnostic {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	out := slices.Clone(c.items)
	c.mu.Unlock()
	slices.SortFunc(out, compare)
	return slices.Compact(out)
}

func compare(a, b Diagnostic) int {
	return cmp.Or(
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Path, b.Path),
		cmp.Compare(a.Ecosystem, b.Ecosystem),
		cmp.Compare(a.Package, b.Package),
		cmp.Compare(a.Message, b.Message),
	)
}

// Summary counts diagnostics per kind.
func Summary(ds []Diagnostic) map[Kind]int {
	out := make(map[Kind]int)
	for _, d := range ds {
		out[d.Kind]++
	}
	return out
}
