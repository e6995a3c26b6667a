package alias

import (
	"path"
	"strings"
)

// SourceExtensions are tried, in order, after the exact candidate path.
var SourceExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".json"}

// FileSet answers whether a repository-relative path is a scanned file.
type FileSet interface {
	Has(path string) bool
}

// Paths is a FileSet backed by a map.
type Paths map[string]struct{}

// NewPaths returns a set holding paths.
func NewPaths(paths ...string) Paths {
	s := make(Paths, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Has implements FileSet.
func (p Paths) Has(path string) bool {
	_, ok := p[path]
	return ok
}

// Config is the rule set of one resolver. Custom rules must already be in
// precedence order (see [CompileSpecs]).
type Config struct {
	Custom     []Rule
	PathConfig PathConfig
	Presets    []Rule
	// Extensions replaces [SourceExtensions] when non-nil.
	Extensions []string
}

// Candidate is one path a specifier may refer to, before existence checks.
type Candidate struct {
	Path       string
	Origin     Origin
	Extensions []string
}

// Result is the outcome of resolving a specifier.
type Result struct {
	// Path is the matched file. Empty for external specifiers.
	Path string
	// Package is set when a framework preset maps the specifier to a
	// package.
	Package string
	Origin  Origin
}

// Local reports whether the specifier resolved to a repository file.
func (r Result) Local() bool { return r.Path != "" }

// Resolver applies one rule set. It holds no mutable state and is safe for
// concurrent use.
type Resolver struct {
	custom     []Rule
	paths      []Rule
	presets    []Rule
	extensions []string
	files      FileSet
}

// New returns a resolver over files.
func New(cfg Config, files FileSet) *Resolver {
	ext := cfg.Extensions
	if ext == nil {
		ext = SourceExtensions
	}
	if files == nil {
		files = Paths{}
	}
	return &Resolver{
		custom:     cfg.Custom,
		paths:      cfg.PathConfig.Rules(),
		presets:    cfg.Presets,
		extensions: ext,
		files:      files,
	}
}

// Candidates lists, in trial order, every path spec could resolve to when
// imported from fromFile. Package-mapping presets contribute no candidates.
func (r *Resolver) Candidates(spec, fromFile string) []Candidate {
	var out []Candidate
	add := func(rules []Rule) {
		for _, rule := range rules {
			if rule.Package != "" {
				continue
			}
			capture, ok := Match(rule.Pattern, spec)
			if !ok {
				continue
			}
			for _, t := range rule.Targets {
				if p, ok := clean(Substitute(t, capture)); ok {
					out = append(out, Candidate{Path: p, Origin: rule.Origin, Extensions: rule.Extensions})
				}
			}
		}
	}
	add(r.custom)
	add(r.paths)
	add(r.presets)
	if IsRelative(spec) {
		if p, ok := clean(path.Join(path.Dir(fromFile), spec)); ok {
			out = append(out, Candidate{Path: p, Origin: OriginRelative})
		}
	}
	return out
}

// Resolve returns the first existing file among the candidates of spec. A
// package-mapping preset that matches before any candidate resolves yields
// a Result carrying the package. ok is false when spec is external.
func (r *Resolver) Resolve(spec, fromFile string) (Result, bool) {
	for _, group := range [][]Rule{r.custom, r.paths, r.presets} {
		for _, rule := range group {
			capture, ok := Match(rule.Pattern, spec)
			if !ok {
				continue
			}
			if rule.Package != "" {
				return Result{Package: rule.Package, Origin: rule.Origin}, true
			}
			for _, t := range rule.Targets {
				p, ok := clean(Substitute(t, capture))
				if !ok {
					continue
				}
				if found, ok := r.Lookup(p, rule.Extensions); ok {
					return Result{Path: found, Origin: rule.Origin}, true
				}
			}
		}
	}
	if IsRelative(spec) {
		if p, ok := clean(path.Join(path.Dir(fromFile), spec)); ok {
			if found, ok := r.Lookup(p, nil); ok {
				return Result{Path: found, Origin: OriginRelative}, true
			}
		}
	}
	return Result{}, false
}

// Lookup finds an existing file for candidate p: p itself, p with each
// source extension and then each extra extension, and finally index files
// inside p.
func (r *Resolver) Lookup(p string, extra []string) (string, bool) {
	if p == "" {
		return "", false
	}
	if r.files.Has(p) {
		return p, true
	}
	exts := r.extensions
	if len(extra) > 0 {
		exts = append(append([]string(nil), r.extensions...), extra...)
	}
	for _, ext := range exts {
		if r.files.Has(p + ext) {
			return p + ext, true
		}
	}
	for _, ext := range exts {
		if idx := path.Join(p, "index"+ext); r.files.Has(idx) {
			return idx, true
		}
	}
	return "", false
}

// IsRelative reports whether spec uses relative-import syntax.
func IsRelative(spec string) bool {
	return spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// clean normalizes a candidate and rejects paths that leave the repository.
func clean(p string) (string, bool) {
	p = strings.TrimPrefix(path.Clean(strings.TrimPrefix(p, "./")), "/")
	if p == "." || p == "" {
		return "", false
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}
