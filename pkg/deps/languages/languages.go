// Package languages provides the complete list of language handlers.
//
// This package exists to break import cycles: the individual handler
// packages (python, rust, etc.) import pkg/deps, so pkg/deps cannot import
// them back. Consumers that need every handler import this package.
//
// Usage:
//
//	for _, h := range languages.All() {
//	    fmt.Println(h.Ecosystem())
//	}
package languages

import (
	"path"
	"strings"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/golang"
	"github.com/drips-network/gardener/pkg/deps/javascript"
	"github.com/drips-network/gardener/pkg/deps/python"
	"github.com/drips-network/gardener/pkg/deps/rust"
	"github.com/drips-network/gardener/pkg/deps/solidity"
)

// All returns fresh handlers for every supported ecosystem, in
// [deps.Ecosystems] order. Handlers keep per-run state, so every run needs
// its own set.
func All() []deps.Handler {
	return []deps.Handler{
		javascript.New(),
		python.New(),
		golang.New(),
		rust.New(),
		solidity.New(),
	}
}

// Set indexes a handler list by extension and manifest name.
type Set struct {
	handlers []deps.Handler
	byExt    map[string]deps.Handler
	byEco    map[deps.Ecosystem]deps.Handler
}

// NewSet indexes handlers. For a repeated extension the first handler wins.
func NewSet(handlers []deps.Handler) *Set {
	s := &Set{
		handlers: handlers,
		byExt:    make(map[string]deps.Handler),
		byEco:    make(map[deps.Ecosystem]deps.Handler),
	}
	for _, h := range handlers {
		s.byEco[h.Ecosystem()] = h
		for ext := range h.Extensions() {
			if _, ok := s.byExt[ext]; !ok {
				s.byExt[ext] = h
			}
		}
	}
	return s
}

// Handlers returns the indexed handlers in their original order.
func (s *Set) Handlers() []deps.Handler { return s.handlers }

// Find returns the handler of an ecosystem.
func (s *Set) Find(eco deps.Ecosystem) deps.Handler { return s.byEco[eco] }

// ForSource returns the handler and language tag of a source file.
func (s *Set) ForSource(file string) (deps.Handler, string, bool) {
	ext := strings.ToLower(path.Ext(file))
	h, ok := s.byExt[ext]
	if !ok {
		return nil, "", false
	}
	return h, h.Extensions()[ext], true
}

// ForManifest returns the handler whose manifest patterns match the base
// name of file.
func (s *Set) ForManifest(file string) (deps.Handler, bool) {
	base := path.Base(file)
	for _, h := range s.handlers {
		if deps.MatchManifest(h, base) {
			return h, true
		}
	}
	return nil, false
}

// Extensions returns every source extension.
func (s *Set) Extensions() []string {
	out := make([]string, 0, len(s.byExt))
	for ext := range s.byExt {
		out = append(out, ext)
	}
	return out
}

// ManifestPatterns returns every manifest pattern.
func (s *Set) ManifestPatterns() []string {
	var out []string
	for _, h := range s.handlers {
		out = append(out, h.ManifestPatterns()...)
	}
	return out
}
