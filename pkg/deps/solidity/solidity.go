// Package solidity implements the Solidity handler.
//
// Dependencies come from foundry.toml [dependencies] and library entries of
// remappings.txt. package.json files belong to the npm handler; imports
// that match no Solidity declaration are resolved against npm by
// [deps.Project.Resolve].
//
// Import directives are read from the tree-sitter Solidity grammar.
// Non-relative paths go through the Hardhat remappings, then remappings.txt
// and foundry.toml remappings; a hit adds a local edge to the remapped file as well as the
// package import. Relative paths resolve against the importing file, with
// a retry relative to the Foundry source directory.
package solidity

import (
	"context"
	"path"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/syntax"
	"github.com/drips-network/gardener/pkg/diag"
	"github.com/drips-network/gardener/pkg/errors"
)

// Handler is the Solidity handler. Prepare loads remappings and the Foundry
// source directory; use a new handler per run.
type Handler struct {
	src        string
	remappings []Remapping
	hardhat    []Remapping
}

// New returns a handler.
func New() *Handler { return &Handler{} }

var extensions = map[string]string{".sol": "solidity"}

func (h *Handler) Ecosystem() deps.Ecosystem     { return deps.Solidity }
func (h *Handler) Extensions() map[string]string { return extensions }
func (h *Handler) ManifestPatterns() []string    { return []string{"foundry.toml", "remappings.txt"} }
func (h *Handler) Stdlib(string) bool            { return false }

// ParseManifest parses foundry.toml or remappings.txt.
func (h *Handler) ParseManifest(p string, data []byte) (*deps.Manifest, error) {
	if path.Base(p) == "remappings.txt" {
		return ParseRemappingsTxt(p, data)
	}
	return ParseFoundryToml(p, data)
}

// Prepare loads the remappings of every Solidity manifest, the Foundry
// source directory and, when configured, the Hardhat remappings. It then
// associates library packages with git submodules.
func (h *Handler) Prepare(ctx context.Context, p *deps.Project) error {
	for _, m := range p.ManifestsOf(deps.Solidity) {
		data, err := p.ReadFile(m.Path)
		if err != nil {
			p.Diags.Addf(diag.SkippedFile, m.Path, "%s", errors.UserMessage(err))
			continue
		}
		dir := m.Dir()
		if path.Base(m.Path) == "remappings.txt" {
			h.remappings = append(h.remappings, parseRemappings(string(data), dir)...)
			continue
		}
		f, err := decodeFoundry(m.Path, data)
		if err != nil {
			continue
		}
		def := f.Profile["default"]
		h.remappings = append(h.remappings, parseRemappingLines(def.Remappings, dir)...)
		if m.IsRoot() {
			h.src = "src"
			if def.Src != "" {
				h.src = path.Clean(def.Src)
			}
		}
	}
	sortRemappings(h.remappings)

	if len(p.RemappingHelper) > 0 && hasHardhatConfig(p) {
		rs, err := hardhatRemappings(ctx, p.RemappingHelper, p.Root)
		if err != nil {
			if errors.Is(err, errors.ErrCodeCancelled) {
				return err
			}
			p.Logger.Warn("hardhat remappings unavailable", "err", err)
			p.Diags.Addf(diag.HelperUnavailable, "", "hardhat remappings: %s", errors.UserMessage(err))
		}
		h.hardhat = rs
		sortRemappings(h.hardhat)
	}

	associateSubmodules(p, h.Remappings())
	return nil
}

// Remappings returns the loaded remappings, Hardhat first.
func (h *Handler) Remappings() []Remapping {
	return append(append([]Remapping(nil), h.hardhat...), h.remappings...)
}

// SourceDir returns the Foundry source directory, or "" without a root
// foundry.toml.
func (h *Handler) SourceDir() string { return h.src }

// Extract returns the import facts of one Solidity file.
func (h *Handler) Extract(ctx context.Context, p *deps.Project, file string, src []byte) (*deps.Facts, error) {
	tree, err := syntax.Parse(ctx, syntax.Solidity, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	facts := p.NewFacts(file, deps.Solidity)
	for _, d := range parseImports(tree) {
		h.record(p, facts, file, d)
	}
	return facts, nil
}
