package javascript

import (
	"context"
	"path"
	"strings"

	"github.com/drips-network/gardener/pkg/alias"
	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/deps/syntax"
)

// Handler is the npm handler. Create one per run with [New].
type Handler struct {
	resolver *alias.Resolver
}

// New returns a handler with no build configuration loaded.
func New() *Handler { return &Handler{} }

var extensions = map[string]string{
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".ts":  "typescript",
	".tsx": "typescript",
}

func (h *Handler) Ecosystem() deps.Ecosystem     { return deps.NPM }
func (h *Handler) Extensions() map[string]string { return extensions }
func (h *Handler) ManifestPatterns() []string    { return []string{"package.json"} }
func (h *Handler) Stdlib(name string) bool       { return IsBuiltin(name) }

// ParseManifest parses a package.json file.
func (h *Handler) ParseManifest(p string, data []byte) (*deps.Manifest, error) {
	return ParsePackageJSON(p, data)
}

var pathConfigs = []string{"tsconfig.json", "jsconfig.json"}

// Prepare builds the alias resolver from the custom rules, the root
// tsconfig.json (or jsconfig.json) and the framework presets matching the
// declared packages.
func (h *Handler) Prepare(ctx context.Context, p *deps.Project) error {
	var pc alias.PathConfig
	for _, name := range pathConfigs {
		data, err := p.ReadFile(name)
		if err != nil {
			continue
		}
		cfg, err := alias.ParsePathConfig(data, ".")
		if err != nil {
			p.Logger.Warn("ignoring path config", "file", name, "error", err)
			continue
		}
		pc = cfg
		p.Logger.Debug("loaded path config", "file", name, "paths", len(cfg.Paths))
		break
	}

	frameworks := alias.FrameworksFor(func(name string) bool { return p.IsDeclared(deps.NPM, name) })
	h.resolver = alias.New(alias.Config{
		Custom:     p.AliasRules,
		PathConfig: pc,
		Presets:    alias.Presets(frameworks...),
	}, p.Files)
	return nil
}

// Extract parses one JavaScript or TypeScript file.
func (h *Handler) Extract(ctx context.Context, p *deps.Project, file string, src []byte) (*deps.Facts, error) {
	resolver := h.resolver
	if resolver == nil {
		resolver = alias.New(alias.Config{Custom: p.AliasRules, Presets: alias.Presets()}, p.Files)
	}
	tree, err := syntax.Parse(ctx, grammarFor(file), src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	x := &extractor{resolver: resolver, p: p, file: file, facts: p.NewFacts(file, deps.NPM)}
	x.walk(tree)
	if tree.HasError() {
		p.Logger.Debug("syntax errors recovered", "file", file)
	}
	return x.facts, nil
}

func grammarFor(file string) syntax.Language {
	switch strings.ToLower(path.Ext(file)) {
	case ".ts":
		return syntax.TypeScript
	case ".tsx":
		return syntax.TSX
	}
	return syntax.JavaScript
}

// PackageName returns the package part of a bare specifier: "@scope/name"
// or the first path segment. It returns "" for specifiers that cannot name
// a package.
func PackageName(spec string) string {
	if spec == "" || strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") {
		return ""
	}
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") {
		if len(parts) < 2 || parts[0] == "@" || parts[1] == "" {
			return ""
		}
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
