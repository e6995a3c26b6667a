package alias

import (
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/drips-network/gardener/pkg/errors"
)

// Origin records where a rule came from.
type Origin string

const (
	OriginCustom     Origin = "custom"
	OriginPathConfig Origin = "path-alias-config"
	OriginFramework  Origin = "framework-preset"
	OriginRelative   Origin = "relative"
)

// RuleSpec is the configuration form of a custom rule.
type RuleSpec struct {
	Pattern  string   `toml:"pattern" json:"pattern" yaml:"pattern"`
	Targets  []string `toml:"targets" json:"targets" yaml:"targets"`
	Priority int      `toml:"priority" json:"priority,omitempty" yaml:"priority"`
}

// Rule maps a specifier pattern to an ordered list of targets.
type Rule struct {
	Pattern  string
	Targets  []string
	Priority int
	Origin   Origin

	// Package, when set, makes every match resolve to this external package.
	Package string
	// Extensions are tried after the resolver's default extensions for
	// specifiers matched by this rule.
	Extensions []string
}

// NewRule validates and builds a rule.
func NewRule(pattern string, targets []string, priority int, origin Origin) (Rule, error) {
	r := Rule{Pattern: pattern, Targets: targets, Priority: priority, Origin: origin}
	if v := r.violations(); len(v) > 0 {
		return Rule{}, errors.New(errors.ErrCodeInvalidAliasRule, "%s", strings.Join(v, "; "))
	}
	return r, nil
}

func (r Rule) violations() []string {
	var out []string
	if r.Pattern == "" {
		out = append(out, "alias rule has an empty pattern")
	} else if err := errors.ValidateWildcard(r.Pattern); err != nil {
		out = append(out, "alias pattern "+errors.UserMessage(err))
	}
	if len(r.Targets) == 0 && r.Package == "" {
		out = append(out, "alias rule "+strconv.Quote(r.Pattern)+" has no targets")
	}
	for _, t := range r.Targets {
		if t == "" {
			out = append(out, "alias rule "+strconv.Quote(r.Pattern)+" has an empty target")
			continue
		}
		if err := errors.ValidateWildcard(t); err != nil {
			out = append(out, "alias target "+errors.UserMessage(err))
		}
	}
	return out
}

// ValidateSpecs returns one message per problem found in specs. An empty
// result means every spec compiles.
func ValidateSpecs(specs []RuleSpec) []string {
	var out []string
	for _, s := range specs {
		r := Rule{Pattern: s.Pattern, Targets: s.Targets, Priority: s.Priority, Origin: OriginCustom}
		out = append(out, r.violations()...)
	}
	return out
}

// CompileSpecs turns configuration specs into custom rules ordered by
// descending priority; equal priorities keep declaration order.
func CompileSpecs(specs []RuleSpec) ([]Rule, error) {
	if v := ValidateSpecs(specs); len(v) > 0 {
		return nil, &errors.ValidationError{Violations: v}
	}
	rules := make([]Rule, len(specs))
	for i, s := range specs {
		rules[i] = Rule{Pattern: s.Pattern, Targets: s.Targets, Priority: s.Priority, Origin: OriginCustom}
	}
	SortByPriority(rules)
	return rules, nil
}

// SortByPriority orders rules by descending priority, stably.
func SortByPriority(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
}

// Match reports whether spec matches pattern and returns the text captured
// by the wildcard. A pattern without '*' matches only itself. A pattern
// ending in "/*" also matches its bare prefix with an empty capture, so
// "$lib/*" matches "$lib".
func Match(pattern, spec string) (string, bool) {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return "", spec == pattern
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	if suffix == "" && strings.HasSuffix(prefix, "/") && spec == strings.TrimSuffix(prefix, "/") {
		return "", true
	}
	if len(spec) < len(prefix)+len(suffix) {
		return "", false
	}
	if !strings.HasPrefix(spec, prefix) || !strings.HasSuffix(spec, suffix) {
		return "", false
	}
	return spec[len(prefix) : len(spec)-len(suffix)], true
}

// Substitute places capture into target. A target without '*' gets a
// non-empty capture appended as a path element; "dir/*" with an empty
// capture yields "dir".
func Substitute(target, capture string) string {
	star := strings.IndexByte(target, '*')
	if star < 0 {
		if capture == "" {
			return target
		}
		return path.Join(target, capture)
	}
	if capture == "" && strings.HasSuffix(target, "/*") {
		return strings.TrimSuffix(target, "/*")
	}
	return target[:star] + capture + target[star+1:]
}

// prefixLen is the length of the literal text before the wildcard.
func prefixLen(pattern string) int {
	if i := strings.IndexByte(pattern, '*'); i >= 0 {
		return i
	}
	return len(pattern)
}
