// Package config defines the options of an analysis run.
//
// A [Config] starts from [Default], is overlaid by an optional TOML file
// ([LoadFile]) and by GARDENER_* environment variables ([Config.ApplyEnv]),
// and finally by command-line flags in the CLI. [Config.Validate] checks the
// result once and reports every violation in a single
// *errors.ValidationError.
package config

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/drips-network/gardener/pkg/alias"
	"github.com/drips-network/gardener/pkg/errors"
	"github.com/drips-network/gardener/pkg/graph"
	"github.com/drips-network/gardener/pkg/names"
)

// Centrality metrics.
const (
	MetricPageRank = "pagerank"
	MetricKatz     = "katz"
)

// Defaults.
const (
	DefaultPageRankAlpha       = 0.85
	DefaultKatzAlpha           = 0.15
	DefaultMaxFiles            = 100000
	DefaultMaxImportsPerFile   = 2000
	DefaultMaxPathLength       = errors.DefaultMaxPathLength
	DefaultPerFileTimeoutMS    = 10000
	DefaultDripListMaxLength   = 200
	DefaultRegistryConcurrency = 8
	DefaultRequestTimeoutMS    = 10000
	DefaultMaxFileSize         = 5 << 20
	DefaultMaxDepth            = 64
)

// DefaultIgnoreDirs are skipped by the scanner in addition to .gitignore.
var DefaultIgnoreDirs = []string{"node_modules", "vendor", "target", "dist", "build", "__pycache__", ".git"}

// DefaultWeights are the per-edge-type multipliers.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		string(graph.ImportsPackage):    0.5,
		string(graph.ImportsLocal):      0.7,
		string(graph.ContainsComponent): 1.0,
		string(graph.UsesComponent):     1.0,
	}
}

// Config holds every option of one run.
type Config struct {
	Metric            string             `toml:"centrality_metric"`
	Alpha             float64            `toml:"alpha"` // 0 selects the metric's default
	Weights           map[string]float64 `toml:"edge_weight_multipliers"`
	MaxFiles          int                `toml:"max_files"`
	MaxImportsPerFile int                `toml:"max_imports_per_file"`
	MaxPathLength     int                `toml:"max_path_length"`
	PerFileTimeoutMS  int                `toml:"per_file_timeout_ms"`
	DripListMaxLength int                `toml:"drip_list_max_length"` // 0 keeps every entry
	ForceURLRefresh   bool               `toml:"force_url_refresh"`

	Workers             int      `toml:"workers"`
	RegistryConcurrency int      `toml:"registry_concurrency"`
	RequestTimeoutMS    int      `toml:"request_timeout_ms"`
	MaxFileSize         int64    `toml:"max_file_size"`
	MaxDepth            int      `toml:"max_depth"`
	IgnoreDirs          []string `toml:"ignore_dirs"`

	AliasRules      []alias.RuleSpec       `toml:"alias_rules"`
	NameTables      map[string]names.Table `toml:"names"`
	RemappingHelper string                 `toml:"remapping_helper"`

	RepoURL     string `toml:"repo_url"`
	GitHubOnly  bool   `toml:"github_only"`
	GitHubToken string `toml:"-"`

	Cache     CacheConfig    `toml:"cache"`
	Artifacts ArtifactConfig `toml:"artifacts"`
}

// CacheConfig selects the URL cache backend. A non-empty Prefix scopes every
// key so that several deployments can share one backend.
type CacheConfig struct {
	Kind   string        `toml:"kind"`
	URL    string        `toml:"url"`
	Dir    string        `toml:"dir"`
	Prefix string        `toml:"prefix"`
	TTL    time.Duration `toml:"-"`
}

// ArtifactConfig selects where run artifacts are persisted. An empty Dir and
// Endpoint disables persistence.
type ArtifactConfig struct {
	Dir       string `toml:"dir"`
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	AccessKey string `toml:"-"`
	SecretKey string `toml:"-"`
	UseSSL    bool   `toml:"use_ssl"`
	Prefix    string `toml:"prefix"`
}

// Default returns the documented defaults.
func Default() *Config {
	return &Config{
		Metric:              MetricPageRank,
		Weights:             DefaultWeights(),
		MaxFiles:            DefaultMaxFiles,
		MaxImportsPerFile:   DefaultMaxImportsPerFile,
		MaxPathLength:       DefaultMaxPathLength,
		PerFileTimeoutMS:    DefaultPerFileTimeoutMS,
		DripListMaxLength:   DefaultDripListMaxLength,
		Workers:             runtime.NumCPU(),
		RegistryConcurrency: DefaultRegistryConcurrency,
		RequestTimeoutMS:    DefaultRequestTimeoutMS,
		MaxFileSize:         DefaultMaxFileSize,
		MaxDepth:            DefaultMaxDepth,
		IgnoreDirs:          slices.Clone(DefaultIgnoreDirs),
		GitHubOnly:          true,
		Cache:               CacheConfig{Kind: "file", TTL: 7 * 24 * time.Hour},
		Artifacts:           ArtifactConfig{Region: "us-east-1", Bucket: "gardener-artifacts", UseSSL: true, Prefix: "gardener"},
	}
}

// LoadFile overlays the TOML file at path onto c. Keys absent from the file
// keep their current values; unknown keys are an error.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		v := &errors.ValidationError{}
		for _, k := range undecoded {
			v.Violationf("%s: unknown key %q", path, k.String())
		}
		return v
	}
	return nil
}

// EffectiveAlpha returns Alpha, or the default of the selected metric when
// Alpha is unset.
func (c *Config) EffectiveAlpha() float64 {
	if c.Alpha != 0 {
		return c.Alpha
	}
	if c.Metric == MetricKatz {
		return DefaultKatzAlpha
	}
	return DefaultPageRankAlpha
}

// EdgeWeights returns the multipliers keyed by edge type. Types missing from
// Weights get their default.
func (c *Config) EdgeWeights() map[graph.EdgeType]float64 {
	out := make(map[graph.EdgeType]float64, 4)
	for k, v := range DefaultWeights() {
		out[graph.EdgeType(k)] = v
	}
	for k, v := range c.Weights {
		out[graph.EdgeType(k)] = v
	}
	return out
}

// PerFileTimeout is PerFileTimeoutMS as a duration.
func (c *Config) PerFileTimeout() time.Duration {
	return time.Duration(c.PerFileTimeoutMS) * time.Millisecond
}

// RequestTimeout is RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Validate reports every invalid option at once. MaxFiles is not checked
// here: a non-positive file budget is a fatal run error, not a
// configuration error.
func (c *Config) Validate() error {
	v := &errors.ValidationError{}
	if c.Metric != MetricPageRank && c.Metric != MetricKatz {
		v.Violationf("centrality_metric must be %q or %q, got %q", MetricPageRank, MetricKatz, c.Metric)
	}
	if c.Alpha != 0 && (c.Alpha <= 0 || c.Alpha >= 1) {
		v.Violationf("alpha must be between 0 and 1 (exclusive), got %g", c.Alpha)
	}
	for _, k := range sortedKeys(c.Weights) {
		if _, ok := graph.ParseEdgeType(k); !ok {
			v.Violationf("edge_weight_multipliers: unknown edge type %q", k)
			continue
		}
		if w := c.Weights[k]; !(w > 0) {
			v.Violationf("edge_weight_multipliers.%s must be positive, got %g", k, w)
		}
	}
	positive := []struct {
		name string
		val  int
	}{
		{"max_imports_per_file", c.MaxImportsPerFile},
		{"max_path_length", c.MaxPathLength},
		{"per_file_timeout_ms", c.PerFileTimeoutMS},
		{"workers", c.Workers},
		{"registry_concurrency", c.RegistryConcurrency},
		{"request_timeout_ms", c.RequestTimeoutMS},
		{"max_depth", c.MaxDepth},
	}
	for _, p := range positive {
		if p.val <= 0 {
			v.Violationf("%s must be positive, got %d", p.name, p.val)
		}
	}
	if c.MaxFileSize <= 0 {
		v.Violationf("max_file_size must be positive, got %d", c.MaxFileSize)
	}
	if c.DripListMaxLength < 0 {
		v.Violationf("drip_list_max_length must not be negative, got %d", c.DripListMaxLength)
	}
	v.Violations = append(v.Violations, alias.ValidateSpecs(c.AliasRules)...)
	switch c.Cache.Kind {
	case "", "file", "memory", "none":
	case "redis", "mongo", "postgres":
		if c.Cache.URL == "" {
			v.Violationf("cache kind %q requires a cache url", c.Cache.Kind)
		}
	default:
		v.Violationf("unknown cache kind %q", c.Cache.Kind)
	}
	if c.RepoURL != "" {
		if err := errors.ValidateURL(c.RepoURL); err != nil {
			v.Violationf("repo_url: %s", errors.UserMessage(err))
		}
	}
	return v.OrNil()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
