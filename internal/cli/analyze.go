package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/config"
	"github.com/drips-network/gardener/pkg/errors"
	gio "github.com/drips-network/gardener/pkg/io"
	"github.com/drips-network/gardener/pkg/observability"
	"github.com/drips-network/gardener/pkg/pipeline"
)

// Output file names written by analyze --output.
const (
	graphFile  = "graph.json"
	resultFile = "result.json"
)

// analyzeOpts holds the analyze flags. A flag only overrides the loaded
// configuration when it was set on the command line.
type analyzeOpts struct {
	configFile   string
	metric       string
	alpha        float64
	weights      []string
	maxFiles     int
	maxImports   int
	maxPath      int
	timeoutMS    int
	limit        int
	workers      int
	refresh      bool
	repoURL      string
	githubToken  string
	allForges    bool
	cacheKind    string
	cacheURL     string
	noCache      bool
	helper       string
	output       string
	artifactsDir string
	interactive  bool
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	opts := &analyzeOpts{}

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Scan a repository and rank its dependencies into a drip list",
		Long: `Scan a repository and rank its dependencies into a drip list.

Configuration is layered: built-in defaults, then --config (TOML), then
GARDENER_* environment variables (a .env file in the working directory is
loaded first), then flags.`,
		Example: `  # Analyze the current directory
  gardener analyze .

  # Katz centrality, top 50, with files written to ./out
  gardener analyze ./repo --metric katz --limit 50 --output out

  # Weigh local imports higher than package imports
  gardener analyze ./repo --weight imports_local=1.5 --weight imports_package=0.25`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			cfg, err := opts.config(cmd, os.Getenv)
			if err != nil {
				return err
			}
			return c.runAnalyze(cmd, root, cfg, opts)
		},
	}

	opts.bindFlags(cmd)
	return cmd
}

func (o *analyzeOpts) bindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.configFile, "config", "c", "", "TOML configuration file")
	f.StringVar(&o.metric, "metric", config.MetricPageRank, "centrality metric: pagerank or katz")
	f.Float64Var(&o.alpha, "alpha", 0, "damping (pagerank) or attenuation (katz) factor; 0 uses the metric default")
	f.StringArrayVar(&o.weights, "weight", nil, "edge weight multiplier as type=value (repeatable)")
	f.IntVar(&o.maxFiles, "max-files", config.DefaultMaxFiles, "maximum number of source files to scan")
	f.IntVar(&o.maxImports, "max-imports", config.DefaultMaxImportsPerFile, "maximum imports kept per file")
	f.IntVar(&o.maxPath, "max-path", config.DefaultMaxPathLength, "maximum relative path length")
	f.IntVar(&o.timeoutMS, "timeout-ms", config.DefaultPerFileTimeoutMS, "per-file parse timeout in milliseconds")
	f.IntVarP(&o.limit, "limit", "n", config.DefaultDripListMaxLength, "maximum drip list length (0 keeps all)")
	f.IntVarP(&o.workers, "workers", "j", 0, "parallel file parsers (default: number of CPUs)")
	f.BoolVar(&o.refresh, "refresh", false, "ignore cached repository URLs")
	f.StringVar(&o.repoURL, "repo-url", "", "canonical URL of the analyzed repository (default: git origin)")
	f.StringVar(&o.githubToken, "github-token", "", "GitHub token for URL canonicalization (default: $GITHUB_TOKEN)")
	f.BoolVar(&o.allForges, "all-forges", false, "keep non-GitHub repositories in the drip list")
	f.StringVar(&o.cacheKind, "cache", cache.KindFile, "URL cache backend: "+strings.Join(cache.Kinds, ", "))
	f.StringVar(&o.cacheURL, "cache-url", "", "connection string for redis, mongo or postgres caches")
	f.BoolVar(&o.noCache, "no-cache", false, "disable the URL cache")
	f.StringVar(&o.helper, "remapping-helper", "", "script printing Solidity remappings as JSON")
	f.StringVarP(&o.output, "output", "o", "", "directory to write "+graphFile+" and "+resultFile)
	f.StringVar(&o.artifactsDir, "artifacts-dir", "", "directory to persist run artifacts")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "browse the drip list interactively")
}

// config layers defaults, the TOML file, the environment and set flags.
func (o *analyzeOpts) config(cmd *cobra.Command, getenv func(string) string) (*config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		if err := cfg.LoadFile(o.configFile); err != nil {
			return nil, err
		}
	}
	config.LoadDotEnv()
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}

	set := cmd.Flags().Changed
	if set("metric") {
		cfg.Metric = o.metric
	}
	if set("alpha") {
		cfg.Alpha = o.alpha
	}
	if set("max-files") {
		cfg.MaxFiles = o.maxFiles
	}
	if set("max-imports") {
		cfg.MaxImportsPerFile = o.maxImports
	}
	if set("max-path") {
		cfg.MaxPathLength = o.maxPath
	}
	if set("timeout-ms") {
		cfg.PerFileTimeoutMS = o.timeoutMS
	}
	if set("limit") {
		cfg.DripListMaxLength = o.limit
	}
	if set("workers") {
		cfg.Workers = o.workers
	}
	if set("refresh") {
		cfg.ForceURLRefresh = o.refresh
	}
	if set("repo-url") {
		cfg.RepoURL = o.repoURL
	}
	if set("github-token") {
		cfg.GitHubToken = o.githubToken
	}
	if set("all-forges") {
		cfg.GitHubOnly = !o.allForges
	}
	if set("cache") {
		cfg.Cache.Kind = o.cacheKind
	}
	if set("cache-url") {
		cfg.Cache.URL = o.cacheURL
	}
	if o.noCache {
		cfg.Cache.Kind = cache.KindNone
	}
	if set("remapping-helper") {
		cfg.RemappingHelper = o.helper
	}
	if set("artifacts-dir") {
		cfg.Artifacts.Dir = o.artifactsDir
	}
	if err := applyWeights(cfg, o.weights); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyWeights parses type=value pairs into cfg.Weights. Unknown edge types
// are left for config validation to report.
func applyWeights(cfg *config.Config, specs []string) error {
	v := &errors.ValidationError{}
	for _, spec := range specs {
		k, val, ok := strings.Cut(spec, "=")
		if !ok || strings.TrimSpace(k) == "" {
			v.Violationf("--weight %q: want type=value", spec)
			continue
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			v.Violationf("--weight %q: %v", spec, err)
			continue
		}
		if cfg.Weights == nil {
			cfg.Weights = config.DefaultWeights()
		}
		cfg.Weights[strings.TrimSpace(k)] = w
	}
	return v.OrNil()
}

func (c *CLI) runAnalyze(cmd *cobra.Command, root string, cfg *config.Config, opts *analyzeOpts) error {
	ctx := cmd.Context()

	runner, store, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var res *pipeline.Result
	if c.verbose() {
		prog := newProgress(c.Logger)
		if res, err = runner.Run(ctx, root, cfg); err != nil {
			return err
		}
		prog.done("Analyzed " + res.Report.Root)
	} else if res, err = c.runWithSpinner(cmd, runner, root, cfg); err != nil {
		return err
	}

	for _, d := range res.Report.Diagnostics {
		c.Logger.Debug("diagnostic", "kind", d.Kind, "path", d.Path, "package", d.Package, "msg", d.Message)
	}

	if opts.output != "" {
		if err := writeOutputs(opts.output, res); err != nil {
			return err
		}
	}

	if opts.interactive {
		return browse(res.Report)
	}

	out := cmd.OutOrStdout()
	writeReport(out, res.Report)
	if res.Report.MetricFallback {
		fmt.Fprintln(out)
		printWarning(out, "%s did not converge; scores come from unweighted PageRank", cfg.Metric)
	}
	if opts.output != "" || len(res.Artifacts) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, StyleTitle.Render("Files"))
	}
	if opts.output != "" {
		for _, name := range []string{graphFile, resultFile} {
			printFile(out, filepath.Join(opts.output, name))
		}
	}
	for _, key := range res.Artifacts {
		printFile(out, key)
	}
	if opts.output != "" {
		fmt.Fprintln(out)
		printNextStep(out, "Browse interactively", fmt.Sprintf("%s show %s -i", appName, filepath.Join(opts.output, resultFile)))
	}
	return nil
}

// runWithSpinner runs the pipeline behind a spinner. Info logs are muted
// while it spins so they do not tear the spinner line.
func (c *CLI) runWithSpinner(cmd *cobra.Command, runner *pipeline.Runner, root string, cfg *config.Config) (*pipeline.Result, error) {
	ctx := cmd.Context()
	quiet := c.Logger.With()
	quiet.SetLevel(log.WarnLevel)
	runner.Logger = quiet

	s := newSpinnerWithContext(ctx, "Analyzing "+root)
	s.out = cmd.ErrOrStderr()
	observability.SetPipelineHooks(stageHooks{s: s})
	defer observability.SetPipelineHooks(observability.NoopPipelineHooks{})

	prog := newProgress(quiet)
	s.Start()
	res, err := runner.Run(ctx, root, cfg)
	switch {
	case err == nil:
		s.StopWithSuccess(fmt.Sprintf("Analyzed %s (%s)", res.Report.Root, prog.elapsed()))
	case s.Cancelled():
		s.Stop()
	default:
		s.StopWithError("Analysis failed")
	}
	return res, err
}

// writeOutputs writes graph.json and result.json into dir.
func writeOutputs(dir string, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := gio.ExportGraph(res.Graph, filepath.Join(dir, graphFile)); err != nil {
		return fmt.Errorf("write %s: %w", graphFile, err)
	}
	if err := gio.ExportResult(res.Report, filepath.Join(dir, resultFile)); err != nil {
		return fmt.Errorf("write %s: %w", resultFile, err)
	}
	return nil
}
