package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/drips-network/gardener/pkg/errors"
	"github.com/drips-network/gardener/pkg/graph"
)

// EnvPrefix prefixes every environment variable read by [Config.ApplyEnv].
const EnvPrefix = "GARDENER_"

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// ApplyEnv overlays environment variables onto c using getenv (os.Getenv
// when nil). Unparsable values are reported together in one
// *errors.ValidationError; the remaining variables are still applied.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	e := envReader{get: getenv, v: &errors.ValidationError{}}

	e.setString("METRIC", &c.Metric)
	e.setFloat("ALPHA", &c.Alpha)
	e.setInt("MAX_FILES", &c.MaxFiles)
	e.setInt("MAX_IMPORTS_PER_FILE", &c.MaxImportsPerFile)
	e.setInt("MAX_PATH_LENGTH", &c.MaxPathLength)
	e.setInt("PER_FILE_TIMEOUT_MS", &c.PerFileTimeoutMS)
	e.setInt("DRIP_LIST_MAX_LENGTH", &c.DripListMaxLength)
	e.setBool("FORCE_URL_REFRESH", &c.ForceURLRefresh)
	e.setInt("WORKERS", &c.Workers)
	e.setInt("REGISTRY_CONCURRENCY", &c.RegistryConcurrency)
	e.setInt("REQUEST_TIMEOUT_MS", &c.RequestTimeoutMS)
	e.setInt64("MAX_FILE_SIZE", &c.MaxFileSize)
	e.setString("REPO_URL", &c.RepoURL)
	e.setBool("GITHUB_ONLY", &c.GitHubOnly)
	e.setString("REMAPPING_HELPER", &c.RemappingHelper)
	e.setString("CACHE", &c.Cache.Kind)
	e.setString("CACHE_URL", &c.Cache.URL)
	e.setString("CACHE_DIR", &c.Cache.Dir)
	e.setString("CACHE_PREFIX", &c.Cache.Prefix)
	e.setString("ARTIFACTS_DIR", &c.Artifacts.Dir)
	e.setString("S3_ENDPOINT", &c.Artifacts.Endpoint)
	e.setString("S3_REGION", &c.Artifacts.Region)
	e.setString("S3_BUCKET", &c.Artifacts.Bucket)
	e.setString("S3_ACCESS_KEY", &c.Artifacts.AccessKey)
	e.setString("S3_SECRET_KEY", &c.Artifacts.SecretKey)
	e.setBool("S3_USE_SSL", &c.Artifacts.UseSSL)

	for _, t := range graph.EdgeTypes() {
		var w float64
		if e.setFloat("WEIGHT_"+strings.ToUpper(string(t)), &w) {
			if c.Weights == nil {
				c.Weights = DefaultWeights()
			}
			c.Weights[string(t)] = w
		}
	}
	if tok := strings.TrimSpace(getenv("GITHUB_TOKEN")); tok != "" {
		c.GitHubToken = tok
	}
	return e.v.OrNil()
}

type envReader struct {
	get func(string) string
	v   *errors.ValidationError
}

func (e envReader) lookup(key string) (string, bool) {
	s := strings.TrimSpace(e.get(EnvPrefix + key))
	return s, s != ""
}

func (e envReader) setString(key string, dst *string) {
	if s, ok := e.lookup(key); ok {
		*dst = s
	}
}

func (e envReader) setInt(key string, dst *int) {
	if s, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			e.v.Violationf("%s%s: %q is not an integer", EnvPrefix, key, s)
			return
		}
		*dst = n
	}
}

func (e envReader) setInt64(key string, dst *int64) {
	if s, ok := e.lookup(key); ok {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			e.v.Violationf("%s%s: %q is not an integer", EnvPrefix, key, s)
			return
		}
		*dst = n
	}
}

func (e envReader) setFloat(key string, dst *float64) bool {
	s, ok := e.lookup(key)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		e.v.Violationf("%s%s: %q is not a number", EnvPrefix, key, s)
		return false
	}
	*dst = f
	return true
}

func (e envReader) setBool(key string, dst *bool) {
	if s, ok := e.lookup(key); ok {
		b, err := strconv.ParseBool(s)
		if err != nil {
			e.v.Violationf("%s%s: %q is not a boolean", EnvPrefix, key, s)
			return
		}
		*dst = b
	}
}
