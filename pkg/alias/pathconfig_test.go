package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathConfigWithComments(t *testing.T) {
	data := []byte(`{
  // editor settings
  "compilerOptions": {
    "baseUrl": "./src", /* inline */
    "paths": {
      "@components/*": ["components/*"],
      "@/*": ["*", "../shared/*"],
    },
  },
  "include": ["src/**/*.ts"],
}`)
	cfg, err := ParsePathConfig(data, "web")
	require.NoError(t, err)
	assert.Equal(t, "./src", cfg.BaseURL)
	assert.Equal(t, "web/src", cfg.Base())

	rules := cfg.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "@components/*", rules[0].Pattern)
	assert.Equal(t, []string{"web/src/components/*"}, rules[0].Targets)
	assert.Equal(t, []string{"web/src/*", "web/shared/*"}, rules[1].Targets)
	assert.Equal(t, OriginPathConfig, rules[1].Origin)
}

func TestParsePathConfigInvalid(t *testing.T) {
	_, err := ParsePathConfig([]byte(`{"compilerOptions": `), ".")
	assert.Error(t, err)
}

func TestPathConfigSkipsInvalidPatterns(t *testing.T) {
	cfg := PathConfig{Dir: ".", Paths: map[string][]string{"a*b*": {"x"}, "ok/*": {"y/*"}}}
	rules := cfg.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "ok/*", rules[0].Pattern)
}

func TestStripJSONCKeepsStrings(t *testing.T) {
	got := StripJSONC([]byte(`{"url": "http://x.dev/*not a comment*/", "a": [1,2,],}`))
	assert.JSONEq(t, `{"url": "http://x.dev/*not a comment*/", "a": [1,2]}`, string(got))
}

func TestEmptyPathConfig(t *testing.T) {
	assert.True(t, PathConfig{}.Empty())
	assert.Nil(t, PathConfig{}.Rules())
}
