package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationErrors(t *testing.T, cfg *Config) []string {
	t.Helper()
	err := Validate(cfg)
	if err == nil {
		return nil
	}
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Errors
}

func hasErrorContaining(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateDefaultsPass(t *testing.T) {
	assert.Empty(t, validationErrors(t, Defaults()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"max results too high", func(c *Config) { c.Search.MaxResults = 11 }, "search.max_results"},
		{"default results zero", func(c *Config) { c.Search.DefaultResults = 0 }, "search.default_results"},
		{"snippet window", func(c *Config) { c.Search.SnippetWindow = 0 }, "search.snippet_window"},
		{"unknown strategy", func(c *Config) { c.Search.Strategies = []string{"google"} }, "unknown strategy"},
		{"duplicate strategy", func(c *Config) { c.Search.Strategies = []string{"category", "category"} }, "listed twice"},
		{"empty strategies", func(c *Config) { c.Search.Strategies = nil }, "search.strategies must not be empty"},
		{"page timeout", func(c *Config) { c.Fetch.PageTimeout = 0 }, "fetch.page_timeout"},
		{"body cap", func(c *Config) { c.Fetch.MaxBodyBytes = 0 }, "fetch.max_body_bytes"},
		{"burst without rate", func(c *Config) { c.Fetch.HostBurst = 0 }, "fetch.host_burst"},
		{"engine url", func(c *Config) { c.Backends.Engines[0].URL = "https://example.com" }, "must contain {query}"},
		{"engine bad regex", func(c *Config) { c.Backends.Engines[1].Patterns = []string{"("} }, "patterns[0]"},
		{"engine no group", func(c *Config) { c.Backends.Engines[2].Patterns = []string{"href"} }, "group 1"},
		{"engine too many patterns", func(c *Config) {
			c.Backends.Engines[0].Patterns = []string{"(a)", "(b)", "(c)"}
		}, "1 or 2 patterns"},
		{"no engines", func(c *Config) { c.Backends.Engines = nil }, "backends.engines must not be empty"},
		{"breaker", func(c *Config) { c.Backends.Breaker.MaxFailures = 0 }, "max_failures"},
		{"category keywords", func(c *Config) { c.Categories[0].Keywords = nil }, "keywords must not be empty"},
		{"category template url", func(c *Config) { c.Categories[0].Templates[0].URL = "ftp://x" }, "must be http(s)"},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"redis addr", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.RedisAddr = "" }, "cache.redis_addr"},
		{"logger level", func(c *Config) { c.Logger.Level = "verbose" }, "logger.level"},
		{"tracer exporter", func(c *Config) { c.Tracer.Exporter = "jaeger" }, "tracer.exporter"},
		{"gateway addr", func(c *Config) { c.Gateway.Addr = "8090" }, "gateway.addr"},
		{"gateway rate", func(c *Config) { c.Gateway.RequestsPerMin = -1 }, "gateway.requests_per_min"},
		{"gateway burst", func(c *Config) { c.Gateway.Burst = 0 }, "gateway.burst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			errs := validationErrors(t, cfg)
			assert.True(t, hasErrorContaining(errs, tt.want), "errors %v should mention %q", errs, tt.want)
		})
	}
}

func TestValidateEnginesOptionalWithoutMultiEngine(t *testing.T) {
	cfg := Defaults()
	cfg.Search.Strategies = []string{"instant_answer"}
	cfg.Backends.Engines = nil
	assert.Empty(t, validationErrors(t, cfg))
}

func TestValidateAccumulatesErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Search.MaxResults = 0
	cfg.Fetch.APITimeout = 0
	cfg.Cache.Backend = "bogus"
	errs := validationErrors(t, cfg)
	assert.GreaterOrEqual(t, len(errs), 3)
}
