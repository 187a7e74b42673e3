package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// StrategyNames lists the backends the orchestrator knows how to build.
var StrategyNames = []string{"category", "multi_engine", "html_scrape", "instant_answer"}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateSearch(cfg, ve)
	validateFetch(cfg, ve)
	validateBackends(cfg, ve)
	validateCategories(cfg, ve)
	validateCache(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	validateGateway(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateSearch(cfg *Config, ve *ValidationError) {
	s := cfg.Search
	if s.MaxResults < 1 || s.MaxResults > 10 {
		ve.Add("search.max_results must be between 1 and 10, got %d", s.MaxResults)
	}
	if s.DefaultResults < 1 || s.DefaultResults > 10 {
		ve.Add("search.default_results must be between 1 and 10, got %d", s.DefaultResults)
	}
	if s.SnippetWindow <= 0 {
		ve.Add("search.snippet_window must be > 0")
	}
	if s.MinContentLength < 0 {
		ve.Add("search.min_content_length must be >= 0")
	}
	if s.PageMaxLength <= 0 {
		ve.Add("search.page_max_length must be > 0")
	}
	if len(s.Strategies) == 0 {
		ve.Add("search.strategies must not be empty")
	}
	seen := make(map[string]bool, len(s.Strategies))
	for _, name := range s.Strategies {
		if !contains(StrategyNames, name) {
			ve.Add("search.strategies: unknown strategy %q (want one of %s)", name, strings.Join(StrategyNames, ", "))
		}
		if seen[name] {
			ve.Add("search.strategies: %q listed twice", name)
		}
		seen[name] = true
	}
}

func validateFetch(cfg *Config, ve *ValidationError) {
	f := cfg.Fetch
	if f.UserAgent == "" || f.FetcherUserAgent == "" || f.BrowserUserAgent == "" {
		ve.Add("fetch: user_agent, fetcher_user_agent and browser_user_agent are required")
	}
	if f.TitleTimeout <= 0 {
		ve.Add("fetch.title_timeout must be > 0")
	}
	if f.PageTimeout <= 0 {
		ve.Add("fetch.page_timeout must be > 0")
	}
	if f.APITimeout <= 0 {
		ve.Add("fetch.api_timeout must be > 0")
	}
	if f.MaxBodyBytes <= 0 {
		ve.Add("fetch.max_body_bytes must be > 0")
	}
	if f.MaxRedirects < 0 {
		ve.Add("fetch.max_redirects must be >= 0")
	}
	if f.HostRate < 0 {
		ve.Add("fetch.host_rate must be >= 0")
	}
	if f.HostRate > 0 && f.HostBurst <= 0 {
		ve.Add("fetch.host_burst must be > 0 when host_rate is set")
	}
}

func validateBackends(cfg *Config, ve *ValidationError) {
	b := cfg.Backends
	if usesStrategy(cfg, "multi_engine") && len(b.Engines) == 0 {
		ve.Add("backends.engines must not be empty when multi_engine is enabled")
	}
	names := make(map[string]bool, len(b.Engines))
	for i, e := range b.Engines {
		if e.Name == "" {
			ve.Add("backends.engines[%d].name is required", i)
		}
		if names[e.Name] {
			ve.Add("backends.engines[%d]: duplicate name %q", i, e.Name)
		}
		names[e.Name] = true
		if !strings.Contains(e.URL, "{query}") {
			ve.Add("backends.engines[%d].url must contain {query}", i)
		}
		if len(e.Patterns) == 0 || len(e.Patterns) > 2 {
			ve.Add("backends.engines[%d] must have 1 or 2 patterns", i)
		}
		for j, p := range e.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				ve.Add("backends.engines[%d].patterns[%d]: %v", i, j, err)
				continue
			}
			if re.NumSubexp() < 1 {
				ve.Add("backends.engines[%d].patterns[%d] must capture the URL in group 1", i, j)
			}
		}
	}
	if usesStrategy(cfg, "html_scrape") && b.HTMLScrapeURL == "" {
		ve.Add("backends.html_scrape_url is required when html_scrape is enabled")
	}
	if usesStrategy(cfg, "instant_answer") && b.InstantAPIURL == "" {
		ve.Add("backends.instant_api_url is required when instant_answer is enabled")
	}
	if b.Breaker.MaxFailures == 0 {
		ve.Add("backends.breaker.max_failures must be > 0")
	}
	if b.Breaker.Timeout <= 0 {
		ve.Add("backends.breaker.timeout must be > 0")
	}
}

func validateCategories(cfg *Config, ve *ValidationError) {
	for i, c := range cfg.Categories {
		if c.Name == "" {
			ve.Add("categories[%d].name is required", i)
		}
		if len(c.Keywords) == 0 {
			ve.Add("categories[%d].keywords must not be empty", i)
		}
		if c.DefaultSubject == "" {
			ve.Add("categories[%d].default_subject is required", i)
		}
		if len(c.Templates) == 0 {
			ve.Add("categories[%d].templates must not be empty", i)
		}
		for j, t := range c.Templates {
			if !strings.HasPrefix(t.URL, "http://") && !strings.HasPrefix(t.URL, "https://") {
				ve.Add("categories[%d].templates[%d].url must be http(s)", i, j)
			}
		}
	}
}

func validateCache(cfg *Config, ve *ValidationError) {
	switch cfg.Cache.Backend {
	case "memory", "none", "":
	case "redis":
		if cfg.Cache.RedisAddr == "" {
			ve.Add("cache.redis_addr is required when cache.backend is redis")
		}
	default:
		ve.Add("cache.backend must be memory, redis or none, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend != "none" && cfg.Cache.TTL <= 0 {
		ve.Add("cache.ttl must be > 0")
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		ve.Add("logger.level: unknown level %q", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "text", "json", "":
	default:
		ve.Add("logger.format must be text or json, got %q", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	switch cfg.Tracer.Exporter {
	case "stdout", "noop", "":
	default:
		ve.Add("tracer.exporter must be stdout or noop, got %q", cfg.Tracer.Exporter)
	}
}

func validateGateway(cfg *Config, ve *ValidationError) {
	if cfg.Gateway.RequestsPerMin < 0 {
		ve.Add("gateway.requests_per_min must be >= 0, got %d", cfg.Gateway.RequestsPerMin)
	}
	if cfg.Gateway.RequestsPerMin > 0 && cfg.Gateway.Burst < 1 {
		ve.Add("gateway.burst must be >= 1 when rate limiting is on, got %d", cfg.Gateway.Burst)
	}
	if cfg.Gateway.Addr == "" {
		return
	}
	if _, _, err := net.SplitHostPort(cfg.Gateway.Addr); err != nil {
		ve.Add("gateway.addr %q is not host:port: %v", cfg.Gateway.Addr, err)
	}
}

func usesStrategy(cfg *Config, name string) bool {
	return contains(cfg.Search.Strategies, name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
