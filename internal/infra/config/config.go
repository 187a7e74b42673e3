package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is reported in the descriptive User-Agent and by the MCP server.
const Version = "1.0.0"

// Config is the top-level application configuration.
type Config struct {
	Search     SearchConfig     `yaml:"search"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Backends   BackendsConfig   `yaml:"backends"`
	Categories []CategoryConfig `yaml:"categories"`
	Denylist   []string         `yaml:"denylist"`
	Cache      CacheConfig      `yaml:"cache"`
	Logger     LoggerConfig     `yaml:"logger"`
	Tracer     TracerConfig     `yaml:"tracer"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	MCP        MCPConfig        `yaml:"mcp"`
	Includes   []string         `yaml:"includes,omitempty"`
}

// SearchConfig holds orchestrator settings.
type SearchConfig struct {
	DefaultResults   int      `yaml:"default_results"`    // used when the caller passes no count
	MaxResults       int      `yaml:"max_results"`        // hard ceiling, never above 10
	SnippetWindow    int      `yaml:"snippet_window"`     // runes
	MinContentLength int      `yaml:"min_content_length"` // trimmed runes needed to count as with-content
	PageMaxLength    int      `yaml:"page_max_length"`    // default max_length for fetch_page
	Strategies       []string `yaml:"strategies"`         // backend order
	KeepSynthetic    bool     `yaml:"keep_synthetic"`     // return placeholder hits when nothing real was found
}

// FetchConfig holds HTTP client settings shared by the extractor and backends.
type FetchConfig struct {
	UserAgent        string        `yaml:"user_agent"`         // descriptive identity for API calls
	FetcherUserAgent string        `yaml:"fetcher_user_agent"` // descriptive identity for page fetches
	BrowserUserAgent string        `yaml:"browser_user_agent"` // browser identity for scrape requests
	TitleTimeout     time.Duration `yaml:"title_timeout"`
	PageTimeout      time.Duration `yaml:"page_timeout"`
	APITimeout       time.Duration `yaml:"api_timeout"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
	MaxRedirects     int           `yaml:"max_redirects"`
	HostRate         float64       `yaml:"host_rate"`  // requests per second per host, 0 = unlimited
	HostBurst        int           `yaml:"host_burst"` // burst per host
	BlockPrivate     bool          `yaml:"block_private"`
}

// EngineConfig describes one results page scraped by the multi-engine backend.
// URL contains the literal "{query}" where the escaped query goes. Every
// pattern must capture the destination URL in group 1.
type EngineConfig struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Patterns []string `yaml:"patterns"`
	Domains  []string `yaml:"domains"`
}

// BreakerConfig configures the per-backend circuit breaker.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// BackendsConfig holds settings for the search backends.
type BackendsConfig struct {
	Engines       []EngineConfig `yaml:"engines"`
	FallbackURL   string         `yaml:"fallback_url"` // generic search URL for the synthetic candidate
	HTMLScrapeURL string         `yaml:"html_scrape_url"`
	InstantAPIURL string         `yaml:"instant_api_url"`
	Breaker       BreakerConfig  `yaml:"breaker"`
}

// TemplateConfig is one fixed candidate emitted by a category shortcut.
// "{subject}" expands to the lowercase subject, "{Subject}" to its title case.
type TemplateConfig struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title"`
}

// CategoryConfig describes a recognized query category.
type CategoryConfig struct {
	Name           string           `yaml:"name"`
	Keywords       []string         `yaml:"keywords"`
	Stopwords      []string         `yaml:"stopwords"`
	DefaultSubject string           `yaml:"default_subject"`
	Templates      []TemplateConfig `yaml:"templates"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Backend       string        `yaml:"backend"` // "memory", "redis" or "none"
	TTL           time.Duration `yaml:"ttl"`
	MaxEntries    int           `yaml:"max_entries"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	KeyPrefix     string        `yaml:"key_prefix"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// GatewayConfig holds the HTTP API settings used by "webscout serve".
type GatewayConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestsPerMin int           `yaml:"requests_per_min"` // per client IP, 0 disables limiting
	Burst          int           `yaml:"burst"`
	TrustedProxies []string      `yaml:"trusted_proxies"`
}

// MCPConfig holds settings for the stdio MCP server.
type MCPConfig struct {
	Name string `yaml:"name"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Search: SearchConfig{
			DefaultResults:   5,
			MaxResults:       10,
			SnippetWindow:    800,
			MinContentLength: 50,
			PageMaxLength:    8000,
			Strategies:       []string{"category", "multi_engine", "html_scrape", "instant_answer"},
			KeepSynthetic:    true,
		},
		Fetch: FetchConfig{
			UserAgent:        "webscout/" + Version + " (Web Search Bot)",
			FetcherUserAgent: "webscout/" + Version + " (Content Fetcher Bot)",
			BrowserUserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			TitleTimeout:     8 * time.Second,
			PageTimeout:      15 * time.Second,
			APITimeout:       10 * time.Second,
			MaxBodyBytes:     2 * 1024 * 1024, // 2 MiB
			MaxRedirects:     10,
			HostRate:         2,
			HostBurst:        4,
			BlockPrivate:     true,
		},
		Backends: BackendsConfig{
			Engines:       DefaultEngines(),
			FallbackURL:   "https://duckduckgo.com/?q={query}",
			HTMLScrapeURL: "https://duckduckgo.com/html/",
			InstantAPIURL: "https://api.duckduckgo.com/",
			Breaker: BreakerConfig{
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Categories: []CategoryConfig{DefaultWeatherCategory()},
		Denylist:   DefaultDenylist(),
		Cache: CacheConfig{
			Backend:    "memory",
			TTL:        15 * time.Minute,
			MaxEntries: 100,
			RedisAddr:  "localhost:6379",
			KeyPrefix:  "webscout:search:",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "webscout",
		},
		Gateway: GatewayConfig{
			Addr:           ":8090",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   120 * time.Second,
			RequestsPerMin: 60,
			Burst:          10,
		},
		MCP: MCPConfig{
			Name: "webscout",
		},
	}
}

// DefaultEngines returns the providers queried by the multi-engine backend.
func DefaultEngines() []EngineConfig {
	return []EngineConfig{
		{
			Name: "duckduckgo",
			URL:  "https://html.duckduckgo.com/html/?q={query}",
			Patterns: []string{
				`<a[^>]*class="result__a"[^>]*href="([^"]+)"`,
				`<a[^>]*href="([^"]*uddg=[^"]+)"`,
			},
			Domains: []string{"duckduckgo.com", "ddg.gg", "duck.co", "duckduckgo.org"},
		},
		{
			Name: "bing",
			URL:  "https://www.bing.com/search?q={query}",
			Patterns: []string{
				`(?s)<li class="b_algo"[^>]*>.*?<h2[^>]*>\s*<a[^>]*href="(https?://[^"]+)"`,
				`<h2[^>]*>\s*<a[^>]*href="(https?://[^"]+)"`,
			},
			Domains: []string{"bing.com", "bing.net", "microsoft.com", "msn.com"},
		},
		{
			Name: "mojeek",
			URL:  "https://www.mojeek.com/search?q={query}",
			Patterns: []string{
				`<a[^>]*class="ob"[^>]*href="(https?://[^"]+)"`,
				`<h2[^>]*>\s*<a[^>]*href="(https?://[^"]+)"`,
			},
			Domains: []string{"mojeek.com", "mojeek.co.uk"},
		},
	}
}

// DefaultWeatherCategory returns the built-in weather shortcut.
func DefaultWeatherCategory() CategoryConfig {
	return CategoryConfig{
		Name:     "weather",
		Keywords: []string{"weather", "temperature", "forecast", "rain", "sunny", "cloudy", "wind"},
		Stopwords: []string{
			"weather", "temperature", "forecast", "current", "today", "rain", "sunny", "cloudy", "wind",
			"what", "what's", "whats", "is", "the", "in", "for", "at", "of", "like", "how",
		},
		DefaultSubject: "auckland",
		Templates: []TemplateConfig{
			{URL: "https://www.timeanddate.com/weather/new-zealand/{subject}", Title: "{Subject} Weather - TimeAndDate"},
			{URL: "https://weather.yahoo.com/new-zealand/{subject}/{subject}-2348327", Title: "{Subject} Weather Forecast - Yahoo"},
			{URL: "https://openweathermap.org/city/2193733", Title: "{Subject} Current Weather - OpenWeatherMap"},
		},
	}
}

// DefaultDenylist returns hosts that never yield useful page content.
func DefaultDenylist() []string {
	return []string{
		"facebook.com", "twitter.com", "x.com", "instagram.com", "tiktok.com",
		"pinterest.com", "linkedin.com", "youtube.com", "youtu.be", "vimeo.com",
		"dailymotion.com", "google.com", "duckduckgo.com", "ddg.gg", "duck.co",
		"duckduckgo.org", "bing.com", "mojeek.com",
	}
}

// Load reads a YAML config file and applies env var overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	// First pass picks up the includes list.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if len(cfg.Includes) > 0 {
		visited := map[string]bool{absPath: true}
		if err := processIncludes(cfg, filepath.Dir(absPath), visited, 0); err != nil {
			return nil, err
		}

		// Second pass: the main file wins over its includes.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (second pass): %w", err)
		}
		cfg.Includes = nil
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps WEBSCOUT_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEBSCOUT_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("WEBSCOUT_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("WEBSCOUT_LOGGER_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("WEBSCOUT_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("WEBSCOUT_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("WEBSCOUT_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true"
	}
	if v := os.Getenv("WEBSCOUT_SEARCH_DEFAULT_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.DefaultResults = n
		}
	}
	if v := os.Getenv("WEBSCOUT_SEARCH_STRATEGIES"); v != "" {
		cfg.Search.Strategies = splitAndTrim(v, ",")
	}
	if v := os.Getenv("WEBSCOUT_FETCH_USER_AGENT"); v != "" {
		cfg.Fetch.UserAgent = v
	}
	if v := os.Getenv("WEBSCOUT_FETCH_BLOCK_PRIVATE"); v != "" {
		cfg.Fetch.BlockPrivate = v != "false"
	}
	if v := os.Getenv("WEBSCOUT_FETCH_PAGE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Fetch.PageTimeout = d
		}
	}
	if v := os.Getenv("WEBSCOUT_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("WEBSCOUT_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("WEBSCOUT_CACHE_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("WEBSCOUT_CACHE_REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("WEBSCOUT_GATEWAY_ADDR"); v != "" {
		cfg.Gateway.Addr = v
	}
	if v := os.Getenv("WEBSCOUT_DENYLIST"); v != "" {
		cfg.Denylist = append(cfg.Denylist, splitAndTrim(v, ",")...)
	}
}

// splitAndTrim splits s by sep and trims whitespace from each element,
// dropping empty entries.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validatePermissions checks the config file has restrictive permissions.
// It may hold the Redis password.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
