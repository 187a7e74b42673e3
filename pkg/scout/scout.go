// Package scout is the entry point for embedding webscout in a chat client.
//
// A Client searches the web through an ordered chain of backends, extracts
// readable text from the hits and frames the outcome for a language-model
// prompt:
//
//	c, err := scout.New(config.Defaults())
//	if err != nil { ... }
//	defer c.Close()
//	results := c.Search(ctx, "weather auckland", 5)
//	prompt := scout.FormatForPrompt("what should I wear today?", results)
package scout

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"webscout/internal/adapter/backend"
	"webscout/internal/adapter/cache"
	"webscout/internal/adapter/extract"
	"webscout/internal/adapter/fetch"
	"webscout/internal/adapter/prompt"
	"webscout/internal/domain"
	"webscout/internal/infra/config"
	"webscout/internal/infra/logger"
	"webscout/internal/infra/metrics"
	"webscout/internal/usecase/search"
)

// Re-exported result types.
type (
	Result = domain.SearchResult
	Page   = domain.ExtractedContent
)

// BackendStatus reports a backend's circuit breaker state.
type BackendStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// Client wires the fetcher, extractor, backends, cache and orchestrator
// described by one Config. It is safe for concurrent use.
type Client struct {
	cfg      *config.Config
	fetcher  *fetch.Client
	backends []*backend.Guarded
	cache    domain.ResultCache
	orch     *search.Orchestrator
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records Prometheus metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCache replaces the cache selected by cfg.Cache.
func WithCache(rc domain.ResultCache) Option {
	return func(c *Client) { c.cache = rc }
}

// New builds a Client from cfg.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	c := &Client{cfg: cfg, logger: logger.Discard()}
	for _, opt := range opts {
		opt(c)
	}

	if c.cache == nil {
		rc, err := cache.New(cfg.Cache, c.logger)
		if err != nil {
			return nil, fmt.Errorf("result cache: %w", err)
		}
		c.cache = rc
	}

	c.fetcher = fetch.New(cfg.Fetch, c.logger)
	extractor := extract.New(c.fetcher, cfg.Fetch.PageTimeout, c.logger, c.metrics)

	backends, err := backend.Build(cfg, c.fetcher, extractor, c.logger, c.metrics)
	if err != nil {
		return nil, fmt.Errorf("build backends: %w", err)
	}
	c.backends = backends

	strategies := make([]search.Strategy, 0, len(backends))
	for _, b := range backends {
		strategies = append(strategies, search.Strategy{Kind: b.Name(), Backend: b})
	}
	c.orch = search.New(strategies, extractor, cfg.Search, search.Options{
		Cache:    c.cache,
		CacheTTL: cfg.Cache.TTL,
		Metrics:  c.metrics,
	}, c.logger)
	return c, nil
}

// Config returns the configuration the Client was built from.
func (c *Client) Config() *config.Config { return c.cfg }

// Search returns at most max results, max clamped to [1, 10].
func (c *Client) Search(ctx context.Context, query string, max int) []Result {
	return c.orch.Search(ctx, query, max)
}

// FetchPage returns the readable text of a page, or false when nothing
// usable could be extracted. maxLength <= 0 uses the configured limit.
func (c *Client) FetchPage(ctx context.Context, url string, maxLength int) (string, bool) {
	return c.orch.FetchPage(ctx, url, maxLength)
}

// FetchContent is FetchPage keeping title and metadata.
func (c *Client) FetchContent(ctx context.Context, url string, maxLength int) (Page, bool) {
	return c.orch.FetchContent(ctx, url, maxLength)
}

// Enhance searches for query and frames the results ahead of it.
func (c *Client) Enhance(ctx context.Context, query string, max int) string {
	return FormatForPrompt(query, c.Search(ctx, query, max))
}

// EnhanceWithPage frames one fetched page ahead of query. A page that
// cannot be fetched leaves query unchanged.
func (c *Client) EnhanceWithPage(ctx context.Context, query, url string, maxLength int) string {
	page, ok := c.FetchContent(ctx, url, maxLength)
	if !ok {
		return query
	}
	return FormatPageForPrompt(query, page.Content, page.Source)
}

// SearchAndFormat returns the plain listing of a search.
func (c *Client) SearchAndFormat(ctx context.Context, query string, max int) string {
	return FormatResults(query, c.Search(ctx, query, max))
}

// Backends reports every backend in chain order.
func (c *Client) Backends() []BackendStatus {
	out := make([]BackendStatus, 0, len(c.backends))
	for _, b := range c.backends {
		out = append(out, BackendStatus{Name: b.Name(), State: b.State().String()})
	}
	return out
}

// Close releases the cache's connections, if it holds any.
func (c *Client) Close() error {
	if closer, ok := c.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close %s cache: %w", c.cache.Name(), err)
		}
	}
	return nil
}

// FormatForPrompt frames results ahead of query. No results leaves query
// unchanged.
func FormatForPrompt(query string, results []Result) string {
	return prompt.FormatForPrompt(query, results)
}

// FormatPageForPrompt frames one page's content ahead of query.
func FormatPageForPrompt(query, content, url string) string {
	return prompt.FormatPageForPrompt(query, content, url)
}

// FormatResults renders a plain listing.
func FormatResults(query string, results []Result) string {
	return prompt.FormatResults(query, results)
}
