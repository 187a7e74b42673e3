// Package search runs the backend fallback chain and turns the winning
// candidates into a content-ranked result list.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"webscout/internal/adapter/textclean"
	"webscout/internal/domain"
	"webscout/internal/infra/config"
	"webscout/internal/infra/metrics"
	"webscout/internal/infra/tracer"
)

// hardMaxResults caps every result list regardless of configuration.
const hardMaxResults = 10

// TruncationMarker is appended to fetched pages cut at the length limit.
const TruncationMarker = "\n\n[Content truncated due to length limit]"

// Strategy is one entry of the ordered fallback chain.
type Strategy struct {
	Kind    string
	Backend domain.Backend
}

// Orchestrator is safe for concurrent use; each Search call is sequential.
type Orchestrator struct {
	strategies []Strategy
	extractor  domain.Extractor
	cache      domain.ResultCache
	cacheTTL   time.Duration
	cfg        config.SearchConfig
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Options carries the optional collaborators of an Orchestrator.
type Options struct {
	Cache    domain.ResultCache // nil disables caching
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
}

// New creates an Orchestrator. strategies are tried in slice order.
func New(strategies []Strategy, extractor domain.Extractor, cfg config.SearchConfig, opts Options, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		strategies: strategies,
		extractor:  extractor,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		cfg:        cfg,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// Clamp bounds a requested result count to [1, MaxResults], MaxResults
// itself never exceeding 10.
func (o *Orchestrator) Clamp(max int) int {
	ceiling := o.cfg.MaxResults
	if ceiling <= 0 || ceiling > hardMaxResults {
		ceiling = hardMaxResults
	}
	if max < 1 {
		return 1
	}
	if max > ceiling {
		return ceiling
	}
	return max
}

// Search never fails. Any backend, extraction or internal failure degrades
// to fewer results, down to an empty list.
func (o *Orchestrator) Search(ctx context.Context, query string, max int) (results []domain.SearchResult) {
	runID := newRunID()
	logger := o.logger.With("run_id", runID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("search panicked", "query", query, "panic", r)
			results = []domain.SearchResult{}
		}
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}
	}
	return o.search(ctx, query, o.Clamp(max), runID, logger)
}

func (o *Orchestrator) search(ctx context.Context, query string, n int, runID string, logger *slog.Logger) []domain.SearchResult {
	ctx, span := tracer.StartSpan(ctx, "search.Search")
	span.SetAttributes(
		tracer.StringAttr("search.run_id", runID),
		tracer.IntAttr("search.max", n),
	)
	start := time.Now()

	key := cacheKey(query, n)
	if o.cache != nil {
		cached, ok := o.cache.Get(ctx, key)
		o.metrics.CacheLookup(o.cache.Name(), ok)
		if ok {
			span.SetAttributes(tracer.BoolAttr("search.cache_hit", true))
			tracer.Finish(span, nil)
			o.metrics.Search("cache", time.Since(start), len(cached))
			logger.Debug("search cache hit", "query", query, "results", len(cached))
			return cached
		}
	}

	cands, kind, placeholder := o.candidates(ctx, query, n, logger)
	results := o.assemble(ctx, cands, n)

	// A placeholder-only list reflects a provider outage; do not pin it.
	if o.cache != nil && len(results) > 0 && !placeholder {
		if err := o.cache.Set(ctx, key, results, o.cacheTTL); err != nil {
			logger.Warn("result cache store failed", "cache", o.cache.Name(), "error", err)
		}
	}

	span.SetAttributes(
		tracer.StringAttr("search.strategy", kind),
		tracer.IntAttr("search.results", len(results)),
	)
	tracer.Finish(span, nil)
	o.metrics.Search(kind, time.Since(start), len(results))
	logger.Info("search complete",
		"query", query,
		"strategy", kind,
		"candidates", len(cands),
		"results", len(results),
		"duration", time.Since(start),
	)
	return results
}

// candidates walks the chain until a backend yields a non-synthetic hit.
// Placeholder hits are remembered and only returned when nothing real was
// found and the configuration keeps them; the last return value reports
// that case.
func (o *Orchestrator) candidates(ctx context.Context, query string, n int, logger *slog.Logger) ([]domain.Candidate, string, bool) {
	var (
		placeholder     []domain.Candidate
		placeholderKind string
	)
	for _, s := range o.strategies {
		if ctx.Err() != nil {
			logger.Debug("search cancelled", "before", s.Kind, "error", ctx.Err())
			break
		}
		found := s.Backend.Find(ctx, query, n)
		var real []domain.Candidate
		for _, c := range found {
			if !c.Synthetic {
				real = append(real, c)
			}
		}
		if len(real) > 0 {
			logger.Debug("backend produced candidates", "backend", s.Kind, "candidates", len(real))
			return real, s.Kind, false
		}
		if placeholder == nil && len(found) > 0 {
			placeholder, placeholderKind = found, s.Kind
		}
	}
	if o.cfg.KeepSynthetic && placeholder != nil {
		return placeholder, placeholderKind, true
	}
	return nil, "none", false
}

// assemble extracts each web candidate and orders content-bearing results
// ahead of the rest, keeping backend order within each group.
func (o *Orchestrator) assemble(ctx context.Context, cands []domain.Candidate, n int) []domain.SearchResult {
	var with, without []domain.SearchResult
	for _, c := range cands {
		if len(with) >= n {
			break
		}
		r := domain.SearchResult{Title: c.Title, URL: c.URL, Snippet: c.Snippet}
		if c.Synthetic || !c.HasWebURL() {
			without = append(without, r)
			continue
		}

		content := c.Prefetched
		if content == nil {
			ec := o.extractor.Extract(ctx, c.URL)
			content = &ec
		}
		if !o.substantial(*content) {
			without = append(without, r)
			continue
		}
		if r.Title == "" {
			r.Title = content.Title
		}
		r.Snippet = textclean.Snippet(strings.TrimSpace(content.Content), o.cfg.SnippetWindow)
		with = append(with, r)
	}

	out := append(with, without...)
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []domain.SearchResult{}
	}
	return out
}

func (o *Orchestrator) substantial(c domain.ExtractedContent) bool {
	if c.Failed() {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(c.Content)) > o.cfg.MinContentLength
}

// FetchPage returns the readable text of rawURL, capped at maxLength runes.
// A zero or negative maxLength uses the configured page limit. The second
// result is false when the page could not be extracted or was empty.
func (o *Orchestrator) FetchPage(ctx context.Context, rawURL string, maxLength int) (string, bool) {
	content, ok := o.FetchContent(ctx, rawURL, maxLength)
	return content.Content, ok
}

// FetchContent is FetchPage keeping the title and metadata.
func (o *Orchestrator) FetchContent(ctx context.Context, rawURL string, maxLength int) (content domain.ExtractedContent, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("page fetch panicked", "url", rawURL, "panic", r)
			content, ok = domain.ExtractedContent{}, false
		}
		o.metrics.PageFetch(ok)
	}()

	rawURL = NormalizeURL(rawURL)
	if rawURL == "" {
		return domain.ExtractedContent{}, false
	}
	if maxLength <= 0 {
		maxLength = o.cfg.PageMaxLength
	}

	ctx, span := tracer.StartSpan(ctx, "search.FetchPage")
	span.SetAttributes(tracer.StringAttr("fetch.url", rawURL))

	content = o.extractor.Extract(ctx, rawURL)
	if content.Failed() {
		tracer.Finish(span, fmt.Errorf("%s", content.Metadata[domain.MetaError]))
		o.logger.Info("page fetch failed", "url", rawURL, "error", content.Metadata[domain.MetaError])
		return content, false
	}
	if strings.TrimSpace(content.Content) == "" {
		tracer.Finish(span, domain.ErrNoContent)
		o.logger.Info("page has no readable content", "url", rawURL)
		return content, false
	}
	content.Content = textclean.Truncate(content.Content, maxLength, TruncationMarker)
	tracer.Finish(span, nil)
	return content, true
}

// NormalizeURL trims rawURL and prefixes https:// when it has no http(s)
// scheme.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	lower := strings.ToLower(rawURL)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return rawURL
	}
	return "https://" + rawURL
}

// cacheKey lets queries that differ only in case or spacing share an entry.
func cacheKey(query string, n int) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(strings.Join(strings.Fields(query), " ")), n)
}

func newRunID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
