// Package backend holds the search strategies that turn a query into
// candidate URLs. Each strategy is a Source; Guard wraps it into a
// domain.Backend that never fails.
package backend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"webscout/internal/adapter/fetch"
	"webscout/internal/domain"
	"webscout/internal/infra/config"
	"webscout/internal/infra/metrics"
	"webscout/internal/infra/tracer"
)

// Strategy names as used in search.strategies.
const (
	NameCategory      = "category"
	NameMultiEngine   = "multi_engine"
	NameHTMLScrape    = "html_scrape"
	NameInstantAnswer = "instant_answer"
)

// Default breaker settings, used when the config leaves them zero.
const (
	defaultMaxFailures uint32        = 5
	defaultTimeout     time.Duration = 30 * time.Second
	defaultInterval    time.Duration = 60 * time.Second
)

// Fetcher is the slice of fetch.Client the sources need.
type Fetcher interface {
	Get(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

// Source is a raw search strategy. Unlike domain.Backend it reports
// errors, which feed the circuit breaker. A Source may return candidates
// together with an error when it degraded partway.
type Source interface {
	Name() string
	Lookup(ctx context.Context, query string, max int) ([]domain.Candidate, error)
}

// Guarded adapts a Source to domain.Backend. It trips a circuit breaker on
// repeated failures, drops denylisted and duplicate URLs, and records
// metrics and spans.
type Guarded struct {
	src     Source
	breaker *gobreaker.CircuitBreaker[[]domain.Candidate]
	filter  *Filter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

var _ domain.Backend = (*Guarded)(nil)

// Guard wraps src. filter and m may be nil.
func Guard(src Source, cfg config.BreakerConfig, filter *Filter, logger *slog.Logger, m *metrics.Metrics) *Guarded {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultInterval
	}

	cb := gobreaker.NewCircuitBreaker[[]domain.Candidate](gobreaker.Settings{
		Name:        "backend:" + src.Name(),
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about the provider.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Guarded{
		src:     src,
		breaker: cb,
		filter:  filter,
		logger:  logger,
		metrics: m,
	}
}

// Name implements domain.Backend.
func (g *Guarded) Name() string { return g.src.Name() }

// Find implements domain.Backend. Errors are logged and swallowed.
func (g *Guarded) Find(ctx context.Context, query string, max int) []domain.Candidate {
	ctx, span := tracer.StartSpan(ctx, "backend.Find")
	span.SetAttributes(
		tracer.StringAttr("backend.name", g.src.Name()),
		tracer.IntAttr("backend.max", max),
	)

	cands, err := g.breaker.Execute(func() ([]domain.Candidate, error) {
		return g.src.Lookup(ctx, query, max)
	})
	cands = g.filter.Apply(cands)
	if max > 0 && len(cands) > max {
		cands = cands[:max]
	}

	outcome := "hit"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "open"
		err = domain.NewDomainError("backend.Find", domain.ErrCircuitOpen, g.src.Name())
		cands = nil
	case err != nil && len(cands) > 0:
		outcome = "partial"
	case err != nil:
		outcome = "error"
	case len(cands) == 0:
		outcome = "empty"
	}

	span.SetAttributes(
		tracer.StringAttr("backend.outcome", outcome),
		tracer.IntAttr("backend.candidates", len(cands)),
	)
	tracer.Finish(span, err)
	g.metrics.BackendAttempt(g.src.Name(), outcome, len(cands))

	if err != nil {
		g.logger.Info("backend degraded",
			"backend", g.src.Name(),
			"outcome", outcome,
			"code", domain.ErrorCodeOf(err),
			"error", err,
		)
	} else {
		g.logger.Debug("backend finished", "backend", g.src.Name(), "outcome", outcome, "candidates", len(cands))
	}
	return cands
}

// State returns the breaker state for health reporting.
func (g *Guarded) State() gobreaker.State {
	return g.breaker.State()
}
