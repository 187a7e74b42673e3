// Package metrics exposes Prometheus counters and histograms for the
// search pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry so that several
// instances (tests, embedded use) never collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	backendAttempts *prometheus.CounterVec
	backendHits     *prometheus.HistogramVec
	extractions     *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	searchResults   prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	pageFetches     *prometheus.CounterVec
}

// New creates and registers all collectors under namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		backendAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_attempts_total",
			Help:      "Backend invocations by outcome (hit, partial, empty, error, open).",
		}, []string{"backend", "outcome"}),
		backendHits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_candidates",
			Help:      "Number of candidates returned per backend call.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		}, []string{"backend"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Content extractions by detected format and error code.",
		}, []string{"format", "code"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall time of a search call by winning strategy.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"strategy"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search call.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 8, 10},
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by backend and outcome.",
		}, []string{"cache", "outcome"}),
		pageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_fetches_total",
			Help:      "fetch_page calls by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.backendAttempts, m.backendHits, m.extractions,
		m.searchDuration, m.searchResults, m.cacheLookups, m.pageFetches)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) BackendAttempt(backend, outcome string, candidates int) {
	if m == nil {
		return
	}
	m.backendAttempts.WithLabelValues(backend, outcome).Inc()
	m.backendHits.WithLabelValues(backend).Observe(float64(candidates))
}

func (m *Metrics) Extraction(format, code string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(format, code).Inc()
}

func (m *Metrics) Search(strategy string, d time.Duration, results int) {
	if m == nil {
		return
	}
	m.searchDuration.WithLabelValues(strategy).Observe(d.Seconds())
	m.searchResults.Observe(float64(results))
}

func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, outcome).Inc()
}

func (m *Metrics) PageFetch(ok bool) {
	if m == nil {
		return
	}
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	m.pageFetches.WithLabelValues(outcome).Inc()
}
