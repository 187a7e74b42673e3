package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscout/internal/adapter/fetch"
	"webscout/internal/domain"
	"webscout/internal/infra/config"
	"webscout/internal/infra/logger"
	"webscout/internal/infra/metrics"
)

func newTestExtractor(t *testing.T, m *metrics.Metrics) *Extractor {
	t.Helper()
	cfg := config.Defaults().Fetch
	cfg.BlockPrivate = false
	cfg.HostRate = 0
	return New(fetch.New(cfg, logger.Discard()), 5*time.Second, logger.Discard(), m)
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		contentType string
		want        Format
	}{
		{"", FormatHTML},
		{"text/html; charset=utf-8", FormatHTML},
		{"application/xhtml+xml", FormatHTML},
		{"application/json", FormatJSON},
		{"application/ld+json; charset=utf-8", FormatJSON},
		{"TEXT/JSON", FormatJSON},
		{"application/xml", FormatXML},
		{"application/rss+xml", FormatXML},
		{"text/xml; charset=iso-8859-1", FormatXML},
		{"text/plain", FormatText},
		{"text/csv", FormatText},
		{"application/javascript", FormatText},
		{"application/x-yaml", FormatText},
		{"application/pdf", FormatUnsupported},
		{"image/png", FormatUnsupported},
		{"application/octet-stream", FormatUnsupported},
		{"not a / valid ; type=", FormatUnsupported},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatOf(tt.contentType), "FormatOf(%q)", tt.contentType)
	}
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "html", FormatHTML.String())
	assert.Equal(t, "json", FormatJSON.String())
	assert.Equal(t, "xml", FormatXML.String())
	assert.Equal(t, "text", FormatText.String())
	assert.Equal(t, "unknown", Format(42).String())
}

func TestExtractHTMLFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Moved Page</title></head><body><article><p>` + para200 + `</p></article></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := metrics.New("test")
	got := newTestExtractor(t, m).Extract(context.Background(), srv.URL+"/old")

	require.False(t, got.Failed(), got.Content)
	assert.Equal(t, srv.URL+"/new", got.Source)
	assert.Equal(t, "Moved Page", got.Title)
	assert.Equal(t, para200, got.Content)
	assert.Equal(t, "text/html; charset=utf-8", got.Metadata[domain.MetaContentType])
	n, err := testutil.GatherAndCount(m.Registry(), "test_extractions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExtractJSONNeverStripsTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": "API document",
			"description": "<p>This description keeps its angle brackets</p>",
			"items": [{"summary": "A summary string long enough to be collected"}],
			"short": "tiny"
		}`))
	}))
	defer srv.Close()

	got := newTestExtractor(t, nil).Extract(context.Background(), srv.URL)

	assert.Equal(t, "json", got.Metadata[domain.MetaFormat])
	assert.Empty(t, got.Metadata[domain.MetaParser])
	assert.Equal(t, "API document", got.Title)
	assert.Contains(t, got.Content, "description: <p>This description keeps its angle brackets</p>")
	assert.Contains(t, got.Content, "summary: A summary string long enough to be collected")
	assert.NotContains(t, got.Content, "tiny")
}

func TestExtractHTTPErrorYieldsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	m := metrics.New("test")
	got := newTestExtractor(t, m).Extract(context.Background(), srv.URL+"/missing")

	require.True(t, got.Failed())
	assert.True(t, strings.HasPrefix(got.Content, "Failed to extract content from "+srv.URL+"/missing: "))
	assert.Contains(t, got.Metadata[domain.MetaError], "404")
	assert.Equal(t, srv.URL+"/missing", got.Source)
	expected := `
# HELP test_extractions_total Content extractions by detected format and error code.
# TYPE test_extractions_total counter
test_extractions_total{code="HTTP_STATUS",format="none"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "test_extractions_total"))
}

func TestExtractUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL
	srv.Close()

	got := newTestExtractor(t, nil).Extract(context.Background(), target)
	assert.True(t, got.Failed())
}

func TestExtractMarksTruncatedBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(strings.Repeat("word ", 1000)))
	}))
	defer srv.Close()

	cfg := config.Defaults().Fetch
	cfg.BlockPrivate = false
	cfg.HostRate = 0
	cfg.MaxBodyBytes = 100
	e := New(fetch.New(cfg, logger.Discard()), 0, logger.Discard(), nil)

	got := e.Extract(context.Background(), srv.URL)
	assert.Equal(t, "true", got.Metadata["truncated"])
	assert.Equal(t, "text", got.Metadata[domain.MetaFormat])
}

func TestFailure(t *testing.T) {
	got := Failure("https://example.com", domain.ErrNoContent)
	assert.True(t, got.Failed())
	assert.Equal(t, "https://example.com", got.Source)
	assert.Contains(t, got.Content, "Failed to extract content from https://example.com")
}
