// Package extract turns a fetched resource into readable text. The format
// arm is chosen once from the declared Content-Type; HTML goes through
// ordered goquery rules with a regexp fallback when parsing is not possible.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"webscout/internal/adapter/fetch"
	"webscout/internal/domain"
	"webscout/internal/infra/metrics"
	"webscout/internal/infra/tracer"
)

// Fetcher is the slice of fetch.Client the extractor needs.
type Fetcher interface {
	Get(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

// arm converts a decoded body into content. Arms are pure.
type arm func(body []byte, source string) domain.ExtractedContent

var arms = map[Format]arm{
	FormatHTML:        htmlArm,
	FormatJSON:        jsonArm,
	FormatXML:         xmlArm,
	FormatText:        textArm,
	FormatUnsupported: unsupportedArm,
}

// Extractor fetches URLs and extracts their content.
type Extractor struct {
	fetcher Fetcher
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates an Extractor. A zero timeout defers to the fetcher's page
// timeout. m may be nil.
func New(fetcher Fetcher, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Extractor {
	return &Extractor{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Extract fetches rawURL and returns its content. It never fails: fetch
// errors are reported through the returned value's Metadata.
func (e *Extractor) Extract(ctx context.Context, rawURL string) domain.ExtractedContent {
	ctx, span := tracer.StartSpan(ctx, "extract.Extract")
	span.SetAttributes(tracer.StringAttr("extract.url", rawURL))

	resp, err := e.fetcher.Get(ctx, fetch.Request{
		URL:      rawURL,
		Identity: fetch.IdentityFetcher,
		Timeout:  e.timeout,
	})
	if err != nil {
		tracer.Finish(span, err)
		code := domain.ErrorCodeOf(err)
		e.metrics.Extraction("none", string(code))
		e.logger.Debug("extraction failed", "url", rawURL, "code", code, "error", err)
		return Failure(rawURL, err)
	}

	content := FromBytes(resp.Body, resp.ContentType, resp.URL)
	if resp.Truncated {
		content.Metadata["truncated"] = "true"
	}
	span.SetAttributes(
		tracer.StringAttr("extract.format", content.Metadata[domain.MetaFormat]),
		tracer.IntAttr("extract.chars", len(content.Content)),
	)
	code := "OK"
	if content.Failed() {
		code = string(domain.CodeUnparseable)
		e.logger.Debug("unsupported content", "url", rawURL, "content_type", resp.ContentType)
	}
	tracer.Finish(span, nil)
	e.metrics.Extraction(content.Metadata[domain.MetaFormat], code)
	return content
}

// FromBytes dispatches body to the arm matching contentType. source is the
// final URL the body was served from.
func FromBytes(body []byte, contentType, source string) domain.ExtractedContent {
	format := FormatOf(contentType)
	content := arms[format](body, source)
	if content.Metadata == nil {
		content.Metadata = make(map[string]string)
	}
	content.Metadata[domain.MetaContentType] = contentType
	return content
}

// Failure builds the value returned when rawURL could not be extracted.
func Failure(rawURL string, err error) domain.ExtractedContent {
	return domain.ExtractedContent{
		Title:    "Error",
		Content:  fmt.Sprintf("Failed to extract content from %s: %v", rawURL, err),
		Metadata: map[string]string{domain.MetaError: err.Error()},
		Source:   rawURL,
	}
}

// hostTitle is the last-resort title for a page.
func hostTitle(source string) string {
	host := source
	if u, err := url.Parse(source); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	return "Page from " + host
}
