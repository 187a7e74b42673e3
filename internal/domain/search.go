package domain

import (
	"context"
	"strings"
	"time"
)

// SearchResult is one entry of a final, ranked result list.
// URL may be empty for instant-answer entries that carry no source link.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// ExtractedContent is the outcome of pulling readable text from one URL.
// A failed extraction still yields a value: Content describes the failure
// and Metadata["error"] holds the cause.
type ExtractedContent struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Source   string            `json:"source"`
}

// Failed reports whether the extraction recorded an error.
func (c ExtractedContent) Failed() bool {
	_, ok := c.Metadata[MetaError]
	return ok
}

// Metadata keys written by the extractor.
const (
	MetaError       = "error"
	MetaFormat      = "format"
	MetaContentType = "content_type"
	MetaParser      = "parser"
	MetaDescription = "description"
	MetaOGDesc      = "og_description"
	MetaLanguage    = "language"
	MetaKeywords    = "keywords"
)

// Candidate is a backend hit before content extraction.
// Prefetched is set when the backend already extracted the page.
// Synthetic marks a placeholder produced when a backend found nothing.
type Candidate struct {
	Title      string
	URL        string
	Snippet    string
	Prefetched *ExtractedContent
	Synthetic  bool
}

// HasWebURL reports whether the candidate points at an http(s) resource.
func (c Candidate) HasWebURL() bool {
	return strings.HasPrefix(c.URL, "http://") || strings.HasPrefix(c.URL, "https://")
}

// Extractor turns a URL into readable content. Implementations never fail.
type Extractor interface {
	Extract(ctx context.Context, url string) ExtractedContent
}

// Backend is one strategy in the search fallback chain.
// Find never fails; any error degrades to an empty list.
type Backend interface {
	Name() string
	Find(ctx context.Context, query string, max int) []Candidate
}

// ResultCache stores final result lists keyed by normalized query and count.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]SearchResult, bool)
	Set(ctx context.Context, key string, results []SearchResult, ttl time.Duration) error
	Name() string
}
