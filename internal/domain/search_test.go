package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractedContentFailed(t *testing.T) {
	assert.False(t, ExtractedContent{}.Failed())
	assert.False(t, ExtractedContent{Metadata: map[string]string{MetaFormat: "html"}}.Failed())
	assert.True(t, ExtractedContent{Metadata: map[string]string{MetaError: "timeout"}}.Failed())
	// An empty cause still counts as a failure.
	assert.True(t, ExtractedContent{Metadata: map[string]string{MetaError: ""}}.Failed())
}

func TestCandidateHasWebURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://go.dev/", true},
		{"http://example.com/a", true},
		{"", false},
		{"ftp://files.example/", false},
		{"go.dev", false},
		{"HTTPS://GO.DEV/", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Candidate{URL: tt.url}.HasWebURL(), tt.url)
	}
}

func TestSearchResultJSONShape(t *testing.T) {
	raw, err := json.Marshal(SearchResult{Title: "Go", URL: "https://go.dev/", Snippet: "The Go language"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Go","url":"https://go.dev/","snippet":"The Go language"}`, string(raw))

	raw, err = json.Marshal(ExtractedContent{Title: "t", Content: "c", Source: "s"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"t","content":"c","source":"s"}`, string(raw))
}
