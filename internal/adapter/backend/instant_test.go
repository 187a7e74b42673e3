package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscout/internal/domain"
	"webscout/internal/infra/logger"
)

func newInstant(t *testing.T, body string) (*Instant, *url.Values) {
	t.Helper()
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/x-javascript")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewInstant(newTestFetcher(), srv.URL+"/", 2*time.Second, logger.Discard()), &got
}

func TestInstantAbstract(t *testing.T) {
	in, params := newInstant(t, `{
		"Heading": "Go (programming language)",
		"AbstractText": "Go is a statically typed, compiled language.",
		"AbstractURL": "https://en.wikipedia.org/wiki/Go_(programming_language)",
		"RelatedTopics": [{"Text": "Gopher - mascot", "FirstURL": "https://example.com/gopher"}]
	}`)

	got, err := in.Lookup(context.Background(), "golang", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Go (programming language)", got[0].Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Go_(programming_language)", got[0].URL)
	assert.Equal(t, "Go is a statically typed, compiled language.", got[0].Snippet)

	assert.Equal(t, "golang", params.Get("q"))
	assert.Equal(t, "json", params.Get("format"))
	assert.Equal(t, "1", params.Get("no_html"))
	assert.Equal(t, "1", params.Get("skip_disambig"))
}

func TestInstantAbstractWithoutHeading(t *testing.T) {
	in, _ := newInstant(t, `{"AbstractText": "Something useful."}`)
	got, err := in.Lookup(context.Background(), "useful thing", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "useful thing", got[0].Title)
}

func TestInstantRelatedTopics(t *testing.T) {
	in, _ := newInstant(t, `{
		"AbstractText": "",
		"RelatedTopics": [
			{"Text": "Gopher - The Go mascot", "FirstURL": "https://example.com/gopher"},
			{"Name": "Tools", "Topics": [
				{"Text": "", "FirstURL": "https://example.com/empty"},
				{"Text": "gofmt - Formats Go code", "FirstURL": "https://example.com/gofmt"}
			]},
			{"Text": "Plain topic", "FirstURL": "https://example.com/plain"}
		]
	}`)

	got, err := in.Lookup(context.Background(), "go", 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Gopher", got[0].Title)
	assert.Equal(t, "Gopher - The Go mascot", got[0].Snippet)
	assert.Equal(t, "gofmt", got[1].Title)
	assert.Equal(t, "https://example.com/gofmt", got[1].URL)
	assert.Equal(t, "Plain topic", got[2].Title)

	got, err = in.Lookup(context.Background(), "go", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestInstantNothing(t *testing.T) {
	in, _ := newInstant(t, `{"AbstractText": "", "RelatedTopics": []}`)
	got, err := in.Lookup(context.Background(), "zzqx", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInstantUnparseable(t *testing.T) {
	in, _ := newInstant(t, `<html>not json</html>`)
	_, err := in.Lookup(context.Background(), "go", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnparseable))
}
