package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscout/internal/domain"
	"webscout/internal/infra/config"
	"webscout/internal/infra/logger"
)

func testConfig() config.FetchConfig {
	cfg := config.Defaults().Fetch
	cfg.BlockPrivate = false
	cfg.HostRate = 0
	return cfg
}

func newTestClient(mutate ...func(*config.FetchConfig)) *Client {
	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg, logger.Discard())
}

func TestGetIdentities(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient()
	ctx := context.Background()

	_, err := c.Get(ctx, Request{URL: srv.URL, Identity: IdentityBot})
	require.NoError(t, err)
	assert.Equal(t, c.cfg.UserAgent, got.Get("User-Agent"))
	assert.Contains(t, got.Get("User-Agent"), "Web Search Bot")

	_, err = c.Get(ctx, Request{URL: srv.URL, Identity: IdentityFetcher})
	require.NoError(t, err)
	assert.Contains(t, got.Get("User-Agent"), "Content Fetcher Bot")

	_, err = c.Get(ctx, Request{URL: srv.URL, Identity: IdentityBrowser})
	require.NoError(t, err)
	assert.Contains(t, got.Get("User-Agent"), "Mozilla/5.0")
	assert.Equal(t, "en-US,en;q=0.5", got.Get("Accept-Language"))
	assert.Equal(t, "1", got.Get("Upgrade-Insecure-Requests"))
}

func TestGetMergesQuery(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
	}))
	defer srv.Close()

	c := newTestClient()
	_, err := c.Get(context.Background(), Request{
		URL:   srv.URL + "/html/?kl=us-en",
		Query: url.Values{"q": {"go & rust"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "go & rust", gotQuery.Get("q"))
	assert.Equal(t, "us-en", gotQuery.Get("kl"))
}

func TestGetFollowsRedirectsAndReportsFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("landed"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := newTestClient().Get(context.Background(), Request{URL: srv.URL + "/start"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/final", resp.URL)
	assert.Equal(t, "landed", string(resp.Body))
	assert.Equal(t, "text/plain", resp.ContentType)
}

func TestGetRedirectLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	c := newTestClient(func(cfg *config.FetchConfig) { cfg.MaxRedirects = 3 })
	_, err := c.Get(context.Background(), Request{URL: srv.URL + "/a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Contains(t, err.Error(), "stopped after 3 redirects")
}

func TestGetNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrHTTPStatus)
	assert.Contains(t, err.Error(), "403")
}

func TestGetBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer srv.Close()

	c := newTestClient(func(cfg *config.FetchConfig) { cfg.MaxBodyBytes = 10 })
	resp, err := c.Get(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.True(t, resp.Truncated)
	assert.Len(t, resp.Body, 10)
}

func TestGetDecodesLatin1(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("caf\xe9"))
	}))
	defer srv.Close()

	resp, err := newTestClient().Get(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "café", string(resp.Body))
}

func TestGetTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), Request{URL: srv.URL, Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestGetRejectsBadURLs(t *testing.T) {
	c := newTestClient()
	for _, u := range []string{"ftp://example.com/x", "http://", "::bad"} {
		_, err := c.Get(context.Background(), Request{URL: u})
		require.Error(t, err, u)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, u)
	}
}

func TestGetBlocksPrivateHosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("internal"))
	}))
	defer srv.Close()

	c := newTestClient(func(cfg *config.FetchConfig) { cfg.BlockPrivate = true })
	_, err := c.Get(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSSRFBlocked)
	assert.Equal(t, domain.CodeSSRFBlocked, domain.ErrorCodeOf(err))
}

func TestLimiterPerHost(t *testing.T) {
	c := newTestClient(func(cfg *config.FetchConfig) {
		cfg.HostRate = 1
		cfg.HostBurst = 2
	})
	a := c.limiterFor("Example.com")
	assert.Same(t, a, c.limiterFor("example.com"))
	assert.NotSame(t, a, c.limiterFor("other.example"))

	none := newTestClient()
	assert.Nil(t, none.limiterFor("example.com"))
}

func TestWaitHonoursContext(t *testing.T) {
	c := newTestClient(func(cfg *config.FetchConfig) {
		cfg.HostRate = 0.001
		cfg.HostBurst = 1
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, c.wait(ctx, "slow.example"))
	assert.Error(t, c.wait(ctx, "slow.example"))
}

func TestIdentityString(t *testing.T) {
	assert.Equal(t, "bot", IdentityBot.String())
	assert.Equal(t, "browser", IdentityBrowser.String())
	assert.Equal(t, "unknown", Identity(42).String())
}
