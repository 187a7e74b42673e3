// Package fetch is the single HTTP client shared by the extractor and the
// search backends. It owns default headers, per-host rate limiting, the
// redirect policy and body caps. Every request is made exactly once.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"webscout/internal/domain"
	"webscout/internal/infra/config"
	"webscout/internal/security"
)

// Identity selects the request signature.
type Identity int

const (
	// IdentityBot declares the descriptive search-bot User-Agent. Used for APIs.
	IdentityBot Identity = iota
	// IdentityFetcher declares the descriptive content-fetcher User-Agent.
	IdentityFetcher
	// IdentityBrowser sends a browser-like header set to reduce scrape blocking.
	IdentityBrowser
)

func (i Identity) String() string {
	switch i {
	case IdentityBot:
		return "bot"
	case IdentityFetcher:
		return "fetcher"
	case IdentityBrowser:
		return "browser"
	default:
		return "unknown"
	}
}

// maxLimiters bounds the per-host limiter map.
const maxLimiters = 1024

// Request describes one GET.
type Request struct {
	URL      string
	Query    url.Values // merged into URL's query string
	Identity Identity
	Timeout  time.Duration // 0 uses the page timeout
}

// Response is a fully read, UTF-8 decoded response.
type Response struct {
	URL         string // final URL after redirects
	StatusCode  int
	ContentType string
	Body        []byte
	Truncated   bool // body exceeded the configured cap
}

// Client performs rate-limited GETs.
type Client struct {
	http   *http.Client
	cfg    config.FetchConfig
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Client. With cfg.BlockPrivate set, private and loopback
// addresses are rejected both up front and at dial time.
func New(cfg config.FetchConfig, logger *slog.Logger) *Client {
	c := &Client{
		cfg:      cfg,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
	c.http = &http.Client{
		Transport:     security.NewTransport(security.TransportOptions{BlockPrivate: cfg.BlockPrivate}),
		CheckRedirect: c.checkRedirect,
	}
	return c
}

// Config returns the fetch settings the client was built with.
func (c *Client) Config() config.FetchConfig { return c.cfg }

// Get performs req and returns the decoded body. Non-2xx statuses are
// returned as ErrHTTPStatus errors; transport failures as ErrFetch.
func (c *Client) Get(ctx context.Context, req Request) (*Response, error) {
	target, err := buildURL(req.URL, req.Query)
	if err != nil {
		return nil, domain.NewDomainError("fetch.Get", domain.ErrInvalidInput, err.Error())
	}

	if c.cfg.BlockPrivate {
		if err := security.ValidateURL(ctx, target.String()); err != nil {
			return nil, err
		}
	}

	if err := c.wait(ctx, target.Host); err != nil {
		return nil, domain.NewDomainError("fetch.Get", domain.ErrRateLimit, err.Error())
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.cfg.PageTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, domain.NewDomainError("fetch.Get", domain.ErrInvalidInput, err.Error())
	}
	c.setHeaders(httpReq, req.Identity)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &domain.DomainError{
			Op:     "fetch.Get",
			Err:    fmt.Errorf("%w: %w", domain.ErrFetch, err),
			Detail: target.Host,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, domain.NewDomainError("fetch.Get", domain.ErrHTTPStatus,
			fmt.Sprintf("%s returned %d", target.Host, resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, &domain.DomainError{
			Op:     "fetch.Get",
			Err:    fmt.Errorf("%w: read body: %w", domain.ErrFetch, err),
			Detail: target.Host,
		}
	}
	truncated := int64(len(raw)) > c.cfg.MaxBodyBytes
	if truncated {
		raw = raw[:c.cfg.MaxBodyBytes]
	}

	contentType := resp.Header.Get("Content-Type")
	out := &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        decode(raw, contentType),
		Truncated:   truncated,
	}

	c.logger.Debug("fetched",
		"url", target.String(),
		"final_url", out.URL,
		"identity", req.Identity.String(),
		"status", resp.StatusCode,
		"bytes", len(out.Body),
		"elapsed", time.Since(start),
	)
	return out, nil
}

func (c *Client) setHeaders(r *http.Request, id Identity) {
	switch id {
	case IdentityBrowser:
		r.Header.Set("User-Agent", c.cfg.BrowserUserAgent)
		r.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Header.Set("Accept-Language", "en-US,en;q=0.5")
		r.Header.Set("Upgrade-Insecure-Requests", "1")
		r.Header.Set("DNT", "1")
	case IdentityFetcher:
		r.Header.Set("User-Agent", c.cfg.FetcherUserAgent)
		r.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	default:
		r.Header.Set("User-Agent", c.cfg.UserAgent)
		r.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.5")
	}
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= c.cfg.MaxRedirects {
		return fmt.Errorf("stopped after %d redirects", c.cfg.MaxRedirects)
	}
	if c.cfg.BlockPrivate {
		return security.ValidateURL(req.Context(), req.URL.String())
	}
	return nil
}

// wait blocks until the per-host limiter admits a request.
func (c *Client) wait(ctx context.Context, host string) error {
	lim := c.limiterFor(host)
	if lim == nil {
		return nil
	}
	return lim.Wait(ctx)
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	if c.cfg.HostRate <= 0 {
		return nil
	}
	host = strings.ToLower(host)

	c.mu.Lock()
	defer c.mu.Unlock()

	if lim, ok := c.limiters[host]; ok {
		return lim
	}
	if len(c.limiters) >= maxLimiters {
		c.limiters = make(map[string]*rate.Limiter)
	}
	lim := rate.NewLimiter(rate.Limit(c.cfg.HostRate), c.cfg.HostBurst)
	c.limiters[host] = lim
	return lim
}

func buildURL(raw string, query url.Values) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("only http and https URLs are supported")
	}
	if u.Host == "" {
		return nil, errors.New("missing host")
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// decode converts a textual body to UTF-8 using the declared or sniffed
// charset. Bodies that cannot be decoded are returned unchanged.
func decode(raw []byte, contentType string) []byte {
	if len(raw) == 0 {
		return raw
	}
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return raw
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return raw
	}
	return out
}
