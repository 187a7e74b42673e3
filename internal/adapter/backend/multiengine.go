package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"webscout/internal/adapter/extract"
	"webscout/internal/adapter/fetch"
	"webscout/internal/domain"
	"webscout/internal/infra/config"
)

type engine struct {
	name     string
	url      string
	patterns []*regexp.Regexp
	own      *Filter
}

// MultiEngine scrapes several results pages in order and follows the
// destination links it finds.
type MultiEngine struct {
	fetcher      Fetcher
	engines      []engine
	fallbackURL  string
	denylist     *Filter
	titleTimeout time.Duration
	logger       *slog.Logger
}

// NewMultiEngine compiles the engine patterns. Invalid patterns are a
// configuration error. Links on denylisted hosts are dropped before they
// count toward max or get fetched for titles; denylist may be nil.
func NewMultiEngine(fetcher Fetcher, cfg config.BackendsConfig, denylist *Filter, titleTimeout time.Duration, logger *slog.Logger) (*MultiEngine, error) {
	engines := make([]engine, 0, len(cfg.Engines))
	for _, ec := range cfg.Engines {
		e := engine{name: ec.Name, url: ec.URL}
		for _, p := range ec.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("engine %s: %w", ec.Name, err)
			}
			e.patterns = append(e.patterns, re)
		}
		own := append([]string(nil), ec.Domains...)
		if u, err := url.Parse(strings.ReplaceAll(ec.URL, "{query}", "q")); err == nil {
			own = append(own, u.Host)
		}
		e.own = NewFilter(own)
		engines = append(engines, e)
	}
	return &MultiEngine{
		fetcher:      fetcher,
		engines:      engines,
		fallbackURL:  cfg.FallbackURL,
		denylist:     denylist,
		titleTimeout: titleTimeout,
		logger:       logger,
	}, nil
}

func (m *MultiEngine) Name() string { return NameMultiEngine }

func (m *MultiEngine) Lookup(ctx context.Context, query string, max int) ([]domain.Candidate, error) {
	var (
		found []string
		seen  = make(map[string]bool)
		errs  []error
	)

	for _, e := range m.engines {
		if len(found) >= max {
			break
		}
		links, err := m.scrape(ctx, e, query)
		if err != nil {
			m.logger.Debug("engine failed", "engine", e.name, "error", err)
			errs = append(errs, domain.WrapOp(e.name, err))
			continue
		}
		for _, link := range links {
			if len(found) >= max {
				break
			}
			if seen[link] {
				continue
			}
			seen[link] = true
			found = append(found, link)
		}
		m.logger.Debug("engine scraped", "engine", e.name, "links", len(links))
	}

	if len(found) == 0 {
		fallback := m.fallback(query)
		if len(errs) == len(m.engines) && len(errs) > 0 {
			return fallback, errors.Join(errs...)
		}
		return fallback, nil
	}

	cands := make([]domain.Candidate, 0, len(found))
	for _, link := range found {
		cands = append(cands, m.titled(ctx, link))
	}
	return cands, nil
}

// scrape fetches one results page and returns the destination URLs of the
// first pattern that matches anything.
func (m *MultiEngine) scrape(ctx context.Context, e engine, query string) ([]string, error) {
	pageURL := strings.ReplaceAll(e.url, "{query}", url.QueryEscape(query))
	resp, err := m.fetcher.Get(ctx, fetch.Request{URL: pageURL, Identity: fetch.IdentityBrowser})
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(resp.URL)
	body := string(resp.Body)

	for _, re := range e.patterns {
		matches := re.FindAllStringSubmatch(body, -1)
		if len(matches) == 0 {
			continue
		}
		var links []string
		for _, match := range matches {
			dest := resolveResultURL(match[1], base)
			if dest == "" || e.own.Blocked(dest) || m.denylist.Blocked(dest) {
				continue
			}
			links = append(links, dest)
		}
		return links, nil
	}
	return nil, nil
}

// titled fetches link with the short title timeout to learn its title. A
// successful fetch also serves as the candidate's extracted content.
func (m *MultiEngine) titled(ctx context.Context, link string) domain.Candidate {
	c := domain.Candidate{URL: link}
	resp, err := m.fetcher.Get(ctx, fetch.Request{
		URL:      link,
		Identity: fetch.IdentityFetcher,
		Timeout:  m.titleTimeout,
	})
	if err != nil {
		m.logger.Debug("title fetch failed", "url", link, "error", err)
		c.Title = titleFromURL(link)
		return c
	}
	content := extract.FromBytes(resp.Body, resp.ContentType, resp.URL)
	c.Title = content.Title
	if content.Failed() {
		c.Title = titleFromURL(link)
	}
	c.Prefetched = &content
	return c
}

func (m *MultiEngine) fallback(query string) []domain.Candidate {
	names := make([]string, 0, len(m.engines))
	for _, e := range m.engines {
		names = append(names, e.name)
	}
	return []domain.Candidate{{
		Title:     "Web search results for: " + query,
		URL:       strings.ReplaceAll(m.fallbackURL, "{query}", url.QueryEscape(query)),
		Snippet:   "No direct results could be extracted. Searched multiple engines: " + strings.Join(names, ", ") + ".",
		Synthetic: true,
	}}
}
