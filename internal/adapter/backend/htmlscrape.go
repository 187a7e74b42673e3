package backend

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"webscout/internal/adapter/fetch"
	"webscout/internal/domain"
)

// scrapePatternSets are tried in order; the first set with any match is
// used. Every pattern captures the href in group 1 and the anchor text in
// group 2.
var scrapePatternSets = [][]*regexp.Regexp{
	{
		regexp.MustCompile(`(?is)<a\s[^>]*href="([^"]*)"[^>]*class="[^"]*result[^"]*"[^>]*>(.*?)</a>`),
		regexp.MustCompile(`(?is)<a\s[^>]*class="[^"]*result[^"]*"[^>]*href="([^"]*)"[^>]*>(.*?)</a>`),
	},
	{regexp.MustCompile(`(?i)<a\s[^>]*href="(https?://[^"]*)"[^>]*>([^<]+)</a>`)},
	{regexp.MustCompile(`(?i)href="(https?://[^"]*)"[^>]*>([^<]+?)</a>`)},
}

// scrapeDomains are the provider's own hosts, never returned as results.
var scrapeDomains = []string{"duckduckgo.com", "ddg.gg", "duck.co", "duckduckgo.org"}

// HTMLScrape reads one provider's plain HTML results page with a
// browser-like request signature.
type HTMLScrape struct {
	fetcher  Fetcher
	endpoint string
	own      *Filter
	denylist *Filter
	matcher  Matcher
	logger   *slog.Logger
}

// NewHTMLScrape creates the scrape source. matcher supplies the category
// templates used when the page yields no links at all. Links on denylisted
// hosts never count toward max; denylist may be nil.
func NewHTMLScrape(fetcher Fetcher, endpoint string, matcher Matcher, denylist *Filter, logger *slog.Logger) *HTMLScrape {
	own := append([]string(nil), scrapeDomains...)
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		own = append(own, u.Host)
	}
	return &HTMLScrape{
		fetcher:  fetcher,
		endpoint: endpoint,
		own:      NewFilter(own),
		denylist: denylist,
		matcher:  matcher,
		logger:   logger,
	}
}

func (h *HTMLScrape) Name() string { return NameHTMLScrape }

func (h *HTMLScrape) Lookup(ctx context.Context, query string, max int) ([]domain.Candidate, error) {
	resp, err := h.fetcher.Get(ctx, fetch.Request{
		URL: h.endpoint,
		Query: url.Values{
			"q":  {query},
			"b":  {""},
			"kl": {"us-en"},
			"df": {""},
			"s":  {"0"},
		},
		Identity: fetch.IdentityBrowser,
	})
	if err != nil {
		return nil, err
	}
	body := string(resp.Body)
	base, _ := url.Parse(resp.URL)

	var links [][]string
	for _, set := range scrapePatternSets {
		for _, re := range set {
			links = append(links, re.FindAllStringSubmatch(body, -1)...)
		}
		if len(links) > 0 {
			break
		}
	}

	if len(links) == 0 {
		if m, ok := h.matcher.Match(query); ok {
			h.logger.Debug("no links on results page, using category templates", "category", m.Category.Name)
			return m.Candidates(max), nil
		}
		return nil, nil
	}

	seen := make(map[string]bool)
	var cands []domain.Candidate
	for _, l := range links {
		dest := resolveResultURL(l[1], base)
		if dest == "" || h.own.Blocked(dest) || h.denylist.Blocked(dest) || seen[dest] {
			continue
		}
		title := cleanTitle(l[2])
		if utf8.RuneCountInString(strings.TrimSpace(title)) < 3 {
			continue
		}
		seen[dest] = true
		cands = append(cands, domain.Candidate{Title: title, URL: dest})
		if len(cands) >= max {
			break
		}
	}
	return cands, nil
}
