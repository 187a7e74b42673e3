package backend

import (
	"net/url"
	"strings"

	"webscout/internal/domain"
)

// Filter drops candidates whose host is denylisted. An entry matches the
// host itself and all of its subdomains; an entry with a port matches only
// that host and port.
type Filter struct {
	hosts []string
}

// NewFilter builds a Filter from one or more host lists.
func NewFilter(lists ...[]string) *Filter {
	f := &Filter{}
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, h := range list {
			h = normalizeHost(h)
			if h == "" || seen[h] {
				continue
			}
			seen[h] = true
			f.hosts = append(f.hosts, h)
		}
	}
	return f
}

// Blocked reports whether rawURL points at a denylisted host.
func (f *Filter) Blocked(rawURL string) bool {
	if f == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := normalizeHost(u.Hostname())
	hostPort := normalizeHost(u.Host)
	for _, h := range f.hosts {
		if host == h || hostPort == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Apply returns cands without denylisted or repeated URLs. Synthetic
// candidates and candidates without a web URL are kept as is.
func (f *Filter) Apply(cands []domain.Candidate) []domain.Candidate {
	if len(cands) == 0 {
		return cands
	}
	out := make([]domain.Candidate, 0, len(cands))
	seen := make(map[string]bool, len(cands))
	for _, c := range cands {
		if c.Synthetic || !c.HasWebURL() {
			out = append(out, c)
			continue
		}
		if f.Blocked(c.URL) || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimSuffix(h, ".")
	return strings.TrimPrefix(h, "www.")
}
