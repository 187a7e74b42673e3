package backend

import (
	"html"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// resolveResultURL turns an href scraped from a results page into a
// destination URL. Relative links are resolved against base, and redirect
// links carrying the target in "uddg" are unwrapped. Returns "" for
// anything that is not http(s).
func resolveResultURL(href string, base *url.URL) string {
	href = html.UnescapeString(strings.TrimSpace(href))
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if target := u.Query().Get("uddg"); target != "" {
		if t, err := url.Parse(target); err == nil {
			u = t
		}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}

// cleanTitle decodes entities, strips markup and collapses whitespace.
func cleanTitle(s string) string {
	s = tagPattern.ReplaceAllString(html.UnescapeString(s), "")
	return strings.Join(strings.Fields(s), " ")
}

// titleFromURL derives a readable title when the page could not be fetched.
func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	seg := path.Base(strings.TrimSuffix(u.Path, "/"))
	if seg == "." || seg == "/" || seg == "" {
		return host
	}
	seg = strings.TrimSuffix(seg, path.Ext(seg))
	if unescaped, err := url.PathUnescape(seg); err == nil {
		seg = unescaped
	}
	seg = strings.Join(strings.FieldsFunc(seg, func(r rune) bool {
		return r == '-' || r == '_' || r == '+' || r == ' '
	}), " ")
	if seg == "" {
		return host
	}
	return titleCase(seg) + " - " + host
}
