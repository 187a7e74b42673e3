package backend

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"webscout/internal/domain"
	"webscout/internal/infra/config"
)

// Matcher recognizes query categories.
type Matcher struct {
	categories []config.CategoryConfig
}

// NewMatcher creates a Matcher over categories, checked in order.
func NewMatcher(categories []config.CategoryConfig) Matcher {
	return Matcher{categories: categories}
}

// Match is a recognized category together with the query's subject.
type Match struct {
	Category config.CategoryConfig
	Subject  string
}

// Match returns the first category with a keyword among the query's words.
func (m Matcher) Match(query string) (Match, bool) {
	words := queryWords(query)
	for _, cat := range m.categories {
		for _, kw := range cat.Keywords {
			if slices.Contains(words, strings.ToLower(kw)) {
				return Match{Category: cat, Subject: subjectOf(words, cat)}, true
			}
		}
	}
	return Match{}, false
}

// Candidates expands the category templates for the subject, at most max.
func (m Match) Candidates(max int) []domain.Candidate {
	templates := m.Category.Templates
	if max > 0 && len(templates) > max {
		templates = templates[:max]
	}
	urlRepl := strings.NewReplacer(
		"{subject}", url.PathEscape(m.Subject),
		"{Subject}", url.PathEscape(titleCase(m.Subject)),
	)
	titleRepl := strings.NewReplacer(
		"{subject}", m.Subject,
		"{Subject}", titleCase(m.Subject),
	)
	out := make([]domain.Candidate, 0, len(templates))
	for _, t := range templates {
		out = append(out, domain.Candidate{
			Title: titleRepl.Replace(t.Title),
			URL:   urlRepl.Replace(t.URL),
		})
	}
	return out
}

// subjectOf is the first word that is neither a stopword nor a keyword.
func subjectOf(words []string, cat config.CategoryConfig) string {
	for _, w := range words {
		if !containsFold(cat.Stopwords, w) && !containsFold(cat.Keywords, w) {
			return w
		}
	}
	return cat.DefaultSubject
}

func queryWords(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Category is the shortcut for recognized query categories. Its candidates
// come from fixed URL templates and are extracted straight away.
type Category struct {
	matcher   Matcher
	extractor domain.Extractor
}

// NewCategory creates the category source. extractor may be nil, in which
// case candidates are returned without prefetched content.
func NewCategory(categories []config.CategoryConfig, extractor domain.Extractor) *Category {
	return &Category{matcher: NewMatcher(categories), extractor: extractor}
}

func (c *Category) Name() string { return NameCategory }

func (c *Category) Lookup(ctx context.Context, query string, max int) ([]domain.Candidate, error) {
	m, ok := c.matcher.Match(query)
	if !ok {
		return nil, nil
	}
	cands := m.Candidates(max)
	if c.extractor == nil {
		return cands, nil
	}
	for i := range cands {
		content := c.extractor.Extract(ctx, cands[i].URL)
		cands[i].Prefetched = &content
	}
	return cands, nil
}
