package extract

import (
	"html"
	"regexp"

	"webscout/internal/domain"
)

var (
	scriptPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script\s*>`)
	stylePattern   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style\s*>`)
	commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	titlePattern   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title\s*>`)
	breakPattern   = regexp.MustCompile(`(?i)<(?:br|/?(?:p|div|li|h[1-6]|tr|section|article|blockquote|pre))\b[^>]*>`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
)

// patternArm is the lower-fidelity HTML path used when the document cannot
// be parsed into a tree.
func patternArm(body []byte, source string) domain.ExtractedContent {
	doc := string(body)

	title := hostTitle(source)
	if m := titlePattern.FindStringSubmatch(doc); m != nil {
		if t := collapse(html.UnescapeString(tagPattern.ReplaceAllString(m[1], ""))); t != "" {
			title = t
		}
	}

	return domain.ExtractedContent{
		Title:   title,
		Content: finish(stripMarkup(doc)),
		Metadata: map[string]string{
			domain.MetaFormat: FormatHTML.String(),
			domain.MetaParser: "pattern",
		},
		Source: source,
	}
}

// stripMarkup removes scripts, styles, comments and tags, keeping block
// boundaries as line breaks.
func stripMarkup(doc string) string {
	doc = scriptPattern.ReplaceAllString(doc, "")
	doc = stylePattern.ReplaceAllString(doc, "")
	doc = commentPattern.ReplaceAllString(doc, "")
	doc = titlePattern.ReplaceAllString(doc, "")
	doc = breakPattern.ReplaceAllString(doc, "\n")
	doc = tagPattern.ReplaceAllString(doc, "")
	return html.UnescapeString(doc)
}
