package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"webscout/internal/adapter/textclean"
	"webscout/internal/domain"
)

// minBlockChars is the length a block's text must exceed to be kept.
const minBlockChars = 10

// newDocument parses HTML. Replaced in tests to exercise the pattern path.
var newDocument = goquery.NewDocumentFromReader

// mainSelectors are tried in order; the first match holding text wins.
var mainSelectors = []string{
	"main",
	"article",
	`[role="main"]`,
	".content",
	"#content",
	".post-content",
	".entry-content",
	".article-content",
	".story-body",
	".post-body",
	".content-body",
	".article-body",
	".text-content",
	"#main",
}

// noiseSelector matches page chrome removed from the content region.
var noiseSelector = strings.Join([]string{
	"script", "style", "noscript", "template",
	"nav", "header", "footer", "aside", "menu", "menuitem",
	"button", "form", "input", "select", "textarea",
	"iframe", "embed", "object", "svg", "canvas",
	".nav", ".navbar", ".navigation", ".menu", ".sidebar", ".footer", ".header",
	".advertisement", ".ads", ".ad", ".social", ".share", ".comment", ".comments",
	".related-posts", ".breadcrumb", ".pagination", ".toc", ".cookie-banner",
}, ", ")

// blockSelector lists the elements whose text is assembled into content.
const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre, td, th, dt, dd, figcaption, div, section"

// containerTags contribute only their own text; their block children are
// visited separately.
var containerTags = map[string]bool{"div": true, "section": true}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tbody": true,
	"td": true, "tfoot": true, "th": true, "thead": true, "tr": true,
	"ul": true,
}

// docRule reads one value from a parsed page, or "" when absent.
type docRule func(doc *goquery.Document, meta map[string]string) string

var titleRules = []docRule{
	func(doc *goquery.Document, _ map[string]string) string { return doc.Find("title").First().Text() },
	func(_ *goquery.Document, meta map[string]string) string { return meta["og:title"] },
	func(doc *goquery.Document, _ map[string]string) string { return doc.Find("h1").First().Text() },
	func(_ *goquery.Document, meta map[string]string) string { return meta["twitter:title"] },
}

var metadataRules = []struct {
	key  string
	rule docRule
}{
	{domain.MetaDescription, metaValue("description")},
	{domain.MetaOGDesc, metaValue("og:description")},
	{domain.MetaLanguage, func(doc *goquery.Document, _ map[string]string) string {
		lang, _ := doc.Find("html").First().Attr("lang")
		return lang
	}},
	{domain.MetaKeywords, metaValue("keywords")},
}

func metaValue(key string) docRule {
	return func(_ *goquery.Document, meta map[string]string) string { return meta[key] }
}

func htmlArm(body []byte, source string) domain.ExtractedContent {
	doc, err := newDocument(bytes.NewReader(body))
	if err != nil {
		return patternArm(body, source)
	}

	meta := metaTags(doc)
	metadata := map[string]string{
		domain.MetaFormat: FormatHTML.String(),
		domain.MetaParser: "goquery",
	}
	for _, r := range metadataRules {
		if v := collapse(r.rule(doc, meta)); v != "" {
			metadata[r.key] = v
		}
	}
	// Title comes first: the first <h1> may sit in chrome removed below.
	title := pageTitle(doc, meta, source)

	region := mainRegion(doc)
	region.Find(noiseSelector).Remove()

	text := assemble(region)
	if text == "" {
		text = finish(walkText(region.Nodes, '\n', false))
	}

	return domain.ExtractedContent{
		Title:    title,
		Content:  text,
		Metadata: metadata,
		Source:   source,
	}
}

// metaTags indexes <meta> content by lowercased name or property. The first
// occurrence of a key wins.
func metaTags(doc *goquery.Document) map[string]string {
	out := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content := collapse(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		for _, attr := range []string{"name", "property"} {
			key := strings.ToLower(strings.TrimSpace(s.AttrOr(attr, "")))
			if key == "" {
				continue
			}
			if _, seen := out[key]; !seen {
				out[key] = content
			}
		}
	})
	return out
}

func pageTitle(doc *goquery.Document, meta map[string]string, source string) string {
	for _, rule := range titleRules {
		if t := collapse(rule(doc, meta)); t != "" {
			return t
		}
	}
	return hostTitle(source)
}

// mainRegion picks the first selector match that still has text once noise
// is removed, so a region holding only scripts or navigation is skipped.
func mainRegion(doc *goquery.Document) *goquery.Selection {
	for _, sel := range mainSelectors {
		match := doc.Find(sel).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.TrimSpace(visibleText(s)) != ""
		}).First()
		if match.Length() > 0 {
			return match
		}
	}
	if body := doc.Find("body"); body.Length() > 0 {
		return body.First()
	}
	return doc.Selection
}

// visibleText is the text of s without noise elements. s is not modified.
func visibleText(s *goquery.Selection) string {
	c := s.Clone()
	c.Find(noiseSelector).Remove()
	return c.Text()
}

// assemble joins the text of qualifying blocks in document order. Text of a
// kept leaf block is not repeated for blocks nested inside it.
func assemble(region *goquery.Selection) string {
	taken := make(map[*html.Node]bool)
	var pieces []string

	region.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		if insideTaken(n, taken) {
			return
		}
		container := containerTags[n.Data]
		text := collapse(walkText([]*html.Node{n}, ' ', container))
		if utf8.RuneCountInString(text) <= minBlockChars {
			return
		}
		pieces = append(pieces, text)
		if !container {
			taken[n] = true
		}
	})
	return finish(strings.Join(pieces, "\n\n"))
}

func insideTaken(n *html.Node, taken map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if taken[p] {
			return true
		}
	}
	return false
}

// walkText concatenates the text below roots, writing sep at block
// boundaries. With ownOnly set, block descendants are skipped.
func walkText(roots []*html.Node, sep byte, ownOnly bool) string {
	var sb strings.Builder
	var walk func(n *html.Node, root bool)
	walk = func(n *html.Node, root bool) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				sb.WriteByte(sep)
				return
			}
			if blockTags[n.Data] {
				if ownOnly && !root {
					return
				}
				sb.WriteByte(sep)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, false)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			sb.WriteByte(sep)
		}
	}
	for _, n := range roots {
		walk(n, true)
	}
	return sb.String()
}

func finish(text string) string {
	return textclean.Clean(textclean.FilterJunk(text))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
