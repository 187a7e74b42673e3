package extract

import (
	"encoding/json"
	"html"
	"slices"
	"strings"
	"unicode/utf8"

	"webscout/internal/adapter/textclean"
	"webscout/internal/domain"
)

const (
	maxJSONDepth    = 4
	minJSONValueLen = 20
	plainContentCap = 2000
)

// jsonArm collects long string values from a JSON document as "key: value"
// lines. Bodies that do not parse are handled as plain text.
func jsonArm(body []byte, source string) domain.ExtractedContent {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return textArm(body, source)
	}

	var lines []string
	collectJSON("", doc, 0, &lines)

	title := hostTitle(source)
	if obj, ok := doc.(map[string]any); ok {
		for _, key := range []string{"title", "name", "heading"} {
			if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
				title = collapse(s)
				break
			}
		}
	}

	return domain.ExtractedContent{
		Title:    title,
		Content:  textclean.Clean(strings.Join(lines, "\n\n")),
		Metadata: map[string]string{domain.MetaFormat: FormatJSON.String()},
		Source:   source,
	}
}

func collectJSON(key string, v any, depth int, out *[]string) {
	if depth > maxJSONDepth {
		return
	}
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			collectJSON(k, val[k], depth+1, out)
		}
	case []any:
		for _, item := range val {
			collectJSON(key, item, depth+1, out)
		}
	case string:
		s := strings.TrimSpace(val)
		if utf8.RuneCountInString(s) <= minJSONValueLen {
			return
		}
		if key == "" {
			*out = append(*out, s)
			return
		}
		*out = append(*out, key+": "+s)
	}
}

// xmlArm strips markup and caps the remaining text.
func xmlArm(body []byte, source string) domain.ExtractedContent {
	doc := string(body)
	title := hostTitle(source)
	if m := titlePattern.FindStringSubmatch(doc); m != nil {
		if t := collapse(html.UnescapeString(tagPattern.ReplaceAllString(m[1], ""))); t != "" {
			title = t
		}
	}

	text := commentPattern.ReplaceAllString(doc, "")
	text = tagPattern.ReplaceAllString(text, " ")
	text = collapse(html.UnescapeString(text))

	return domain.ExtractedContent{
		Title:    title,
		Content:  textclean.Truncate(text, plainContentCap, ""),
		Metadata: map[string]string{domain.MetaFormat: FormatXML.String()},
		Source:   source,
	}
}

// textArm cleans any other textual body and caps it.
func textArm(body []byte, source string) domain.ExtractedContent {
	return domain.ExtractedContent{
		Title:    hostTitle(source),
		Content:  textclean.Truncate(textclean.Clean(string(body)), plainContentCap, ""),
		Metadata: map[string]string{domain.MetaFormat: FormatText.String()},
		Source:   source,
	}
}

// unsupportedArm rejects bodies that cannot be read as text, such as PDFs
// and images, so they never count as page content.
func unsupportedArm(_ []byte, source string) domain.ExtractedContent {
	c := Failure(source, domain.NewDomainError("extract.FromBytes", domain.ErrUnparseable, "unsupported media type"))
	c.Metadata[domain.MetaFormat] = FormatUnsupported.String()
	return c
}
