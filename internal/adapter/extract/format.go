package extract

import (
	"mime"
	"strings"
)

// Format is the extraction arm selected from a response's Content-Type.
type Format int

const (
	FormatHTML Format = iota
	FormatJSON
	FormatXML
	FormatText
	// FormatUnsupported covers binary and other non-textual media types.
	FormatUnsupported
)

// textualTypes are non-text/* media types whose bodies are readable text.
var textualTypes = []string{
	"javascript", "ecmascript", "yaml", "toml", "csv", "markdown",
	"x-sh", "sql", "graphql", "x-tex", "x-www-form-urlencoded",
}

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	case FormatText:
		return "text"
	case FormatUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// FormatOf resolves a Content-Type header value to a Format. A missing
// header is treated as HTML, and XHTML is HTML rather than XML. Media types
// that are neither text/* nor a known textual type are unsupported.
func FormatOf(contentType string) Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	switch {
	case mediaType == "":
		return FormatHTML
	case mediaType == "text/html" || strings.Contains(mediaType, "xhtml"):
		return FormatHTML
	case strings.Contains(mediaType, "json"):
		return FormatJSON
	case strings.Contains(mediaType, "xml"):
		return FormatXML
	case strings.HasPrefix(mediaType, "text/"):
		return FormatText
	}
	_, subtype, _ := strings.Cut(mediaType, "/")
	for _, t := range textualTypes {
		if strings.Contains(subtype, t) {
			return FormatText
		}
	}
	return FormatUnsupported
}
