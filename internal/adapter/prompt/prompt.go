// Package prompt frames search results and fetched pages as text appended
// to a user query before it reaches the chat model.
package prompt

import (
	"fmt"
	"strings"

	"webscout/internal/domain"
)

const (
	resultsHeader = "\n\n--- Web Search Results ---\n"
	resultsFooter = "\n--- End Search Results ---\n\n"
	resultsAsk    = "Please use the above web search results to provide a more comprehensive and up-to-date response to the following query:\n\n"

	pageHeader = "\n\n--- Website Content from %s ---\n"
	pageFooter = "\n--- End Website Content ---\n\n"
	pageAsk    = "Please use the above website content to provide a comprehensive response to the following query:\n\n"
)

// FormatForPrompt returns query unchanged when there are no results.
func FormatForPrompt(query string, results []domain.SearchResult) string {
	if len(results) == 0 {
		return query
	}
	var sb strings.Builder
	sb.WriteString(resultsHeader)
	for i, r := range results {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		}
		if r.URL != "" {
			fmt.Fprintf(&sb, "   Source: %s\n", r.URL)
		}
	}
	sb.WriteString(resultsFooter)
	sb.WriteString(resultsAsk)
	sb.WriteString(query)
	return sb.String()
}

// FormatPageForPrompt returns query unchanged when content is empty.
func FormatPageForPrompt(query, content, url string) string {
	if content == "" {
		return query
	}
	return fmt.Sprintf(pageHeader, url) + content + pageFooter + pageAsk + query
}

// FormatResults renders a plain listing for terminal output.
func FormatResults(query string, results []domain.SearchResult) string {
	if len(results) == 0 {
		return "No search results found for: " + query
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for: %s\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. **%s**\n", i+1, r.Title)
		if r.URL != "" {
			fmt.Fprintf(&sb, "   URL: %s\n", r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
