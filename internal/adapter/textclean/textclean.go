// Package textclean normalizes extracted page text and filters navigation
// chrome out of it. Every function here is pure and safe for concurrent use.
package textclean

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSnippetWindow is the rune window used for result snippets.
const DefaultSnippetWindow = 800

// junkLineMaxLen is the length under which a line containing a
// navigation phrase is treated as chrome rather than prose.
const junkLineMaxLen = 50

// JunkPhrases are lowercase UI/navigation phrases that mark short lines as chrome.
var JunkPhrases = []string{
	"click here", "read more", "learn more", "sign up", "log in", "login",
	"subscribe", "newsletter", "follow us", "share this", "tweet",
	"facebook", "twitter", "instagram", "linkedin", "advertisement",
	"sponsored", "cookie", "privacy policy", "terms of service",
	"contact us", "about us", "home page", "menu", "navigation",
	"search", "loading",
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Clean collapses whitespace inside each line, drops control and other
// non-printable characters, squeezes two or more blank lines into one and
// trims the result. Clean(Clean(s)) == Clean(s) for every s.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.Map(func(r rune) rune {
		if r == '\n' || unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// IsJunkLine reports whether a line looks like navigation chrome:
// too short, almost no distinct characters, or a short line carrying a
// UI phrase such as "read more" or "privacy policy".
func IsJunkLine(line string) bool {
	line = strings.TrimSpace(line)
	n := utf8.RuneCountInString(line)
	if n < 3 {
		return true
	}

	distinct := make(map[rune]struct{}, 3)
	for _, r := range line {
		distinct[r] = struct{}{}
		if len(distinct) >= 3 {
			break
		}
	}
	if len(distinct) < 3 {
		return true
	}

	if n < junkLineMaxLen {
		lower := strings.ToLower(line)
		for _, p := range JunkPhrases {
			if strings.Contains(lower, p) {
				return true
			}
		}
	}
	return false
}

// FilterJunk removes junk lines from text. Empty lines are kept so that
// paragraph breaks survive.
func FilterJunk(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == "" || !IsJunkLine(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Snippet shortens text to at most window runes. When the window holds a
// period past its midpoint the cut lands right after that period; otherwise
// the window is cut hard and "..." appended.
func Snippet(text string, window int) string {
	if window <= 0 {
		window = DefaultSnippetWindow
	}
	runes := []rune(text)
	if len(runes) <= window {
		return text
	}
	head := runes[:window]
	for i := len(head) - 1; i > window/2; i-- {
		if head[i] == '.' {
			return string(head[:i+1])
		}
	}
	return string(head) + "..."
}

// Truncate caps text at max runes and appends marker when it cut anything.
func Truncate(text string, max int, marker string) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max]) + marker
}
