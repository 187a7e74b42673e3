package textclean

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzClean checks idempotence and the whitespace invariants of Clean.
func FuzzClean(f *testing.F) {
	f.Add("")
	f.Add("hello   world")
	f.Add("a\n\n\n\nb")
	f.Add("\r\n\t\x00\x1b[31m")
	f.Add("\u00a0 \u2028\u200b")
	f.Add("\xff\xfe")
	f.Add(strings.Repeat(" \n", 500))

	f.Fuzz(func(t *testing.T, input string) {
		once := Clean(input)

		// Invariant 1: idempotent.
		if twice := Clean(once); twice != once {
			t.Fatalf("Clean not idempotent: %q -> %q -> %q", input, once, twice)
		}

		// Invariant 2: no surrounding whitespace and no 3+ newline runs.
		if strings.TrimSpace(once) != once {
			t.Errorf("Clean left surrounding whitespace: %q", once)
		}
		if strings.Contains(once, "\n\n\n") {
			t.Errorf("Clean left blank-line run: %q", once)
		}

		// Invariant 3: valid UTF-8 out.
		if !utf8.ValidString(once) {
			t.Errorf("Clean produced invalid UTF-8: %q", once)
		}
	})
}

// FuzzSnippet checks the truncation law for arbitrary text.
func FuzzSnippet(f *testing.F) {
	f.Add(strings.Repeat("x", 900), 800)
	f.Add(strings.Repeat("a. ", 400), 800)
	f.Add("short", 10)
	f.Add("日本語のテキスト。", 3)

	f.Fuzz(func(t *testing.T, input string, window int) {
		if window <= 0 || window > 5000 {
			return
		}
		input = strings.ToValidUTF8(input, "")
		got := Snippet(input, window)
		n := utf8.RuneCountInString(got)
		if utf8.RuneCountInString(input) <= window {
			if got != input {
				t.Fatalf("short input altered: %q -> %q", input, got)
			}
			return
		}
		if strings.HasSuffix(got, "...") && n == window+3 {
			return
		}
		if !strings.HasSuffix(got, ".") || n > window || n <= window/2 {
			t.Fatalf("snippet violates truncation law: window=%d len=%d %q", window, n, got)
		}
	})
}
