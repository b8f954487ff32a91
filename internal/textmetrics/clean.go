// Package textmetrics provides the counting and extraction primitives used by
// the constraint engine and the validation orchestrator.
//
// Every prose count (words, sentences, paragraphs, characters) runs on text
// that has been passed through Clean first, so markup never inflates a count.
// Callers that need the markup itself (list detection, titles, JSON blocks)
// read the raw text instead.
package textmetrics

import (
	"regexp"
	"strings"
)

var (
	// hrLine matches markdown horizontal rules: ---, ***, ___ (spaces allowed).
	hrLine = regexp.MustCompile(`^\s*(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,})$`)

	// tableSeparator matches the |---|:---:| row of a markdown table.
	tableSeparator = regexp.MustCompile(`^\s*\|?\s*:?-{3,}:?\s*(?:\|\s*:?-{3,}:?\s*)+\|?\s*$`)

	headingPrefix = regexp.MustCompile(`^\s{0,3}#{1,6}\s+`)
	headingSuffix = regexp.MustCompile(`\s+#+\s*$`)

	// listPrefix matches bullet and ordered-list markers at line start.
	listPrefix = regexp.MustCompile(`^\s*(?:[-*+•‣◦]|\d{1,3}[.)])\s+`)

	emphasisRun = regexp.MustCompile("(\\*{1,3}|_{2,3}|~~|`+)")
	linkSyntax  = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	quotePrefix = regexp.MustCompile(`(?m)^\s*>+\s?`)
)

// Clean normalizes a response so counts reflect prose rather than markup.
// Table blocks and horizontal rules become paragraph breaks; heading markers
// and list-item prefixes are removed while their text is kept.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	inTable := false
	for _, line := range lines {
		if isTableLine(line) {
			if !inTable {
				out = append(out, "")
				inTable = true
			}
			continue
		}
		inTable = false

		if hrLine.MatchString(line) {
			out = append(out, "")
			continue
		}
		if headingPrefix.MatchString(line) {
			line = headingPrefix.ReplaceAllString(line, "")
			line = headingSuffix.ReplaceAllString(line, "")
		}
		line = listPrefix.ReplaceAllString(line, "")
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isTableLine(line string) bool {
	t := strings.TrimSpace(line)
	if len(t) < 2 {
		return false
	}
	if strings.HasPrefix(t, "|") && strings.HasSuffix(t, "|") {
		return true
	}
	return tableSeparator.MatchString(t)
}

// StripMarkdownNoise removes inline emphasis, code ticks, link syntax and
// blockquote markers, keeping the visible text.
func StripMarkdownNoise(text string) string {
	text = linkSyntax.ReplaceAllString(text, "$1")
	text = quotePrefix.ReplaceAllString(text, "")
	text = emphasisRun.ReplaceAllString(text, "")
	return text
}

// CollapseSpace joins all whitespace runs into single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
