package constraints

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

var placeholder = regexp.MustCompile(`\[[^\[\]\n]+\]`)

func checkStartsWith(text string, p StartsWith) Verdict {
	body := textmetrics.NormalizeForMatch(textmetrics.StripMarkdownNoise(text))
	body = strings.TrimLeftFunc(body, func(r rune) bool { return !isWordChar(r) })
	want := textmetrics.NormalizeForMatch(p.Phrase)
	want = strings.TrimLeftFunc(want, func(r rune) bool { return !isWordChar(r) })
	if want == "" {
		return unresolved("empty start phrase")
	}
	ok := strings.HasPrefix(body, want)
	if ok && len(body) > len(want) {
		last, _ := utf8.DecodeLastRuneInString(want)
		next, _ := utf8.DecodeRuneInString(body[len(want):])
		ok = !isWordChar(last) || !isWordChar(next)
	}
	return check(ok, "starts with %q (want %q)", truncate(body, len(want)+10), p.Phrase)
}

func checkEndsWith(text string, p EndsWith) Verdict {
	want := textmetrics.Tokens(textmetrics.Fold(p.Phrase))
	if len(want) == 0 {
		return unresolved("empty end phrase")
	}
	got := textmetrics.Tokens(textmetrics.Fold(textmetrics.StripMarkdownNoise(text)))
	if len(got) < len(want) {
		return fail("response has fewer words than the end phrase")
	}
	tail := got[len(got)-len(want):]
	ok := strings.Join(tail, " ") == strings.Join(want, " ")
	return check(ok, "ends with %q (want %q)", strings.Join(tail, " "), p.Phrase)
}

func checkWrappedIn(text string, p WrappedIn) Verdict {
	body := strings.TrimSpace(text)
	phrase := strings.TrimSpace(p.Phrase)
	if phrase == "" {
		return unresolved("empty wrap phrase")
	}
	ok := len(body) >= 2*len(phrase) &&
		strings.HasPrefix(textmetrics.Fold(body), textmetrics.Fold(phrase)) &&
		strings.HasSuffix(textmetrics.Fold(body), textmetrics.Fold(phrase))
	return check(ok, "wrapped in %q", phrase)
}

func checkQuotation(text string) Verdict {
	body := strings.TrimSpace(text)
	if utf8.RuneCountInString(body) < 2 {
		return fail("response too short to be quoted")
	}
	first, _ := utf8.DecodeRuneInString(body)
	last, _ := utf8.DecodeLastRuneInString(body)
	ok := (first == '"' && last == '"') || (first == '“' && last == '”')
	return check(ok, "opens with %q and closes with %q", first, last)
}

func countPlaceholders(text string) int {
	n := 0
	for _, loc := range placeholder.FindAllStringIndex(text, -1) {
		if strings.HasPrefix(text[loc[1]:], "(") {
			continue
		}
		n++
	}
	return n
}

func digitCount(text string) int { return textmetrics.CountDigits(text) }

func checkPostscript(text string, p Postscript) Verdict {
	marker := strings.TrimSpace(p.Marker)
	re, err := regexp.Compile(`(?im)^\s*(?:\*\*)?` + regexp.QuoteMeta(marker) + `(?:\*\*)?\s*[:.]?\s*[\p{L}\p{N}]`)
	if err != nil {
		return unresolved("bad postscript marker %q", marker)
	}
	return check(re.MatchString(text), "postscript %q present", marker)
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
