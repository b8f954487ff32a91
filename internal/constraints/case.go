package constraints

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

func checkAllCaps(text string) Verdict {
	lower, upper := textmetrics.CaseCounts(text)
	if upper == 0 {
		return fail("no cased letters")
	}
	return check(lower == 0, "lowercase letters: %d", lower)
}

func checkAllLowercase(text string) Verdict {
	lower, upper := textmetrics.CaseCounts(text)
	if lower == 0 {
		return fail("no cased letters")
	}
	return check(upper == 0, "uppercase letters: %d", upper)
}

func checkAlternatingCase(text string) Verdict {
	var prev rune
	seen := 0
	for i, r := range text {
		if !unicode.IsUpper(r) && !unicode.IsLower(r) {
			continue
		}
		if seen > 0 && unicode.IsUpper(r) == unicode.IsUpper(prev) {
			return fail("case repeats at byte %d (%q after %q)", i, r, prev)
		}
		prev = r
		seen++
	}
	if seen < 2 {
		return fail("fewer than two cased letters")
	}
	return pass("%d letters alternate", seen)
}

func checkFirstLetterCap(text string) Verdict {
	words := textmetrics.Tokens(textmetrics.Clean(textmetrics.StripMarkdownNoise(text)))
	if len(words) == 0 {
		return fail("no words")
	}
	var bad []string
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsLower(r) {
			bad = append(bad, w)
		}
	}
	if len(bad) > 0 {
		return fail("%d words not capitalized, e.g. %q", len(bad), bad[0])
	}
	return pass("all %d words capitalized", len(words))
}

func checkLastLetter(text string, p LastLetter) Verdict {
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	if trimmed == "" {
		return fail("empty response")
	}
	switch p.Case {
	case "uppercase", "lowercase":
		for i := len(trimmed); i > 0; {
			r, size := utf8.DecodeLastRuneInString(trimmed[:i])
			i -= size
			if !unicode.IsLetter(r) {
				continue
			}
			if p.Case == "uppercase" {
				return check(unicode.IsUpper(r), "last letter %q", r)
			}
			return check(unicode.IsLower(r), "last letter %q", r)
		}
		return fail("no letters")
	case "digit":
		r, _ := utf8.DecodeLastRuneInString(trimmed)
		return check(unicode.IsDigit(r), "last character %q", r)
	default:
		r, _ := utf8.DecodeLastRuneInString(trimmed)
		return check(!unicode.IsLetter(r) && !unicode.IsDigit(r), "last character %q", r)
	}
}

func checkCaseRatio(text string, p CaseRatio) Verdict {
	lower, upper := textmetrics.CaseCounts(text)
	if lower == 0 && upper == 0 {
		return fail("no cased letters")
	}
	ratio := inf
	if upper > 0 {
		ratio = float64(lower) / float64(upper)
	}
	ok := ratio >= p.Min && (math.IsInf(p.Max, 1) || ratio <= p.Max)
	return check(ok, "lower:upper = %d:%d (ratio %s, want [%s, %s])",
		lower, upper, fmtRatio(ratio), fmtRatio(p.Min), fmtRatio(p.Max))
}

func fmtRatio(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(f, 'f', 3, 64), "0"), ".")
}
