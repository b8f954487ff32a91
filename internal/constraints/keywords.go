package constraints

import (
	"strings"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

func checkKeywordFrequency(text string, p KeywordFrequency) Verdict {
	n := textmetrics.CountPhrase(text, p.Keyword)
	return check(p.Holds(n), "%q %s", p.Keyword, p.Describe(n))
}

func checkKeywordExistence(text string, p KeywordExistence) Verdict {
	var absent []string
	for _, kw := range p.Keywords {
		if !textmetrics.ContainsPhrase(text, kw) {
			absent = append(absent, kw)
		}
	}
	if len(absent) > 0 {
		return fail("missing keywords: %s", strings.Join(absent, ", "))
	}
	return pass("all %d keywords present", len(p.Keywords))
}

func checkForbiddenWords(text string, p ForbiddenWords) Verdict {
	var found []string
	for _, w := range p.Words {
		if textmetrics.ContainsPhrase(text, w) {
			found = append(found, w)
		}
	}
	if len(found) > 0 {
		return fail("forbidden words used: %s", strings.Join(found, ", "))
	}
	return pass("none of %d forbidden words used", len(p.Words))
}

func checkLetterFrequency(text string, p LetterFrequency) Verdict {
	if len([]rune(strings.TrimSpace(p.Letter))) != 1 {
		return unresolved("letter must be a single character, got %q", p.Letter)
	}
	n := textmetrics.CountLetter(textmetrics.Clean(text), p.Letter)
	return check(p.Holds(n), "letter %q %s", p.Letter, p.Describe(n))
}

func checkAlliteration(text string, p Alliteration) Verdict {
	n := textmetrics.CountStartingWith(text, p.Letter)
	return check(p.Holds(n), "words starting with %q: %s", p.Letter, p.Describe(n))
}

func vowelsAndConsonants(text string) (int, int) {
	return textmetrics.VowelConsonantCounts(text)
}
