package textmetrics

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the NFC-normalized, Unicode case-folded form of s.
// A new Caser is built per call: cases.Caser is stateful and not safe to share.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// StripAccents removes combining marks after canonical decomposition, so
// "é" becomes "e". Letters without a decomposition are left unchanged.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeForMatch folds case, collapses whitespace and straightens curly
// quotes so two renderings of the same prose compare equal.
func NormalizeForMatch(s string) string {
	s = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`).Replace(s)
	return CollapseSpace(Fold(s))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// CountPhrase counts whole-word, case-insensitive occurrences of phrase in
// text. Boundaries are Unicode letter/digit boundaries, so "café" does not
// match inside "cafés" and "is" does not match inside "this". Whitespace
// inside the phrase matches any whitespace run in the text.
func CountPhrase(text, phrase string) int {
	p := NormalizeForMatch(phrase)
	if p == "" {
		return 0
	}
	t := NormalizeForMatch(text)

	first, _ := utf8.DecodeRuneInString(p)
	last, _ := utf8.DecodeLastRuneInString(p)
	checkStart := isWordRune(first)
	checkEnd := isWordRune(last)

	count := 0
	for i := 0; i <= len(t)-len(p); {
		j := strings.Index(t[i:], p)
		if j < 0 {
			break
		}
		start := i + j
		end := start + len(p)
		if boundaryOK(t, start, end, checkStart, checkEnd) {
			count++
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(t[start:])
		i = start + size
	}
	return count
}

func boundaryOK(t string, start, end int, checkStart, checkEnd bool) bool {
	if checkStart && start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(t[:start]); isWordRune(r) {
			return false
		}
	}
	if checkEnd && end < len(t) {
		if r, _ := utf8.DecodeRuneInString(t[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

// ContainsPhrase reports whether phrase occurs in text as a whole word/phrase.
func ContainsPhrase(text, phrase string) bool {
	return CountPhrase(text, phrase) > 0
}

// CountLetter counts case-insensitive occurrences of a single letter.
func CountLetter(text, letter string) int {
	letter = strings.TrimSpace(letter)
	if utf8.RuneCountInString(letter) != 1 {
		return 0
	}
	n := 0
	for _, r := range text {
		if strings.EqualFold(string(r), letter) {
			n++
		}
	}
	return n
}

// CountStartingWith counts words (after markdown noise is stripped) whose
// first letter matches letter case-insensitively, accents ignored.
func CountStartingWith(text, letter string) int {
	target := Fold(StripAccents(strings.TrimSpace(letter)))
	if target == "" {
		return 0
	}
	n := 0
	for _, w := range Tokens(Clean(StripMarkdownNoise(text))) {
		r, _ := utf8.DecodeRuneInString(w)
		if Fold(StripAccents(string(r))) == target {
			n++
		}
	}
	return n
}

// VowelConsonantCounts counts Latin vowels (a e i o u) and consonants after
// accent stripping. Letters outside a-z count as neither.
func VowelConsonantCounts(text string) (vowels, consonants int) {
	for _, r := range strings.ToLower(StripAccents(Clean(text))) {
		if r < 'a' || r > 'z' {
			continue
		}
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			vowels++
		default:
			consonants++
		}
	}
	return vowels, consonants
}
