package textmetrics

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// wordPattern is a run of letters, marks or digits, optionally joined by
	// an apostrophe or hyphen ("don't", "well-known").
	wordPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}]+(?:['’\-][\p{L}\p{M}\p{N}]+)*`)

	// sentenceEnd is a terminal punctuation run plus closing quotes/brackets,
	// followed by whitespace or end of line.
	sentenceEnd = regexp.MustCompile(`[.!?…。！？]+["'”’)\]]*(?:\s+|$)`)

	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n\s*`)
)

// Tokens returns the words of s without cleaning it first.
func Tokens(s string) []string {
	return wordPattern.FindAllString(s, -1)
}

// Words returns the words of the cleaned text.
func Words(text string) []string {
	return Tokens(Clean(text))
}

// CountWords is len(Words(text)).
func CountWords(text string) int {
	return len(Words(text))
}

// CountCharacters counts the runes of the cleaned text, whitespace included.
func CountCharacters(text string) int {
	return utf8.RuneCountInString(Clean(text))
}

// UniqueWords returns the number of distinct case-folded words.
func UniqueWords(text string) int {
	seen := make(map[string]struct{})
	for _, w := range Words(text) {
		seen[Fold(w)] = struct{}{}
	}
	return len(seen)
}

// WordFrequencies maps each case-folded word to its number of occurrences.
func WordFrequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, w := range Words(text) {
		freq[Fold(w)]++
	}
	return freq
}

// Paragraphs splits the cleaned text on blank lines and drops paragraphs that
// contain no words.
func Paragraphs(text string) []string {
	return splitParagraphs(Clean(text))
}

func splitParagraphs(cleaned string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(cleaned, -1) {
		p = strings.TrimSpace(p)
		if p == "" || len(Tokens(p)) == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sentences splits the cleaned text into sentences. Line breaks always end a
// sentence, so list items without punctuation count individually.
func Sentences(text string) []string {
	return splitSentences(Clean(text))
}

func splitSentences(cleaned string) []string {
	var out []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		start := 0
		for _, loc := range sentenceEnd.FindAllStringIndex(line, -1) {
			out = appendSentence(out, line[start:loc[1]])
			start = loc[1]
		}
		if start < len(line) {
			out = appendSentence(out, line[start:])
		}
	}
	return out
}

func appendSentence(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || len(Tokens(s)) == 0 {
		return out
	}
	return append(out, s)
}

// SentencesIn splits one already-cleaned paragraph into sentences.
func SentencesIn(paragraph string) []string {
	return splitSentences(paragraph)
}

// CountSentences is len(Sentences(text)).
func CountSentences(text string) int {
	return len(Sentences(text))
}

// CountParagraphs is len(Paragraphs(text)).
func CountParagraphs(text string) int {
	return len(Paragraphs(text))
}

// CountDigits counts decimal digit characters anywhere in the text.
func CountDigits(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// CountRunes counts occurrences of any of the given runes.
func CountRunes(text string, set ...rune) int {
	n := 0
	for _, r := range text {
		for _, s := range set {
			if r == s {
				n++
				break
			}
		}
	}
	return n
}

// CaseCounts returns the number of lowercase and uppercase letters.
func CaseCounts(text string) (lower, upper int) {
	for _, r := range text {
		switch {
		case unicode.IsLower(r):
			lower++
		case unicode.IsUpper(r):
			upper++
		}
	}
	return lower, upper
}
