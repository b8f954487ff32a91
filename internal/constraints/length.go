package constraints

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

func wordCount(text string) int      { return textmetrics.CountWords(text) }
func characterCount(text string) int { return textmetrics.CountCharacters(text) }
func uniqueWords(text string) int    { return textmetrics.UniqueWords(text) }
func paragraphCount(text string) int { return textmetrics.CountParagraphs(text) }
func sentenceCount(text string) int  { return textmetrics.CountSentences(text) }

func checkWordRepetition(text string, p WordRepetition) Verdict {
	freq := textmetrics.WordFrequencies(text)
	var over []string
	for w, n := range freq {
		if n > p.MaxRepeats {
			over = append(over, w)
		}
	}
	if len(over) > 0 {
		sort.Strings(over)
		return fail("%d words repeat more than %d times, e.g. %q (%d)", len(over), p.MaxRepeats, over[0], freq[over[0]])
	}
	return pass("no word repeats more than %d times", p.MaxRepeats)
}

func checkSentenceLength(text string, p SentenceLength) Verdict {
	sentences := textmetrics.Sentences(text)
	if len(sentences) == 0 {
		return fail("no sentences")
	}
	for i, s := range sentences {
		if n := len(textmetrics.Tokens(s)); n > p.MaxWords {
			return fail("sentence %d has %d words (max %d)", i+1, n, p.MaxWords)
		}
	}
	return pass("%d sentences, none over %d words", len(sentences), p.MaxWords)
}

func checkWordLength(text string, p WordLength) Verdict {
	words := textmetrics.Words(text)
	if len(words) == 0 {
		return fail("no words")
	}
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		if n < p.Min || (p.Max > 0 && n > p.Max) {
			return fail("word %q has %d characters (want %d..%s)", w, n, p.Min, maxLabel(p.Max))
		}
	}
	return pass("all %d words within %d..%s characters", len(words), p.Min, maxLabel(p.Max))
}

func maxLabel(n int) string {
	if n <= 0 {
		return "∞"
	}
	return strconv.Itoa(n)
}

func checkWordsPerParagraph(text string, p WordsPerParagraph) Verdict {
	paras := textmetrics.Paragraphs(text)
	if len(paras) == 0 {
		return fail("no paragraphs")
	}
	for i, para := range paras {
		if n := len(textmetrics.Tokens(para)); !p.Holds(n) {
			return fail("paragraph %d words: %s", i+1, p.Describe(n))
		}
	}
	return pass("%d paragraphs satisfy the word count", len(paras))
}

func checkNthParagraph(text string, p NthParagraphFirstWord) Verdict {
	paras := textmetrics.Paragraphs(text)
	if p.Paragraphs > 0 && len(paras) != p.Paragraphs {
		return fail("paragraphs: %s", textmetrics.Equal.Describe(len(paras), p.Paragraphs))
	}
	if p.Nth > len(paras) {
		return fail("only %d paragraphs, paragraph %d missing", len(paras), p.Nth)
	}
	words := textmetrics.Tokens(textmetrics.StripMarkdownNoise(paras[p.Nth-1]))
	if len(words) == 0 {
		return fail("paragraph %d has no words", p.Nth)
	}
	want := textmetrics.Fold(strings.TrimSpace(p.FirstWord))
	got := textmetrics.Fold(words[0])
	return check(got == want, "paragraph %d starts with %q (want %q)", p.Nth, words[0], p.FirstWord)
}
