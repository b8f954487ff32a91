package textmetrics

import "unicode/utf8"

// significantWords returns the set of folded words longer than minLen runes.
func significantWords(s string, minLen int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range Tokens(Fold(s)) {
		if utf8.RuneCountInString(w) > minLen {
			set[w] = struct{}{}
		}
	}
	return set
}

// Jaccard is |A∩B| / |A∪B| over the folded words of a and b that are longer
// than three characters. Two texts without such words score 0.
func Jaccard(a, b string) float64 {
	wa := significantWords(a, 3)
	wb := significantWords(b, 3)
	if len(wa) == 0 && len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

// WordOverlap is the fraction of the quote's distinct words that also occur
// in text. An empty quote scores 0.
func WordOverlap(quote, text string) float64 {
	qw := significantWords(quote, 0)
	if len(qw) == 0 {
		return 0
	}
	tw := significantWords(text, 0)
	hit := 0
	for w := range qw {
		if _, ok := tw[w]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(qw))
}
