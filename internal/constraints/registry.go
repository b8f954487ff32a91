package constraints

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

// Mechanical instruction ids.
const (
	KindAllCaps         Kind = "change_case:english_capital"
	KindAllLowercase    Kind = "change_case:english_lowercase"
	KindAlternatingCase Kind = "change_case:alternating_case"
	KindFirstLetterCap  Kind = "change_case:first_letter_cap"
	KindLastLetter      Kind = "change_case:last_letter"
	KindCaseRatio       Kind = "change_case:case_ratio"

	KindKeywordFrequency Kind = "keywords:frequency"
	KindKeywordExistence Kind = "keywords:existence"
	KindForbiddenWords   Kind = "keywords:forbidden_words"
	KindLetterFrequency  Kind = "keywords:letter_frequency"
	KindAlliteration     Kind = "keywords:alliteration"
	KindVowelCount       Kind = "keywords:vowel_count"
	KindConsonantCount   Kind = "keywords:consonant_count"

	KindNoComma         Kind = "punctuation:no_comma"
	KindNoPeriod        Kind = "punctuation:no_period"
	KindQuestionExclaim Kind = "punctuation:question_exclaim"
	KindEndRule         Kind = "punctuation:end_rule"

	KindWordCount             Kind = "length_constraints:number_words"
	KindCharacterCount        Kind = "length_constraints:number_characters"
	KindUniqueWords           Kind = "length_constraints:unique_words"
	KindWordRepetition        Kind = "length_constraints:word_repetition"
	KindSentenceLength        Kind = "length_constraints:sentence_length"
	KindWordLength            Kind = "length_constraints:word_length"
	KindWordsPerParagraph     Kind = "length_constraints:words_per_paragraph"
	KindParagraphCount        Kind = "length_constraints:number_paragraphs"
	KindSentenceCount         Kind = "length_constraints:number_sentences"
	KindNthParagraphFirstWord Kind = "length_constraints:nth_paragraph_first_word"

	KindNumberedList          Kind = "detectable_format:numbered_list"
	KindBulletList            Kind = "detectable_format:number_bullet_lists"
	KindJSONFormat            Kind = "detectable_format:json_format"
	KindTitle                 Kind = "detectable_format:title"
	KindSections              Kind = "detectable_format:multiple_sections"
	KindSentencesPerParagraph Kind = "detectable_format:sentences_per_paragraph"
	KindMaxParagraphLength    Kind = "detectable_format:max_paragraph_length"

	KindStartsWith Kind = "startend:start_checker"
	KindEndsWith   Kind = "startend:end_checker"
	KindWrappedIn  Kind = "startend:wrap_checker"
	KindQuotation  Kind = "startend:quotation"

	KindPlaceholders Kind = "detectable_content:number_placeholders"
	KindDigitCount   Kind = "detectable_content:numeric_inclusion"
	KindPostscript   Kind = "detectable_content:postscript"
)

// semanticPrefixes mark instruction families only an external judge can evaluate.
var semanticPrefixes = []string{"stylistic:", "linguistic:", "situation:"}

// semanticFields mark otherwise unknown instructions that describe mood or tone.
var semanticFields = []string{"grammatical_mood", "tone"}

// ErrUnknownInstruction is returned by Decode for ids with no mechanical checker.
var ErrUnknownInstruction = errors.New("unknown instruction id")

// Spec describes one supported instruction id.
type Spec struct {
	ID          Kind     `json:"id"`
	Params      []string `json:"params,omitempty"`
	Description string   `json:"description"`
}

type entry struct {
	Spec
	decode func(a args) (Params, error)
}

var registry = []entry{
	{Spec{KindAllCaps, nil, "Every letter is uppercase."},
		func(args) (Params, error) { return AllCaps{}, nil }},
	{Spec{KindAllLowercase, nil, "Every letter is lowercase."},
		func(args) (Params, error) { return AllLowercase{}, nil }},
	{Spec{KindAlternatingCase, nil, "Letters strictly alternate case, ignoring non-letters."},
		func(args) (Params, error) { return AlternatingCase{}, nil }},
	{Spec{KindFirstLetterCap, nil, "Every word starts with an uppercase letter."},
		func(args) (Params, error) { return FirstLetterCap{}, nil }},
	{Spec{KindLastLetter, []string{"case"}, "The final character is uppercase, lowercase, a digit or a special character."},
		decodeLastLetter},
	{Spec{KindCaseRatio, []string{"min_fraction", "max_fraction"}, "Lowercase:uppercase letter ratio lies within [min, max]; max may be inf."},
		decodeCaseRatio},

	{Spec{KindKeywordFrequency, []string{"keyword", "frequency", "relation"}, "Whole-word keyword count satisfies the relation."},
		func(a args) (Params, error) {
			kw, err := a.str("keyword", "word")
			if err != nil {
				return nil, err
			}
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "frequency", "num_times")
			return KeywordFrequency{Keyword: kw, Count: c}, err
		}},
	{Spec{KindKeywordExistence, []string{"keywords"}, "Every listed keyword appears."},
		func(a args) (Params, error) {
			kws, err := a.strs("keywords")
			return KeywordExistence{Keywords: kws}, err
		}},
	{Spec{KindForbiddenWords, []string{"forbidden_words"}, "No listed word appears."},
		func(a args) (Params, error) {
			ws, err := a.strs("forbidden_words", "keywords")
			return ForbiddenWords{Words: ws}, err
		}},
	{Spec{KindLetterFrequency, []string{"letter", "let_frequency", "let_relation"}, "Single-letter count satisfies the relation."},
		func(a args) (Params, error) {
			l, err := a.str("letter")
			if err != nil {
				return nil, err
			}
			c, err := a.count(textmetrics.AtLeast, []string{"let_relation", "relation"}, "let_frequency", "frequency")
			return LetterFrequency{Letter: l, Count: c}, err
		}},
	{Spec{KindAlliteration, []string{"target_letter", "num_alliteration", "relation"}, "Number of words starting with the letter satisfies the relation."},
		func(a args) (Params, error) {
			l, err := a.str("target_letter", "letter")
			if err != nil {
				return nil, err
			}
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "num_alliteration", "num_words")
			return Alliteration{Letter: l, Count: c}, err
		}},
	{Spec{KindVowelCount, []string{"num_vowels", "relation"}, "Vowel count satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "num_vowels")
			return VowelCount{c}, err
		}},
	{Spec{KindConsonantCount, []string{"num_consonants", "relation"}, "Consonant count satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "num_consonants")
			return ConsonantCount{c}, err
		}},

	{Spec{KindNoComma, nil, "No commas."},
		func(args) (Params, error) { return NoComma{}, nil }},
	{Spec{KindNoPeriod, nil, "No periods."},
		func(args) (Params, error) { return NoPeriod{}, nil }},
	{Spec{KindQuestionExclaim, []string{"num_marks", "relation"}, "Count of ? and ! satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "num_marks", "num_punctuation")
			return QuestionExclaim{c}, err
		}},
	{Spec{KindEndRule, []string{"allowed_endings"}, "Every sentence-ending punctuation run is in the allowed set."},
		decodeEndRule},

	{Spec{KindWordCount, []string{"num_words", "relation"}, "Word count satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "num_words")
			return WordCount{c}, err
		}},
	{Spec{KindCharacterCount, []string{"num_chars", "relation"}, "Character count satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "num_chars", "num_characters")
			return CharacterCount{c}, err
		}},
	{Spec{KindUniqueWords, []string{"num_unique", "relation"}, "Distinct word count satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "num_unique", "num_words")
			return UniqueWordCount{c}, err
		}},
	{Spec{KindWordRepetition, []string{"max_repeats"}, "No word occurs more than max_repeats times."},
		func(a args) (Params, error) {
			n, err := a.int("max_repeats", "max_repetitions")
			return WordRepetition{MaxRepeats: n}, err
		}},
	{Spec{KindSentenceLength, []string{"max_words"}, "No sentence has more than max_words words."},
		func(a args) (Params, error) {
			n, err := a.int("max_words", "num_words")
			return SentenceLength{MaxWords: n}, err
		}},
	{Spec{KindWordLength, []string{"min_length", "max_length"}, "Every word's length lies within [min, max]."},
		func(a args) (Params, error) {
			lo, okLo, err := a.optInt("min_length")
			if err != nil {
				return nil, err
			}
			hi, okHi, err := a.optInt("max_length")
			if err != nil {
				return nil, err
			}
			if !okLo && !okHi {
				return nil, missing("min_length", "max_length")
			}
			return WordLength{Min: lo, Max: hi}, nil
		}},
	{Spec{KindWordsPerParagraph, []string{"num_words", "relation"}, "Every paragraph's word count satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "num_words")
			return WordsPerParagraph{c}, err
		}},
	{Spec{KindParagraphCount, []string{"num_paragraphs", "relation"}, "Paragraph count satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.Equal, []string{"relation"}, "num_paragraphs")
			return ParagraphCount{c}, err
		}},
	{Spec{KindSentenceCount, []string{"num_sentences", "relation"}, "Sentence count satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "num_sentences")
			return SentenceCount{c}, err
		}},
	{Spec{KindNthParagraphFirstWord, []string{"num_paragraphs", "nth_paragraph", "first_word"}, "Paragraph count matches and the nth paragraph starts with first_word."},
		decodeNthParagraph},

	{Spec{KindNumberedList, []string{"num_items", "relation"}, "Numbered list item count satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.Equal, []string{"relation"}, "num_items", "num_numbered_items")
			return NumberedList{c}, err
		}},
	{Spec{KindBulletList, []string{"num_bullets", "relation"}, "Bullet count satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.Equal, []string{"relation"}, "num_bullets")
			return BulletList{c}, err
		}},
	{Spec{KindJSONFormat, nil, "The response is, or embeds, a valid JSON block."},
		func(args) (Params, error) { return JSONFormat{}, nil }},
	{Spec{KindTitle, nil, "The first line is a title: <<wrapped>>, a # heading or **bold**."},
		func(args) (Params, error) { return Title{}, nil }},
	{Spec{KindSections, []string{"section_splitter", "num_sections", "relation"}, "Count of sections labeled with the splitter satisfies the relation."},
		func(a args) (Params, error) {
			sp, err := a.str("section_splitter", "section_spliter", "splitter")
			if err != nil {
				return nil, err
			}
			c, err := a.count(textmetrics.Equal, []string{"relation"}, "num_sections")
			return Sections{Splitter: sp, Count: c}, err
		}},
	{Spec{KindSentencesPerParagraph, []string{"num_sentences", "relation"}, "Every paragraph's sentence count satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.AtMost, []string{"relation"}, "num_sentences")
			return SentencesPerParagraph{c}, err
		}},
	{Spec{KindMaxParagraphLength, []string{"max_chars"}, "No paragraph exceeds max_chars characters."},
		func(a args) (Params, error) {
			n, err := a.int("max_chars", "max_characters")
			return MaxParagraphLength{MaxChars: n}, err
		}},

	{Spec{KindStartsWith, []string{"start_phrase"}, "The response starts with the phrase, ignoring leading symbols."},
		func(a args) (Params, error) {
			p, err := a.str("start_phrase", "first_word", "phrase")
			return StartsWith{Phrase: p}, err
		}},
	{Spec{KindEndsWith, []string{"end_phrase"}, "The response's final words are the phrase."},
		func(a args) (Params, error) {
			p, err := a.str("end_phrase", "last_word", "phrase")
			return EndsWith{Phrase: p}, err
		}},
	{Spec{KindWrappedIn, []string{"wrap_phrase"}, "The response begins and ends with the phrase."},
		func(a args) (Params, error) {
			p, err := a.str("wrap_phrase", "phrase")
			return WrappedIn{Phrase: p}, err
		}},
	{Spec{KindQuotation, nil, "The whole response is wrapped in double quotes."},
		func(args) (Params, error) { return Quotation{}, nil }},

	{Spec{KindPlaceholders, []string{"num_placeholders", "relation"}, "Count of [bracketed] placeholders satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "num_placeholders")
			return Placeholders{c}, err
		}},
	{Spec{KindDigitCount, []string{"num_digits", "relation"}, "Count of digit characters satisfies the relation."},
		func(a args) (Params, error) {
			c, err := a.count(textmetrics.AtLeast, []string{"relation"}, "num_digits", "num_numbers")
			return DigitCount{c}, err
		}},
	{Spec{KindPostscript, []string{"postscript_marker"}, "A line starts with the marker and has content after it."},
		func(a args) (Params, error) {
			m, err := a.str("postscript_marker", "marker")
			return Postscript{Marker: m}, err
		}},
}

var byKind = func() map[Kind]entry {
	m := make(map[Kind]entry, len(registry))
	for _, e := range registry {
		m[e.ID] = e
	}
	return m
}()

// Catalogue lists every mechanical instruction id, sorted.
func Catalogue() []Spec {
	out := make([]Spec, 0, len(registry))
	for _, e := range registry {
		out = append(out, e.Spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Known reports whether id has a mechanical checker.
func Known(id string) bool {
	_, ok := byKind[Kind(strings.TrimSpace(id))]
	return ok
}

// IsSemantic reports whether an instruction belongs to the semantic set:
// a stylistic/linguistic/situation id, or an unknown id carrying a mood or
// tone field. Everything else is mechanical.
func IsSemantic(id string, raw map[string]any) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range semanticPrefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	if Known(id) {
		return false
	}
	for _, f := range semanticFields {
		if _, ok := raw[f]; ok {
			return true
		}
	}
	return false
}

// Decode turns raw parameters into the Params type registered for id.
// Semantic ids decode to Semantic; unknown mechanical ids return
// ErrUnknownInstruction.
func Decode(id string, raw map[string]any) (Params, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("instruction id is empty")
	}
	if IsSemantic(id, raw) {
		return Semantic{ID: id}, nil
	}
	e, ok := byKind[Kind(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstruction, id)
	}
	p, err := e.decode(args(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return p, nil
}

func decodeLastLetter(a args) (Params, error) {
	c, err := a.str("case", "letter_case", "last_letter_case")
	if err != nil {
		return nil, err
	}
	c = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(c), " ", "_"))
	switch c {
	case "upper", "uppercase":
		c = "uppercase"
	case "lower", "lowercase":
		c = "lowercase"
	case "digit", "number":
		c = "digit"
	case "special", "special_character", "special_char", "symbol":
		c = "special_character"
	default:
		return nil, fmt.Errorf("unknown case %q", c)
	}
	return LastLetter{Case: c}, nil
}

func decodeCaseRatio(a args) (Params, error) {
	lo, okLo, err := a.optFloat("min_fraction", "min_ratio")
	if err != nil {
		return nil, err
	}
	hi, okHi, err := a.optFloat("max_fraction", "max_ratio")
	if err != nil {
		return nil, err
	}
	if !okLo && !okHi {
		return nil, missing("min_fraction", "max_fraction")
	}
	if !okHi {
		hi = inf
	}
	if lo > hi {
		return nil, fmt.Errorf("min_fraction %v exceeds max_fraction %v", lo, hi)
	}
	return CaseRatio{Min: lo, Max: hi}, nil
}

func decodeEndRule(a args) (Params, error) {
	allowed, err := a.strs("allowed_endings", "allowed_punctuation", "endings")
	if err != nil {
		return nil, err
	}
	// A bare run-together string such as ".!" lists one ending per rune. List
	// elements are whole runs: ["..."] and ["?!"] stay as given.
	raw, _, _ := a.lookup("allowed_endings", "allowed_punctuation", "endings")
	if _, bare := raw.(string); bare && len(allowed) == 1 && !strings.ContainsAny(allowed[0], " ,") && len([]rune(allowed[0])) > 1 {
		var split []string
		for _, r := range allowed[0] {
			split = append(split, string(r))
		}
		allowed = split
	}
	return EndRule{Allowed: allowed}, nil
}

func decodeNthParagraph(a args) (Params, error) {
	n, _, err := a.optInt("num_paragraphs")
	if err != nil {
		return nil, err
	}
	nth, err := a.int("nth_paragraph")
	if err != nil {
		return nil, err
	}
	if nth < 1 {
		return nil, fmt.Errorf("nth_paragraph must be >= 1, got %d", nth)
	}
	w, err := a.str("first_word")
	if err != nil {
		return nil, err
	}
	return NthParagraphFirstWord{Paragraphs: n, Nth: nth, FirstWord: w}, nil
}
