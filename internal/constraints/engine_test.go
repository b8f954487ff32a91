package constraints

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "word"
	}
	return strings.Join(w, " ") + "."
}

func assertValid(t *testing.T, v Verdict) {
	t.Helper()
	assert.Equal(t, Valid, v.Outcome, v.Note)
}

func assertInvalid(t *testing.T, v Verdict) {
	t.Helper()
	assert.Equal(t, Invalid, v.Outcome, v.Note)
}

// --- Decoding ---

func TestDecode_NumberWordsAtLeast(t *testing.T) {
	p, err := Decode("length_constraints:number_words", map[string]any{"num_words": 50.0, "relation": "at least"})
	require.NoError(t, err)
	assert.Equal(t, WordCount{Count{N: 50, Relation: "at least"}}, p)

	assertValid(t, Validate(words(60), p))
	assertInvalid(t, Validate(words(40), p))
}

func TestDecode_LenientNumbersAndRelations(t *testing.T) {
	p, err := Decode("length_constraints:number_words", map[string]any{"num_words": "50", "relation": ">="})
	require.NoError(t, err)
	assert.Equal(t, 50, p.(WordCount).N)

	_, err = Decode("length_constraints:number_words", map[string]any{"num_words": 12.5})
	assert.Error(t, err)
}

func TestDecode_DefaultRelations(t *testing.T) {
	p, err := Decode("length_constraints:number_paragraphs", map[string]any{"num_paragraphs": 3})
	require.NoError(t, err)
	assert.Equal(t, "equal to", string(p.(ParagraphCount).Relation))

	p, err = Decode("keywords:frequency", map[string]any{"keyword": "ocean", "frequency": 2})
	require.NoError(t, err)
	assert.Equal(t, "at least", string(p.(KeywordFrequency).Relation))
}

func TestDecode_UnknownAndMissing(t *testing.T) {
	_, err := Decode("made_up:thing", nil)
	assert.ErrorIs(t, err, ErrUnknownInstruction)

	_, err = Decode("keywords:frequency", map[string]any{"frequency": 2})
	assert.ErrorContains(t, err, "keyword")

	_, err = Decode("  ", nil)
	assert.Error(t, err)
}

func TestCatalogue_EveryEntryDispatches(t *testing.T) {
	cat := Catalogue()
	require.NotEmpty(t, cat)
	seen := map[Kind]bool{}
	for _, s := range cat {
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
		assert.NotEmpty(t, s.Description, s.ID)

		e := byKind[s.ID]
		p, err := e.decode(sampleArgs(s.Params))
		require.NoError(t, err, s.ID)
		assert.Equal(t, s.ID, p.Kind())

		v := Validate("Some text here.", p)
		assert.NotContains(t, v.Note, "no checker", s.ID)
	}
}

func sampleArgs(names []string) args {
	a := args{}
	for _, n := range names {
		switch n {
		case "relation", "let_relation":
			a[n] = "at least"
		case "case":
			a[n] = "lowercase"
		case "keywords", "forbidden_words", "allowed_endings":
			a[n] = []any{"x"}
		case "keyword", "letter", "target_letter", "first_word", "section_splitter",
			"start_phrase", "end_phrase", "wrap_phrase", "postscript_marker":
			a[n] = "s"
		default:
			a[n] = 1.0
		}
	}
	return a
}

// --- Semantic partition ---

func TestIsSemantic(t *testing.T) {
	assert.True(t, IsSemantic("stylistic:tone_formal", nil))
	assert.True(t, IsSemantic("Linguistic:dialect", nil))
	assert.True(t, IsSemantic("situation:role_play", nil))
	assert.True(t, IsSemantic("custom:mood", map[string]any{"grammatical_mood": "imperative"}))
	assert.True(t, IsSemantic("custom:voice", map[string]any{"tone": "warm"}))

	assert.False(t, IsSemantic("custom:other", map[string]any{"n": 1}))
	assert.False(t, IsSemantic("punctuation:no_comma", map[string]any{"tone": "x"}))
}

func TestValidate_SemanticIsForwarded(t *testing.T) {
	v := ValidateID("anything", "stylistic:tone_formal", nil)
	assert.Equal(t, Unresolved, v.Outcome)
	assert.True(t, v.Semantic)

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"valid":null`)
	assert.Contains(t, string(b), `"semantic":true`)
}

func TestValidateID_UnknownMechanicalIsUnresolved(t *testing.T) {
	v := ValidateID("text", "made_up:thing", nil)
	assert.Equal(t, Unresolved, v.Outcome)
	assert.False(t, v.Semantic)
}

func TestVerdict_JSONRoundTrip(t *testing.T) {
	for _, v := range []Verdict{pass("ok"), fail("nope"), unresolved("hm")} {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		var got Verdict
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, v, got)
	}
}

// --- change_case ---

func TestChangeCase(t *testing.T) {
	assertValid(t, Validate("HELLO WORLD 123!", AllCaps{}))
	assertInvalid(t, Validate("HELLO World", AllCaps{}))
	assertInvalid(t, Validate("123 !!!", AllCaps{}))

	assertValid(t, Validate("hello world", AllLowercase{}))
	assertInvalid(t, Validate("hello World", AllLowercase{}))

	assertValid(t, Validate("hElLo, WoRlD", AlternatingCase{}))
	assertInvalid(t, Validate("HEllo", AlternatingCase{}))

	assertValid(t, Validate("**Every** Word Is 42 Capitalized", FirstLetterCap{}))
	assertInvalid(t, Validate("Every word", FirstLetterCap{}))
}

func TestLastLetter(t *testing.T) {
	assertValid(t, Validate("ends in caps Z!  ", LastLetter{Case: "uppercase"}))
	assertInvalid(t, Validate("ends lower z", LastLetter{Case: "uppercase"}))
	assertValid(t, Validate("count 7", LastLetter{Case: "digit"}))
	assertValid(t, Validate("bang!", LastLetter{Case: "special_character"}))
	assertInvalid(t, Validate("word", LastLetter{Case: "special_character"}))
}

func TestCaseRatio(t *testing.T) {
	p, err := Decode("change_case:case_ratio", map[string]any{"min_fraction": "1/2", "max_fraction": "inf"})
	require.NoError(t, err)
	assertValid(t, Validate("all lower", p))

	assertValid(t, Validate("abcD", CaseRatio{Min: 2, Max: 3}))
	assertInvalid(t, Validate("abCD", CaseRatio{Min: 2, Max: 3}))
	assertInvalid(t, Validate("1234", CaseRatio{Min: 0, Max: inf}))
}

// --- keywords ---

func TestKeywords(t *testing.T) {
	text := "The ocean is vast. Oceans differ, but the OCEAN endures."
	assertValid(t, Validate(text, KeywordFrequency{Keyword: "ocean", Count: Count{2, "equal to"}}))
	assertInvalid(t, Validate(text, KeywordFrequency{Keyword: "ocean", Count: Count{3, "at least"}}))

	assertValid(t, Validate(text, KeywordExistence{Keywords: []string{"vast", "endures"}}))
	assertInvalid(t, Validate(text, KeywordExistence{Keywords: []string{"vast", "sky"}}))

	assertValid(t, Validate(text, ForbiddenWords{Words: []string{"sea"}}))
	assertInvalid(t, Validate(text, ForbiddenWords{Words: []string{"Vast"}}))
}

func TestLetterAndAlliteration(t *testing.T) {
	assertValid(t, Validate("banana", LetterFrequency{Letter: "a", Count: Count{3, "equal to"}}))
	assert.Equal(t, Unresolved, Validate("banana", LetterFrequency{Letter: "an", Count: Count{1, "at least"}}).Outcome)

	assertValid(t, Validate("Sally sells sea shells", Alliteration{Letter: "s", Count: Count{4, "at least"}}))
	assertInvalid(t, Validate("Sally sells sea shells", Alliteration{Letter: "s", Count: Count{4, "less than"}}))
}

func TestVowelsConsonants(t *testing.T) {
	assertValid(t, Validate("Héllo", VowelCount{Count{2, "equal to"}}))
	assertValid(t, Validate("Héllo", ConsonantCount{Count{3, "equal to"}}))
}

// --- punctuation ---

func TestPunctuation(t *testing.T) {
	assertValid(t, Validate("no commas here.", NoComma{}))
	assertInvalid(t, Validate("one, two", NoComma{}))
	assertInvalid(t, Validate("中文，逗号", NoComma{}))

	assertValid(t, Validate("no periods here", NoPeriod{}))
	assertInvalid(t, Validate("a period.", NoPeriod{}))

	assertValid(t, Validate("Why? Yes! Really?", QuestionExclaim{Count{3, "equal to"}}))
}

func TestEndRule(t *testing.T) {
	p, err := Decode("punctuation:end_rule", map[string]any{"allowed_endings": ".!"})
	require.NoError(t, err)
	assert.Equal(t, []string{".", "!"}, p.(EndRule).Allowed)

	assertValid(t, Validate("Pi is 3.14 today. Wow!", p))
	assertInvalid(t, Validate("Is it? Yes.", p))
	assertInvalid(t, Validate("Wait... ok.", p))
	assertInvalid(t, Validate("no ending at all", p))
}

func TestEndRule_ListElementsAreWholeRuns(t *testing.T) {
	p, err := Decode("punctuation:end_rule", map[string]any{"allowed_endings": []any{"..."}})
	require.NoError(t, err)
	assert.Equal(t, []string{"..."}, p.(EndRule).Allowed)

	assertValid(t, ValidateID("Wait... Really...", "punctuation:end_rule", map[string]any{"allowed_endings": []any{"..."}}))
	assertValid(t, ValidateID("Why?! Because?!", "punctuation:end_rule", map[string]any{"allowed_endings": []any{"?!"}}))
	assertInvalid(t, ValidateID("Why? Because!", "punctuation:end_rule", map[string]any{"allowed_endings": []any{"?!"}}))
}

// --- length_constraints ---

func TestLengthConstraints(t *testing.T) {
	assertValid(t, Validate("one two three", CharacterCount{Count{13, "equal to"}}))
	assertValid(t, Validate("a a b", UniqueWordCount{Count{2, "equal to"}}))

	assertValid(t, Validate("a a b", WordRepetition{MaxRepeats: 2}))
	assertInvalid(t, Validate("a a a b", WordRepetition{MaxRepeats: 2}))

	assertValid(t, Validate("Short one. Also short.", SentenceLength{MaxWords: 2}))
	assertInvalid(t, Validate("This one is too long.", SentenceLength{MaxWords: 3}))

	assertValid(t, Validate("cat dog", WordLength{Min: 3}))
	assertInvalid(t, Validate("cat elephant", WordLength{Min: 1, Max: 5}))
}

func TestParagraphs(t *testing.T) {
	text := "First para has four.\n\nSecond para here now.\n\n---\n\nThird one too here."
	assertValid(t, Validate(text, ParagraphCount{Count{3, "equal to"}}))
	assertValid(t, Validate(text, WordsPerParagraph{Count{4, "equal to"}}))
	assertValid(t, Validate(text, SentenceCount{Count{3, "equal to"}}))

	assertValid(t, Validate(text, NthParagraphFirstWord{Paragraphs: 3, Nth: 2, FirstWord: "second"}))
	assertInvalid(t, Validate(text, NthParagraphFirstWord{Paragraphs: 3, Nth: 2, FirstWord: "third"}))
	assertInvalid(t, Validate(text, NthParagraphFirstWord{Paragraphs: 2, Nth: 1, FirstWord: "first"}))
}

// --- detectable_format ---

func TestLists(t *testing.T) {
	text := "Intro\n1. one\n2) two\n3. three\n\n- a\n* b\n---\n+ c"
	assertValid(t, Validate(text, NumberedList{Count{3, "equal to"}}))
	assertValid(t, Validate(text, BulletList{Count{3, "equal to"}}))
}

func TestJSONFormat(t *testing.T) {
	assertValid(t, Validate(`{"a": 1}`, JSONFormat{}))
	assertValid(t, Validate("```json\n{\"a\": [1, 2]}\n```", JSONFormat{}))
	assertValid(t, Validate("Here:\n```json\n{\"a\": 1}\n```\nDone.", JSONFormat{}))
	assertInvalid(t, Validate("{a: 1}", JSONFormat{}))
}

func TestTitle(t *testing.T) {
	assertValid(t, Validate("<<My Title>>\nbody", Title{}))
	assertValid(t, Validate("\n# Heading\nbody", Title{}))
	assertValid(t, Validate("**Bold**\nbody", Title{}))
	assertInvalid(t, Validate("Plain start\nbody", Title{}))
}

func TestSections(t *testing.T) {
	text := "SECTION 1\nfoo\n\n## Section 2\nbar\n\n**SECTION 3**\nbaz"
	assertValid(t, Validate(text, Sections{Splitter: "Section", Count: Count{3, "equal to"}}))
	assertInvalid(t, Validate(text, Sections{Splitter: "Section", Count: Count{4, "equal to"}}))
}

func TestParagraphShape(t *testing.T) {
	text := "One. Two.\n\nThree."
	assertValid(t, Validate(text, SentencesPerParagraph{Count{2, "at most"}}))
	assertInvalid(t, Validate(text, SentencesPerParagraph{Count{1, "at most"}}))

	assertValid(t, Validate(text, MaxParagraphLength{MaxChars: 9}))
	assertInvalid(t, Validate(text, MaxParagraphLength{MaxChars: 8}))
}

// --- startend ---

func TestStartEnd(t *testing.T) {
	assertValid(t, Validate("**Dear** friend, hello", StartsWith{Phrase: "dear friend"}))
	assertInvalid(t, Validate("Dearest friend", StartsWith{Phrase: "dear"}))

	assertValid(t, Validate("Thanks for reading. Any other questions?", EndsWith{Phrase: "Any other questions?"}))
	assertInvalid(t, Validate("Any other questions? No.", EndsWith{Phrase: "Any other questions"}))

	assertValid(t, Validate("~~ body ~~", WrappedIn{Phrase: "~~"}))
	assertInvalid(t, Validate("~~", WrappedIn{Phrase: "~~"}))

	assertValid(t, Validate(`"quoted whole"`, Quotation{}))
	assertValid(t, Validate("“curly”", Quotation{}))
	assertInvalid(t, Validate(`"half`, Quotation{}))
}

// --- detectable_content ---

func TestContent(t *testing.T) {
	text := "Dear [name], see [link](http://x) at [address]."
	assertValid(t, Validate(text, Placeholders{Count{2, "equal to"}}))

	assertValid(t, Validate("in 2024 and 7", DigitCount{Count{5, "equal to"}}))

	assertValid(t, Validate("Body.\n\nP.S. see you", Postscript{Marker: "P.S."}))
	assertInvalid(t, Validate("Body.\n\nP.S.", Postscript{Marker: "P.S."}))
}

func TestCount_BoundaryEquality(t *testing.T) {
	for _, rel := range []string{"at least", ">=", "equal to", "==", "at most", "<="} {
		p, err := Decode("length_constraints:number_words", map[string]any{"num_words": 5, "relation": rel})
		require.NoError(t, err, rel)
		assertValid(t, Validate(words(5), p))
	}
	for _, rel := range []string{"less than", "<"} {
		p, err := Decode("length_constraints:number_words", map[string]any{"num_words": 5, "relation": rel})
		require.NoError(t, err, rel)
		assertInvalid(t, Validate(words(5), p))
		assertValid(t, Validate(words(4), p))
	}
}
