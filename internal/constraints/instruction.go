// Package constraints is the mechanical constraint engine: it maps a response
// text and one declared instruction to a verdict.
//
// Instruction parameters are a tagged union. Each instruction id decodes into
// its own Params type, and Validate dispatches on that type, so adding an id
// means adding a type, a registry entry and a switch case.
package constraints

import (
	"strings"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

// Kind is an instruction id such as "length_constraints:number_words".
type Kind string

// Source records who declared an instruction.
type Source string

const (
	SourceUser   Source = "user"
	SourceSystem Source = "system"
)

// ParseSource normalizes a source field; anything other than "system" is a
// user instruction.
func ParseSource(s string) Source {
	if strings.EqualFold(strings.TrimSpace(s), string(SourceSystem)) {
		return SourceSystem
	}
	return SourceUser
}

// Params is the decoded, kind-specific parameter set of one instruction.
type Params interface {
	Kind() Kind
}

// Instruction is one declared constraint attached to the final turn.
type Instruction struct {
	ID     string         `json:"id"`
	Source Source         `json:"source"`
	Raw    map[string]any `json:"params,omitempty"`

	// Params is nil when decoding failed; DecodeError says why.
	Params      Params `json:"-"`
	DecodeError string `json:"decode_error,omitempty"`
}

// NewInstruction decodes raw parameters for id. Decoding problems are kept on
// the instruction rather than returned, so one bad entry never hides the rest.
func NewInstruction(id string, source Source, raw map[string]any) Instruction {
	in := Instruction{ID: strings.TrimSpace(id), Source: source, Raw: raw}
	p, err := Decode(in.ID, raw)
	if err != nil {
		in.DecodeError = err.Error()
		return in
	}
	in.Params = p
	return in
}

// IsSemantic reports whether the instruction needs external judgment.
func (in Instruction) IsSemantic() bool {
	return IsSemantic(in.ID, in.Raw)
}

// Count is the shared "<count> <relation> <n>" parameter pair.
type Count struct {
	N        int                  `json:"n"`
	Relation textmetrics.Relation `json:"relation"`
}

// Holds evaluates the relation against an observed count.
func (c Count) Holds(observed int) bool { return c.Relation.Holds(observed, c.N) }

// Describe renders the observed count against the requirement.
func (c Count) Describe(observed int) string { return c.Relation.Describe(observed, c.N) }

// ─── change_case ─────────────────────────────────────────────────────────────

type AllCaps struct{}
type AllLowercase struct{}
type AlternatingCase struct{}
type FirstLetterCap struct{}

// LastLetter constrains the final character: uppercase, lowercase, digit or
// special_character (neither letter nor digit).
type LastLetter struct{ Case string }

// CaseRatio bounds lowercase/uppercase. Max may be +Inf.
type CaseRatio struct{ Min, Max float64 }

// ─── keywords ────────────────────────────────────────────────────────────────

type KeywordFrequency struct {
	Keyword string
	Count
}

type KeywordExistence struct{ Keywords []string }
type ForbiddenWords struct{ Words []string }

type LetterFrequency struct {
	Letter string
	Count
}

type Alliteration struct {
	Letter string
	Count
}

type VowelCount struct{ Count }
type ConsonantCount struct{ Count }

// ─── punctuation ─────────────────────────────────────────────────────────────

type NoComma struct{}
type NoPeriod struct{}
type QuestionExclaim struct{ Count }

// EndRule lists the punctuation runs allowed to end a sentence.
type EndRule struct{ Allowed []string }

// ─── length_constraints ──────────────────────────────────────────────────────

type WordCount struct{ Count }
type CharacterCount struct{ Count }
type UniqueWordCount struct{ Count }
type WordRepetition struct{ MaxRepeats int }
type SentenceLength struct{ MaxWords int }

// WordLength bounds every word's length in characters; zero means unbounded.
type WordLength struct{ Min, Max int }

type WordsPerParagraph struct{ Count }
type ParagraphCount struct{ Count }
type SentenceCount struct{ Count }

type NthParagraphFirstWord struct {
	Paragraphs int
	Nth        int
	FirstWord  string
}

// ─── detectable_format ───────────────────────────────────────────────────────

type NumberedList struct{ Count }
type BulletList struct{ Count }
type JSONFormat struct{}
type Title struct{}

type Sections struct {
	Splitter string
	Count
}

type SentencesPerParagraph struct{ Count }
type MaxParagraphLength struct{ MaxChars int }

// ─── startend ────────────────────────────────────────────────────────────────

type StartsWith struct{ Phrase string }
type EndsWith struct{ Phrase string }
type WrappedIn struct{ Phrase string }
type Quotation struct{}

// ─── detectable_content ──────────────────────────────────────────────────────

type Placeholders struct{ Count }
type DigitCount struct{ Count }
type Postscript struct{ Marker string }

// Semantic carries an instruction the engine never resolves itself.
type Semantic struct{ ID string }

func (AllCaps) Kind() Kind               { return KindAllCaps }
func (AllLowercase) Kind() Kind          { return KindAllLowercase }
func (AlternatingCase) Kind() Kind       { return KindAlternatingCase }
func (FirstLetterCap) Kind() Kind        { return KindFirstLetterCap }
func (LastLetter) Kind() Kind            { return KindLastLetter }
func (CaseRatio) Kind() Kind             { return KindCaseRatio }
func (KeywordFrequency) Kind() Kind      { return KindKeywordFrequency }
func (KeywordExistence) Kind() Kind      { return KindKeywordExistence }
func (ForbiddenWords) Kind() Kind        { return KindForbiddenWords }
func (LetterFrequency) Kind() Kind       { return KindLetterFrequency }
func (Alliteration) Kind() Kind          { return KindAlliteration }
func (VowelCount) Kind() Kind            { return KindVowelCount }
func (ConsonantCount) Kind() Kind        { return KindConsonantCount }
func (NoComma) Kind() Kind               { return KindNoComma }
func (NoPeriod) Kind() Kind              { return KindNoPeriod }
func (QuestionExclaim) Kind() Kind       { return KindQuestionExclaim }
func (EndRule) Kind() Kind               { return KindEndRule }
func (WordCount) Kind() Kind             { return KindWordCount }
func (CharacterCount) Kind() Kind        { return KindCharacterCount }
func (UniqueWordCount) Kind() Kind       { return KindUniqueWords }
func (WordRepetition) Kind() Kind        { return KindWordRepetition }
func (SentenceLength) Kind() Kind        { return KindSentenceLength }
func (WordLength) Kind() Kind            { return KindWordLength }
func (WordsPerParagraph) Kind() Kind     { return KindWordsPerParagraph }
func (ParagraphCount) Kind() Kind        { return KindParagraphCount }
func (SentenceCount) Kind() Kind         { return KindSentenceCount }
func (NthParagraphFirstWord) Kind() Kind { return KindNthParagraphFirstWord }
func (NumberedList) Kind() Kind          { return KindNumberedList }
func (BulletList) Kind() Kind            { return KindBulletList }
func (JSONFormat) Kind() Kind            { return KindJSONFormat }
func (Title) Kind() Kind                 { return KindTitle }
func (Sections) Kind() Kind              { return KindSections }
func (SentencesPerParagraph) Kind() Kind { return KindSentencesPerParagraph }
func (MaxParagraphLength) Kind() Kind    { return KindMaxParagraphLength }
func (StartsWith) Kind() Kind            { return KindStartsWith }
func (EndsWith) Kind() Kind              { return KindEndsWith }
func (WrappedIn) Kind() Kind             { return KindWrappedIn }
func (Quotation) Kind() Kind             { return KindQuotation }
func (Placeholders) Kind() Kind          { return KindPlaceholders }
func (DigitCount) Kind() Kind            { return KindDigitCount }
func (Postscript) Kind() Kind            { return KindPostscript }
func (s Semantic) Kind() Kind            { return Kind(s.ID) }
