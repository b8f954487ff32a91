package constraints

import (
	"errors"
	"fmt"
)

// Validate checks text against one decoded instruction. It is pure and safe
// for concurrent use.
func Validate(text string, p Params) Verdict {
	switch p := p.(type) {
	case nil:
		return unresolved("no parameters")
	case Semantic:
		return Verdict{Outcome: Unresolved, Semantic: true, Note: fmt.Sprintf("%s requires semantic review", p.ID)}

	case AllCaps:
		return checkAllCaps(text)
	case AllLowercase:
		return checkAllLowercase(text)
	case AlternatingCase:
		return checkAlternatingCase(text)
	case FirstLetterCap:
		return checkFirstLetterCap(text)
	case LastLetter:
		return checkLastLetter(text, p)
	case CaseRatio:
		return checkCaseRatio(text, p)

	case KeywordFrequency:
		return checkKeywordFrequency(text, p)
	case KeywordExistence:
		return checkKeywordExistence(text, p)
	case ForbiddenWords:
		return checkForbiddenWords(text, p)
	case LetterFrequency:
		return checkLetterFrequency(text, p)
	case Alliteration:
		return checkAlliteration(text, p)
	case VowelCount:
		v, _ := vowelsAndConsonants(text)
		return counted("vowels", v, p.Count)
	case ConsonantCount:
		_, c := vowelsAndConsonants(text)
		return counted("consonants", c, p.Count)

	case NoComma:
		return checkAbsent(text, "comma", ',', '，', '、')
	case NoPeriod:
		return checkAbsent(text, "period", '.', '。')
	case QuestionExclaim:
		return checkQuestionExclaim(text, p)
	case EndRule:
		return checkEndRule(text, p)

	case WordCount:
		return counted("words", wordCount(text), p.Count)
	case CharacterCount:
		return counted("characters", characterCount(text), p.Count)
	case UniqueWordCount:
		return counted("unique words", uniqueWords(text), p.Count)
	case WordRepetition:
		return checkWordRepetition(text, p)
	case SentenceLength:
		return checkSentenceLength(text, p)
	case WordLength:
		return checkWordLength(text, p)
	case WordsPerParagraph:
		return checkWordsPerParagraph(text, p)
	case ParagraphCount:
		return counted("paragraphs", paragraphCount(text), p.Count)
	case SentenceCount:
		return counted("sentences", sentenceCount(text), p.Count)
	case NthParagraphFirstWord:
		return checkNthParagraph(text, p)

	case NumberedList:
		return counted("numbered items", countNumberedItems(text), p.Count)
	case BulletList:
		return counted("bullets", countBullets(text), p.Count)
	case JSONFormat:
		return checkJSONFormat(text)
	case Title:
		return checkTitle(text)
	case Sections:
		return checkSections(text, p)
	case SentencesPerParagraph:
		return checkSentencesPerParagraph(text, p)
	case MaxParagraphLength:
		return checkMaxParagraphLength(text, p)

	case StartsWith:
		return checkStartsWith(text, p)
	case EndsWith:
		return checkEndsWith(text, p)
	case WrappedIn:
		return checkWrappedIn(text, p)
	case Quotation:
		return checkQuotation(text)

	case Placeholders:
		return counted("placeholders", countPlaceholders(text), p.Count)
	case DigitCount:
		return counted("digits", digitCount(text), p.Count)
	case Postscript:
		return checkPostscript(text, p)
	}
	return unresolved("no checker for %s", p.Kind())
}

// ValidateID decodes raw parameters for id and validates text against them.
// Unknown mechanical ids and undecodable parameters are unresolved, never
// errors.
func ValidateID(text, id string, raw map[string]any) Verdict {
	p, err := Decode(id, raw)
	if err != nil {
		if errors.Is(err, ErrUnknownInstruction) {
			return unresolved("unknown instruction %q", id)
		}
		return unresolved("cannot decode parameters: %v", err)
	}
	return Validate(text, p)
}

// ValidateInstruction validates text against an already decoded instruction.
func ValidateInstruction(text string, in Instruction) Verdict {
	if in.Params == nil {
		if in.IsSemantic() {
			return Validate(text, Semantic{ID: in.ID})
		}
		if in.DecodeError != "" {
			return unresolved("cannot decode parameters: %s", in.DecodeError)
		}
		return unresolved("unknown instruction %q", in.ID)
	}
	return Validate(text, in.Params)
}

func counted(what string, n int, c Count) Verdict {
	return check(c.Holds(n), "%s: %s", what, c.Describe(n))
}
