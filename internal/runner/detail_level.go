package runner

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Detail levels for rendered reports:
//   - summary: verdict, counts and the ids of checks that need attention
//   - standard: every check with its issues, long lists capped
//   - full: every message plus check details
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// DetailLevelValues returns the enum values for MCP tool definitions.
func DetailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to
// "standard" for empty or unrecognized values.
func ParseDetailLevel(s string) string {
	switch s {
	case DetailSummary, DetailFull:
		return s
	default:
		return DetailStandard
	}
}

// SummaryFooter is appended to summary-mode output.
const SummaryFooter = "\n---\nUse detail_level: standard or full for every issue."

// NavigationHint returns a one-line footer when results are capped by a
// limit, or "" when everything fits.
func NavigationHint(showing, total int, hint string) string {
	if total <= 0 || showing >= total {
		return ""
	}
	if hint != "" {
		return fmt.Sprintf("\nShowing %d of %d. %s", showing, total, hint)
	}
	return fmt.Sprintf("\nShowing %d of %d.", showing, total)
}

// EstimateTokens approximates the token count of text as chars/4, with a
// floor of 1 for non-empty text.
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	if n < 4 {
		return 1
	}
	return n / 4
}

var numbers = message.NewPrinter(language.English)

// TokenFooter returns a one-line footer with the estimated token count.
func TokenFooter(estimatedTokens int) string {
	return numbers.Sprintf("\n~%d tokens", estimatedTokens)
}
