package validation

// DefaultSemanticCountsAsFailure scores every semantic instruction and judge
// item as failed for candidate responses. Only an external judge can
// evaluate them, so candidates are scored conservatively until one does.
const DefaultSemanticCountsAsFailure = true

// Options holds the orchestrator's thresholds. The zero value is not useful;
// start from DefaultOptions.
type Options struct {
	// ExpectedCandidates is the number of model passes a complete document has.
	ExpectedCandidates int `json:"expected_candidates" yaml:"expected_candidates" validate:"min=1"`
	// MinBreakingCandidates is how many candidates must reach BreakingFailRate.
	MinBreakingCandidates int `json:"min_breaking_candidates" yaml:"min_breaking_candidates" validate:"min=1,ltefield=ExpectedCandidates"`
	// BreakingFailRate is the per-candidate fail rate that counts as breaking.
	BreakingFailRate float64 `json:"breaking_fail_rate" yaml:"breaking_fail_rate" validate:"gt=0,lte=1"`
	// SemanticCountsAsFailure scores semantic items as failed for candidates.
	SemanticCountsAsFailure bool `json:"semantic_counts_as_failure" yaml:"semantic_counts_as_failure"`

	// FailRateTolerance is the allowed gap between computed and recorded fail
	// rates, as a fraction (0.10 is ten percentage points).
	FailRateTolerance float64 `json:"fail_rate_tolerance" yaml:"fail_rate_tolerance" validate:"gte=0,lte=1"`

	// QuoteOverlap is the word overlap that locates a validator quote.
	QuoteOverlap float64 `json:"quote_overlap" yaml:"quote_overlap" validate:"gt=0,lte=1"`
	// MinQuoteLength skips shorter quotes.
	MinQuoteLength int `json:"min_quote_length" yaml:"min_quote_length" validate:"min=1"`

	GoldenPrefixRunes     int     `json:"golden_prefix_runes" yaml:"golden_prefix_runes" validate:"min=1"`
	GoldenIssueSimilarity float64 `json:"golden_issue_similarity" yaml:"golden_issue_similarity" validate:"gt=0,lte=1"`
	GoldenWarnSimilarity  float64 `json:"golden_warn_similarity" yaml:"golden_warn_similarity" validate:"gt=0,ltefield=GoldenIssueSimilarity"`

	// PromptLengthTolerance widens the declared prompt range into a warning band.
	PromptLengthTolerance float64 `json:"prompt_length_tolerance" yaml:"prompt_length_tolerance" validate:"gte=0,lte=1"`

	// MajorRevisionFailures is the failed-check count that forces MAJOR_REVISION.
	MajorRevisionFailures int `json:"major_revision_failures" yaml:"major_revision_failures" validate:"min=1"`
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		ExpectedCandidates:      4,
		MinBreakingCandidates:   3,
		BreakingFailRate:        0.5,
		SemanticCountsAsFailure: DefaultSemanticCountsAsFailure,
		FailRateTolerance:       0.10,
		QuoteOverlap:            0.70,
		MinQuoteLength:          3,
		GoldenPrefixRunes:       80,
		GoldenIssueSimilarity:   0.85,
		GoldenWarnSimilarity:    0.6,
		PromptLengthTolerance:   0.10,
		MajorRevisionFailures:   3,
	}
}
