// Package validation runs the four-phase rule set over an assembled
// conversation and produces a Report.
//
// Every check is a pure function of the conversation and the options, so a
// Report can be rebuilt at any time and concurrent calls share nothing.
package validation

import (
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/constraints"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/notebook"
)

// Validate runs all four phases over conv. It always returns a report; a
// document without recognizable cells yields a single failed
// cells_detected check.
func Validate(conv *notebook.Conversation, opts Options) *Report {
	opts = opts.withDefaults()
	if conv == nil || !conv.Recognized() {
		c := newCheck("cells_detected", "Cells detected")
		c.Critical = true
		c.issue("no tagged cells found; expected markers such as **[user]** or [assistant]")
		checks := []Check{*c.settle()}
		return &Report{Phase1: checks, Summary: summarize(checks, opts)}
	}

	run := newRun(conv, opts)
	r := &Report{
		Phase1: collect(
			run.cellsDetected,
			run.systemPrompt,
			run.finalTurn,
			run.intermediateTurns,
			run.modelPasses,
			run.cellAnomalies,
		),
		Phase2: collect(
			run.goldenSanity,
			run.goldenConstraints,
			run.promptLength,
			run.emptyContent,
			run.markupLeakage,
		),
		Phase3: collect(
			run.payloadValidation,
			run.instructionSchema,
			run.instructionPartition,
			run.valueConsistency,
			run.goldenValidatorAgreement,
		),
		Phase4: collect(
			run.modelBreaking,
			run.failRateConsistency,
			run.validatorCrosscheck,
			run.candidateDiversity,
		),
	}
	r.Summary = summarize(r.Checks(), opts)
	return r
}

// ValidateDocument parses a raw document and validates it.
func ValidateDocument(doc string, opts Options) (*notebook.Conversation, *Report) {
	conv := notebook.Parse(doc)
	return conv, Validate(conv, opts)
}

func collect(fns ...func() *Check) []Check {
	out := make([]Check, 0, len(fns))
	for _, fn := range fns {
		out = append(out, *fn().settle())
	}
	return out
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ExpectedCandidates <= 0 {
		o.ExpectedCandidates = d.ExpectedCandidates
	}
	if o.MinBreakingCandidates <= 0 {
		o.MinBreakingCandidates = d.MinBreakingCandidates
	}
	if o.BreakingFailRate <= 0 {
		o.BreakingFailRate = d.BreakingFailRate
	}
	if o.FailRateTolerance <= 0 {
		o.FailRateTolerance = d.FailRateTolerance
	}
	if o.QuoteOverlap <= 0 {
		o.QuoteOverlap = d.QuoteOverlap
	}
	if o.MinQuoteLength <= 0 {
		o.MinQuoteLength = d.MinQuoteLength
	}
	if o.GoldenPrefixRunes <= 0 {
		o.GoldenPrefixRunes = d.GoldenPrefixRunes
	}
	if o.GoldenIssueSimilarity <= 0 {
		o.GoldenIssueSimilarity = d.GoldenIssueSimilarity
	}
	if o.GoldenWarnSimilarity <= 0 {
		o.GoldenWarnSimilarity = d.GoldenWarnSimilarity
	}
	if o.PromptLengthTolerance <= 0 {
		o.PromptLengthTolerance = d.PromptLengthTolerance
	}
	if o.MajorRevisionFailures <= 0 {
		o.MajorRevisionFailures = d.MajorRevisionFailures
	}
	return o
}

// run carries per-call state shared by the checks. Engine verdicts for the
// golden response are computed once.
type run struct {
	conv   *notebook.Conversation
	opts   Options
	meta   *notebook.TurnMetadata
	golden []instructionVerdict
}

type instructionVerdict struct {
	Instruction constraints.Instruction `json:"instruction"`
	Verdict     constraints.Verdict     `json:"verdict"`
}

func newRun(conv *notebook.Conversation, opts Options) *run {
	r := &run{conv: conv, opts: opts, meta: conv.Final.TurnMetadata}
	if r.meta != nil && conv.Final.HasAssistant {
		r.golden = evaluate(conv.Final.Assistant, r.meta.Mechanical)
	}
	return r
}

func evaluate(text string, ins []constraints.Instruction) []instructionVerdict {
	out := make([]instructionVerdict, len(ins))
	for i, in := range ins {
		out[i] = instructionVerdict{Instruction: in, Verdict: constraints.ValidateInstruction(text, in)}
	}
	return out
}
