// Package semantic adjudicates the instructions a text scanner cannot decide
// (tone, mood, judge rubrics) by asking an external model.
//
// Results stay outside the validation report: a Verdict is advice for the
// reviewer and never changes a check's status.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/notebook"
)

// DefaultConcurrency bounds the verifier calls in flight per Adjudicate.
const DefaultConcurrency = 4

// DefaultMinConfidence is the confidence below which a verdict is flagged
// for human review.
const DefaultMinConfidence = 0.7

// ErrNoVerifier is returned when adjudication is requested without a
// configured verifier.
var ErrNoVerifier = errors.New("semantic: no verifier configured")

// Verdict is a verifier's decision about one instruction.
type Verdict struct {
	Valid      bool    `json:"valid"`
	Evidence   string  `json:"evidence"`
	Confidence float64 `json:"confidence"`
}

// Verifier decides whether text satisfies a semantic instruction.
type Verifier interface {
	Evaluate(ctx context.Context, instructionID string, params map[string]any, text string) (Verdict, error)
}

// Kinds of adjudicated items.
const (
	KindInstruction = "instruction"
	KindJudge       = "judge"
)

// Result is the outcome for one semantic instruction or judge item.
type Result struct {
	Kind        string  `json:"kind"`
	ID          string  `json:"id"`
	Verdict     Verdict `json:"verdict"`
	NeedsReview bool    `json:"needs_review"`
	Err         string  `json:"error,omitempty"`
}

// Options tune Adjudicate.
type Options struct {
	Concurrency   int
	MinConfidence float64
}

type item struct {
	kind   string
	id     string
	params map[string]any
}

// items lists what Adjudicate would send to the verifier, in order:
// semantic instructions first, then judge items.
func items(conv *notebook.Conversation) []item {
	meta := conv.Final.TurnMetadata
	if meta == nil {
		return nil
	}
	out := make([]item, 0, len(meta.Semantic)+len(meta.LLMJudge))
	for _, in := range meta.Semantic {
		out = append(out, item{kind: KindInstruction, id: in.ID, params: in.Raw})
	}
	for _, j := range meta.LLMJudge {
		out = append(out, item{kind: KindJudge, id: "llm_judge:" + j.UID, params: map[string]any{"criterion": j.Content}})
	}
	return out
}

// Adjudicate evaluates every semantic instruction and judge item of the
// final turn against the golden response. Verifier failures are recorded
// per result; only context cancellation aborts the whole call.
func Adjudicate(ctx context.Context, v Verifier, conv *notebook.Conversation, opts Options) ([]Result, error) {
	if v == nil {
		return nil, ErrNoVerifier
	}
	if conv == nil || !conv.Final.HasAssistant {
		return nil, nil
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}

	todo := items(conv)
	results := make([]Result, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, it := range todo {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := Result{Kind: it.kind, ID: it.id}
			verdict, err := v.Evaluate(gctx, it.id, it.params, conv.Final.Assistant)
			switch {
			case err != nil && gctx.Err() != nil:
				return gctx.Err()
			case err != nil:
				r.Err = err.Error()
				r.NeedsReview = true
			default:
				r.Verdict = verdict
				r.NeedsReview = verdict.Confidence < opts.MinConfidence
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("semantic: adjudicate: %w", err)
	}
	return results, nil
}

// Failed returns the ids of results whose verdict is invalid, sorted.
func Failed(results []Result) []string {
	var out []string
	for _, r := range results {
		if r.Err == "" && !r.Verdict.Valid {
			out = append(out, r.ID)
		}
	}
	sort.Strings(out)
	return out
}
