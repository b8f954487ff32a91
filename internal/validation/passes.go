package validation

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/constraints"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/notebook"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

// ModelBreakingViolation prefixes the model_breaking failure.
const ModelBreakingViolation = "MODEL BREAKING RULE VIOLATED"

// quoted captures straight and curly double-quoted spans on one line.
var quoted = regexp.MustCompile(`"([^"\n]+)"|“([^”\n]+)”`)

// CandidateScore is one model pass's computed fail rate.
type CandidateScore struct {
	Pass             string  `json:"pass"`
	MechanicalTotal  int     `json:"mechanical_total"`
	MechanicalFailed int     `json:"mechanical_failed"`
	Unresolved       int     `json:"unresolved"`
	SemanticItems    int     `json:"semantic_items"`
	FailRate         float64 `json:"fail_rate"`
	Breaking         bool    `json:"breaking"`
}

// ScoreCandidate computes a response's fail rate over the mechanical
// instructions and, per opts, the semantic instructions and judge items.
// Unresolved mechanical verdicts are left out of both counts.
func ScoreCandidate(text string, meta *notebook.TurnMetadata, opts Options) CandidateScore {
	var s CandidateScore
	if meta == nil {
		return s
	}
	for _, iv := range evaluate(text, meta.Mechanical) {
		switch iv.Verdict.Outcome {
		case constraints.Valid:
			s.MechanicalTotal++
		case constraints.Invalid:
			s.MechanicalTotal++
			s.MechanicalFailed++
		default:
			s.Unresolved++
		}
	}
	s.SemanticItems = len(meta.Semantic) + len(meta.LLMJudge)

	total, failed := s.MechanicalTotal, s.MechanicalFailed
	if opts.SemanticCountsAsFailure {
		total += s.SemanticItems
		failed += s.SemanticItems
	}
	if total > 0 {
		s.FailRate = float64(failed) / float64(total)
	}
	s.Breaking = total > 0 && s.FailRate >= opts.BreakingFailRate
	return s
}

func (r *run) scores() []CandidateScore {
	out := make([]CandidateScore, 0, len(r.conv.Passes))
	for _, p := range r.conv.Passes {
		if !p.HasAssistant {
			continue
		}
		s := ScoreCandidate(p.Assistant, r.meta, r.opts)
		s.Pass = passLabel(p)
		out = append(out, s)
	}
	return out
}

func (r *run) modelBreaking() *Check {
	c := newCheck("model_breaking", "Model breaking rule")
	c.Critical = true
	if r.meta == nil {
		return c.skip("no decoded turn_metadata")
	}
	if len(r.meta.Mechanical)+len(r.meta.Semantic)+len(r.meta.LLMJudge) == 0 {
		return c.skip("no instructions to score")
	}

	goldenFailures := 0
	for _, iv := range r.golden {
		if iv.Verdict.IsInvalid() {
			goldenFailures++
		}
	}
	scores := r.scores()
	breaking := 0
	for _, s := range scores {
		if s.Breaking {
			breaking++
		}
	}
	c.detail("golden_mechanical_failures", goldenFailures)
	c.detail("candidates", scores)
	c.detail("breaking_candidates", breaking)
	c.detail("semantic_counts_as_failure", r.opts.SemanticCountsAsFailure)

	if goldenFailures > 0 {
		c.issue("%s: golden response fails %d mechanical instructions", ModelBreakingViolation, goldenFailures)
	}
	if breaking < r.opts.MinBreakingCandidates {
		c.issue("%s: %d of %d candidates reach a %s fail rate (need %d of %d)",
			ModelBreakingViolation, breaking, len(scores), percent(r.opts.BreakingFailRate),
			r.opts.MinBreakingCandidates, r.opts.ExpectedCandidates)
	}
	return c
}

func (r *run) failRateConsistency() *Check {
	c := newCheck("fail_rate_consistency", "Fail rate consistency")
	if r.meta == nil {
		return c.skip("no decoded turn_metadata")
	}
	compared := 0
	for _, p := range r.conv.Passes {
		rec := p.Record()
		if !p.HasAssistant || rec == nil || !rec.HasFailRate {
			continue
		}
		compared++
		computed := ScoreCandidate(p.Assistant, r.meta, r.opts).FailRate
		if math.Abs(computed-rec.FailRate) > r.opts.FailRateTolerance+1e-9 {
			c.Status = StatusNeedsReview
			c.warn("%s: computed fail rate %s, validator recorded %s; resolve manually",
				passLabel(p), percent(computed), percent(rec.FailRate))
		}
	}
	if compared == 0 {
		return c.skip("no candidate has a recorded fail rate")
	}
	c.detail("compared", compared)
	return c
}

// QuoteMatch is the outcome of locating one validator quote.
type QuoteMatch struct {
	Quote    string  `json:"quote"`
	Verbatim bool    `json:"verbatim"`
	Overlap  float64 `json:"overlap"`
	Found    bool    `json:"found"`
}

// LocateQuote looks a quote up in a response: verbatim after folding and
// whitespace normalization, else by word overlap of at least threshold.
func LocateQuote(quote, response string, threshold float64) QuoteMatch {
	m := QuoteMatch{Quote: quote}
	if strings.Contains(textmetrics.NormalizeForMatch(response), textmetrics.NormalizeForMatch(quote)) {
		m.Verbatim, m.Overlap, m.Found = true, 1, true
		return m
	}
	m.Overlap = textmetrics.WordOverlap(quote, response)
	m.Found = m.Overlap >= threshold
	return m
}

// Quotes extracts the double-quoted spans of at least minLen characters.
func Quotes(text string, minLen int) []string {
	var out []string
	for _, m := range quoted.FindAllStringSubmatch(text, -1) {
		q := m[1]
		if q == "" {
			q = m[2]
		}
		q = strings.TrimSpace(q)
		if utf8.RuneCountInString(q) >= minLen {
			out = append(out, q)
		}
	}
	return out
}

func justificationText(vs ...*notebook.Validator) []string {
	var out []string
	for _, v := range vs {
		switch {
		case v == nil:
		case v.Record != nil:
			out = append(out, v.Record.Justifications...)
		case !strings.ContainsAny(v.Raw, "{["):
			// Unparseable prose verdicts are still checked for quotes.
			out = append(out, v.Raw)
		}
	}
	return out
}

func (r *run) validatorCrosscheck() *Check {
	c := newCheck("validator_crosscheck", "Validator content cross-check")
	c.Critical = true
	checked := 0
	inspect := func(label, response string, vs ...*notebook.Validator) {
		for _, text := range justificationText(vs...) {
			for _, q := range Quotes(text, r.opts.MinQuoteLength) {
				checked++
				m := LocateQuote(q, response, r.opts.QuoteOverlap)
				if !m.Found {
					c.issue("%s validator quotes %q, which is not in the response (%s word overlap)", label, q, percent(m.Overlap))
				}
			}
		}
	}
	f := r.conv.Final
	if f.HasAssistant {
		inspect("golden", f.Assistant, f.ValidatorAssistant, f.ValidatorHuman)
	}
	for _, p := range r.conv.Passes {
		if p.HasAssistant {
			inspect(passLabel(p), p.Assistant, p.ValidatorAssistant, p.ValidatorHuman)
		}
	}
	if checked == 0 {
		return c.skip("no quoted text in validator justifications")
	}
	c.detail("quotes_checked", checked)
	return c
}

func (r *run) candidateDiversity() *Check {
	c := newCheck("candidate_diversity", "Candidate diversity")
	var seen []*notebook.ModelPass
	for _, p := range r.conv.Passes {
		if p.HasAssistant && !blank(p.Assistant) {
			seen = append(seen, p)
		}
	}
	if len(seen) == 0 {
		return c.skip("no candidate responses")
	}
	golden := textmetrics.NormalizeForMatch(r.conv.Final.Assistant)
	norm := make([]string, len(seen))
	for i, p := range seen {
		norm[i] = textmetrics.NormalizeForMatch(p.Assistant)
		if r.conv.Final.HasAssistant && norm[i] == golden {
			c.warn("%s is identical to the golden response", passLabel(p))
		}
	}
	for i := range seen {
		for j := i + 1; j < len(seen); j++ {
			if norm[i] == norm[j] {
				c.warn("%s and %s are identical", passLabel(seen[i]), passLabel(seen[j]))
			}
		}
	}
	return c
}
