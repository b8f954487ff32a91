package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/constraints"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

// leakedMarkup matches notebook tags and reasoning delimiters that should
// never appear inside a response body.
var leakedMarkup = regexp.MustCompile(`(?i)\[(?:system|user|thinking|assistant|turn_metadata|validator_assistant|validator_human)(?:_[a-z0-9]+_\d+)?\]|</?think>`)

func (r *run) goldenSanity() *Check {
	c := newCheck("golden_sanity", "Golden response sanity")
	f := r.conv.Final
	if !f.HasAssistant || !f.HasUser {
		return c.skip("golden response or final query missing")
	}
	golden := textmetrics.NormalizeForMatch(f.Assistant)
	query := textmetrics.NormalizeForMatch(f.User)
	if golden == "" {
		return c.skip("golden response is empty")
	}

	if golden == query {
		c.Critical = true
		c.issue("golden response is identical to user query")
		return c
	}
	n := r.opts.GoldenPrefixRunes
	if utf8.RuneCountInString(golden) >= n && utf8.RuneCountInString(query) >= n &&
		string([]rune(golden)[:n]) == string([]rune(query)[:n]) {
		c.issue("golden response repeats the first %d characters of the user query", n)
	}
	sim := textmetrics.Jaccard(f.Assistant, f.User)
	c.detail("jaccard", round2(sim))
	switch {
	case sim > r.opts.GoldenIssueSimilarity:
		c.issue("golden response is nearly a copy of the user query (similarity %.2f)", sim)
	case sim > r.opts.GoldenWarnSimilarity:
		c.warn("golden response closely mirrors the user query (similarity %.2f)", sim)
	}
	return c
}

func (r *run) goldenConstraints() *Check {
	c := newCheck("golden_constraints", "Golden response constraints")
	if r.meta == nil {
		return c.skip("no decoded turn_metadata")
	}
	if !r.conv.Final.HasAssistant {
		return c.skip("no golden response")
	}
	if len(r.golden) == 0 {
		return c.skip("no mechanical instructions")
	}
	results := make([]map[string]any, 0, len(r.golden))
	for _, iv := range r.golden {
		id := iv.Instruction.ID
		switch iv.Verdict.Outcome {
		case constraints.Invalid:
			c.issue("%s: %s", id, iv.Verdict.Note)
		case constraints.Unresolved:
			c.Status = StatusNeedsReview
			c.warn("%s: %s", id, iv.Verdict.Note)
		}
		results = append(results, map[string]any{"id": id, "verdict": iv.Verdict})
	}
	c.detail("results", results)
	return c
}

func (r *run) promptLength() *Check {
	c := newCheck("prompt_length", "Prompt length")
	md := r.conv.Metadata()
	userRange, hasUser := promptRange(md)
	sysRange, hasSys := systemPromptRange(md)
	if !hasUser && !hasSys {
		return c.skip("no declared prompt length range")
	}

	measured := false
	if hasUser && r.conv.Final.HasUser {
		r.measurePrompt(c, "prompt", r.conv.Final.User, userRange, "length", "declared")
		c.detail("unit", userRange.unit)
		measured = true
	}
	if hasSys && r.conv.HasSystem {
		r.measurePrompt(c, "system prompt", r.conv.SystemPrompt, sysRange, "system_length", "system_declared")
		c.detail("system_unit", sysRange.unit)
		measured = true
	}
	if !measured {
		return c.skip("no prompt to measure against the declared range")
	}
	return c
}

// measurePrompt applies the passed/warning/failed band to one prompt.
func (r *run) measurePrompt(c *Check, label, text string, pr lengthRange, lengthKey, declaredKey string) {
	n := textmetrics.CountWords(text)
	if pr.unit == "characters" {
		n = textmetrics.CountCharacters(text)
	}
	c.detail(lengthKey, n)
	c.detail(declaredKey, []float64{pr.lo, pr.hi})

	tol := r.opts.PromptLengthTolerance
	v := float64(n)
	switch {
	case v >= pr.lo && v <= pr.hi:
	case v >= pr.lo*(1-tol) && v <= pr.hi*(1+tol):
		c.warn("%s has %d %s, outside [%g, %g] but within the %.0f%% band", label, n, pr.unit, pr.lo, pr.hi, tol*100)
	default:
		c.issue("%s has %d %s, outside the declared range [%g, %g]", label, n, pr.unit, pr.lo, pr.hi)
	}
}

// lengthRange is a declared [lo, hi] prompt length.
type lengthRange struct {
	lo, hi float64
	unit   string
}

// promptRange reads the declared prompt length from document metadata.
// Accepted forms: prompt_length as {min,max}, [min,max] or "min-max", and
// flat prompt_min_words/prompt_max_words or prompt_length_min/max keys.
// The range applies to the final user query and, unless it declares its
// own, to the system prompt.
func promptRange(md map[string]any) (lengthRange, bool) {
	return rangeFrom(md, "prompt_length",
		[]string{"prompt_min_words", "prompt_length_min", "min_prompt_words"},
		[]string{"prompt_max_words", "prompt_length_max", "max_prompt_words"})
}

// systemPromptRange reads system_prompt_length (same forms as
// prompt_length), falling back to the shared prompt range.
func systemPromptRange(md map[string]any) (lengthRange, bool) {
	if pr, ok := rangeFrom(md, "system_prompt_length",
		[]string{"system_prompt_min_words", "system_prompt_length_min"},
		[]string{"system_prompt_max_words", "system_prompt_length_max"}); ok {
		return pr, true
	}
	return promptRange(md)
}

func rangeFrom(md map[string]any, key string, minKeys, maxKeys []string) (lengthRange, bool) {
	pr := lengthRange{unit: "words"}
	if isCharUnit(md[key+"_unit"]) {
		pr.unit = "characters"
	}
	valid := func(lo, hi float64, okLo, okHi bool) (lengthRange, bool) {
		pr.lo, pr.hi = lo, hi
		return pr, okLo && okHi && lo <= hi
	}
	switch v := md[key].(type) {
	case map[string]any:
		if isCharUnit(v["unit"]) {
			pr.unit = "characters"
		}
		lo, okLo := toFloat(firstKey(v, "min", "min_words", "min_chars"))
		hi, okHi := toFloat(firstKey(v, "max", "max_words", "max_chars"))
		return valid(lo, hi, okLo, okHi)
	case []any:
		if len(v) == 2 {
			lo, okLo := toFloat(v[0])
			hi, okHi := toFloat(v[1])
			return valid(lo, hi, okLo, okHi)
		}
	case string:
		if a, b, found := strings.Cut(v, "-"); found {
			lo, okLo := toFloat(a)
			hi, okHi := toFloat(b)
			return valid(lo, hi, okLo, okHi)
		}
	}
	lo, okLo := toFloat(firstKey(md, minKeys...))
	hi, okHi := toFloat(firstKey(md, maxKeys...))
	return valid(lo, hi, okLo, okHi)
}

func isCharUnit(v any) bool {
	u, ok := v.(string)
	return ok && strings.HasPrefix(strings.ToLower(u), "char")
}

func firstKey(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func (r *run) emptyContent() *Check {
	c := newCheck("empty_content", "Empty content")
	conv := r.conv
	if conv.HasSystem && blank(conv.SystemPrompt) {
		c.issue("system prompt is empty")
	}
	for i, t := range conv.Turns {
		if blank(t.User) {
			c.issue("turn %d user message is empty", i+1)
		}
	}
	if conv.Final.HasUser && blank(conv.Final.User) {
		c.issue("final user query is empty")
	}
	if conv.Final.HasAssistant && blank(conv.Final.Assistant) {
		c.issue("golden response is empty")
	}
	for _, p := range conv.Passes {
		if p.HasAssistant && blank(p.Assistant) {
			c.issue("%s response is empty", passLabel(p))
		}
	}
	return c
}

func (r *run) markupLeakage() *Check {
	c := newCheck("markup_leakage", "Markup leakage")
	inspect := func(label, text string) {
		if m := leakedMarkup.FindString(text); m != "" {
			c.warn("%s contains notebook markup %q", label, m)
		}
	}
	if r.conv.Final.HasAssistant {
		inspect("golden response", r.conv.Final.Assistant)
	}
	for _, p := range r.conv.Passes {
		inspect(passLabel(p)+" response", p.Assistant)
	}
	return c
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func round2(f float64) float64 {
	v, _ := strconv.ParseFloat(fmt.Sprintf("%.2f", f), 64)
	return v
}
