package validation

import (
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/constraints"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/notebook"
)

func (r *run) payloadValidation() *Check {
	c := newCheck("payload_validation", "Payload validation")
	f := r.conv.Final
	checked := 0
	if f.HasMetadataCell {
		checked++
		if f.MetadataError != nil {
			c.issue("turn_metadata: %s", f.MetadataError.Message)
		}
	}
	inspect := func(label string, v *notebook.Validator) {
		if v == nil {
			return
		}
		checked++
		if v.Err != nil {
			c.issue("%s: %s", label, v.Err.Message)
		}
	}
	inspect("final validator_assistant", f.ValidatorAssistant)
	inspect("final validator_human", f.ValidatorHuman)
	for _, p := range r.conv.Passes {
		inspect(passLabel(p)+" validator_assistant", p.ValidatorAssistant)
		inspect(passLabel(p)+" validator_human", p.ValidatorHuman)
	}
	if checked == 0 {
		return c.skip("no structured payloads")
	}
	c.detail("payloads", checked)
	return c
}

func (r *run) instructionSchema() *Check {
	c := newCheck("instruction_schema", "Instruction schema")
	if r.meta == nil {
		return c.skip("no decoded turn_metadata")
	}
	if len(r.meta.Instructions) == 0 {
		c.warn("turn_metadata declares no instructions")
	}
	seen := map[string]int{}
	for i, in := range r.meta.Instructions {
		switch {
		case in.ID == "":
			c.issue("instruction %d has no id", i+1)
			continue
		case in.IsSemantic():
		case !constraints.Known(in.ID):
			c.Status = StatusNeedsReview
			c.warn("%s is not a known mechanical instruction", in.ID)
		case in.DecodeError != "":
			c.issue("%s", in.DecodeError)
		}
		seen[in.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			c.warn("%s is declared %d times", id, n)
		}
	}
	return c
}

func (r *run) instructionPartition() *Check {
	c := newCheck("instruction_partition", "Instruction partition")
	if r.meta == nil {
		return c.skip("no decoded turn_metadata")
	}
	m := r.meta
	c.detail("mechanical", len(m.Mechanical))
	c.detail("semantic", len(m.Semantic))
	c.detail("llm_judge", len(m.LLMJudge))

	if len(m.Mechanical)+len(m.Semantic) != len(m.Instructions) {
		c.issue("%d instructions but %d mechanical + %d semantic", len(m.Instructions), len(m.Mechanical), len(m.Semantic))
	}
	for _, in := range m.Mechanical {
		if in.IsSemantic() {
			c.issue("%s is semantic but filed as mechanical", in.ID)
		}
	}
	for _, in := range m.Semantic {
		if !in.IsSemantic() {
			c.issue("%s is mechanical but filed as semantic", in.ID)
		}
	}
	if len(m.Instructions) > 0 && len(m.Mechanical) == 0 {
		c.warn("no mechanically checkable instructions")
	}
	return c
}

func (r *run) valueConsistency() *Check {
	c := newCheck("value_consistency", "Value consistency")
	if r.meta == nil {
		return c.skip("no decoded turn_metadata")
	}
	checked := 0
	for _, in := range r.meta.Instructions {
		values := evidenceValues(in)
		if len(values) == 0 {
			continue
		}
		checked++
		where, text := "final query", r.conv.Final.User
		if in.Source == constraints.SourceSystem {
			where, text = "system prompt", r.conv.SystemPrompt
		}
		if missing := missingEvidence(text, values); len(missing) > 0 {
			c.Status = StatusNeedsReview
			c.warn("%s: no evidence of %v in the %s", in.ID, missing, where)
		}
	}
	if checked == 0 {
		return c.skip("no instruction values to look for")
	}
	c.detail("instructions_checked", checked)
	return c
}

func (r *run) goldenValidatorAgreement() *Check {
	c := newCheck("golden_validator_agreement", "Golden validator agreement")
	rec := r.conv.Final.Record()
	if rec == nil {
		return c.skip("no golden validator record")
	}
	if len(r.golden) == 0 {
		return c.skip("no mechanical verdicts to compare")
	}
	recorded := map[string]notebook.CheckStatus{}
	for _, cs := range rec.Checks {
		recorded[cs.ID] = cs
	}
	compared := 0
	for _, iv := range r.golden {
		cs, ok := recorded[iv.Instruction.ID]
		if !ok || iv.Verdict.Outcome == constraints.Unresolved {
			continue
		}
		compared++
		engine := iv.Verdict.IsValid()
		if (cs.Passed() && !engine) || (cs.Failed() && engine) {
			c.Status = StatusNeedsReview
			c.warn("%s: validator recorded %q but the engine found %s (%s)", iv.Instruction.ID, cs.Status, iv.Verdict.Outcome, iv.Verdict.Note)
		}
	}
	if compared == 0 {
		return c.skip("validator record shares no instruction ids with turn_metadata")
	}
	c.detail("compared", compared)
	return c
}
