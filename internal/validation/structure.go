package validation

import (
	"strconv"
	"strings"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/notebook"
)

func (r *run) cellsDetected() *Check {
	c := newCheck("cells_detected", "Cells detected")
	roles := map[string]int{}
	for _, cell := range r.conv.Cells {
		roles[string(cell.Role)]++
	}
	c.detail("cells", len(r.conv.Cells))
	c.detail("roles", roles)
	return c
}

func (r *run) systemPrompt() *Check {
	c := newCheck("system_prompt", "System prompt")
	switch {
	case !r.conv.HasSystem:
		c.issue("no system prompt cell")
	case strings.TrimSpace(r.conv.SystemPrompt) == "":
		c.warn("system cell is empty")
	default:
		c.detail("words", len(strings.Fields(r.conv.SystemPrompt)))
	}
	return c
}

func (r *run) finalTurn() *Check {
	c := newCheck("final_turn", "Final turn")
	f := r.conv.Final
	if !f.HasUser {
		c.issue("no final user query")
	}
	if !f.HasMetadataCell {
		c.issue("no turn_metadata cell")
	}
	if !f.HasAssistant {
		c.issue("no golden assistant response")
	}
	if f.ValidatorAssistant == nil && f.ValidatorHuman == nil {
		c.warn("no validator cell for the golden response")
	}
	if strings.TrimSpace(f.Thinking) == "" {
		c.warn("no thinking cell for the golden response")
	}
	return c
}

func (r *run) intermediateTurns() *Check {
	c := newCheck("intermediate_turns", "Intermediate turns")
	c.detail("turns", len(r.conv.Turns))
	for i, t := range r.conv.Turns {
		if strings.TrimSpace(t.Assistant) == "" {
			c.warn("turn %d has no assistant response", i+1)
		}
	}
	return c
}

func (r *run) modelPasses() *Check {
	c := newCheck("model_passes", "Model passes")
	passes := r.conv.Passes
	keys := make([]string, 0, len(passes))
	for _, p := range passes {
		keys = append(keys, passLabel(p))
		if !p.HasAssistant {
			c.issue("%s has no assistant response", passLabel(p))
		}
		if p.ValidatorAssistant == nil && p.ValidatorHuman == nil {
			c.warn("%s has no validator cell", passLabel(p))
		}
	}
	c.detail("passes", keys)
	if len(passes) != r.opts.ExpectedCandidates {
		c.issue("expected %d candidate passes, found %d", r.opts.ExpectedCandidates, len(passes))
	}
	return c
}

func (r *run) cellAnomalies() *Check {
	c := newCheck("cell_anomalies", "Cell anomalies")
	for _, a := range r.conv.Anomalies {
		c.warn("line %d: %s", a.Line, a.Message)
	}
	return c
}

func passLabel(p *notebook.ModelPass) string {
	return p.Model + "_" + strconv.Itoa(p.PassNumber)
}
