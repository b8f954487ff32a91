// Package notebook turns a tagged transcript document into a typed
// Conversation: Segment splits it into cells, Assemble groups the cells into
// turns, the final turn and candidate model passes.
//
// Neither step fails. Malformed input degrades to an unknown cell, a
// ParseError on the payload, or an Anomaly on the conversation.
package notebook

import (
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/constraints"
)

// Role is a cell's tag name.
type Role string

const (
	RoleSystem             Role = "system"
	RoleUser               Role = "user"
	RoleThinking           Role = "thinking"
	RoleAssistant          Role = "assistant"
	RoleTurnMetadata       Role = "turn_metadata"
	RoleValidatorAssistant Role = "validator_assistant"
	RoleValidatorHuman     Role = "validator_human"
	RoleUnknown            Role = "unknown"
)

// Cell is one tagged block of the document.
type Cell struct {
	Index       int    `json:"index"`
	Line        int    `json:"line"`
	Role        Role   `json:"role"`
	IsModelPass bool   `json:"is_model_pass"`
	Model       string `json:"model,omitempty"`
	PassNumber  int    `json:"pass_number,omitempty"`
	Content     string `json:"content"`
}

// PassKey identifies a candidate generation.
type PassKey struct {
	Model      string `json:"model"`
	PassNumber int    `json:"pass_number"`
}

// JudgeItem is a free-text requirement only an external judge can check.
type JudgeItem struct {
	UID     string `json:"uid"`
	Content string `json:"content"`
}

// TurnMetadata is the decoded turn_metadata payload. Every instruction lands
// in exactly one of Mechanical and Semantic.
type TurnMetadata struct {
	Metadata     map[string]any            `json:"metadata,omitempty"`
	Instructions []constraints.Instruction `json:"instructions"`
	Mechanical   []constraints.Instruction `json:"mechanical"`
	Semantic     []constraints.Instruction `json:"semantic"`
	LLMJudge     []JudgeItem               `json:"llm_judge,omitempty"`
}

// CheckStatus is one entry of a validator's check list.
type CheckStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Passed reports whether the status reads as a pass.
func (c CheckStatus) Passed() bool {
	switch normalizeStatus(c.Status) {
	case "pass", "passed", "true", "valid", "ok", "yes":
		return true
	}
	return false
}

// Failed reports whether the status reads as a failure.
func (c CheckStatus) Failed() bool {
	switch normalizeStatus(c.Status) {
	case "fail", "failed", "false", "invalid", "no":
		return true
	}
	return false
}

// ValidatorRecord is a validator cell's recorded verdict.
type ValidatorRecord struct {
	Checks      []CheckStatus `json:"checks"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	TotalChecks int           `json:"total_checks"`

	// FailRate is the explicit fail_rate field when present, else
	// Failed/TotalChecks. HasFailRate is false when neither is available.
	FailRate    float64 `json:"fail_rate"`
	HasFailRate bool    `json:"-"`

	// Justifications holds the free-text explanations found in the payload.
	Justifications []string `json:"justifications,omitempty"`
}

// Validator is one validator cell: either a record or a parse error.
type Validator struct {
	Raw    string           `json:"-"`
	Record *ValidatorRecord `json:"record,omitempty"`
	Err    *ParseError      `json:"error,omitempty"`
}

// Turn is an intermediate user/assistant exchange.
type Turn struct {
	User      string `json:"user"`
	Thinking  string `json:"thinking,omitempty"`
	Assistant string `json:"assistant"`
}

// FinalTurn is the turn under evaluation. Assistant is the golden response.
type FinalTurn struct {
	User               string        `json:"user"`
	HasUser            bool          `json:"has_user"`
	TurnMetadata       *TurnMetadata `json:"turn_metadata,omitempty"`
	MetadataError      *ParseError   `json:"metadata_error,omitempty"`
	HasMetadataCell    bool          `json:"has_metadata_cell"`
	Thinking           string        `json:"thinking,omitempty"`
	Assistant          string        `json:"assistant"`
	HasAssistant       bool          `json:"has_assistant"`
	ValidatorAssistant *Validator    `json:"validator_assistant,omitempty"`
	ValidatorHuman     *Validator    `json:"validator_human,omitempty"`
}

// ModelPass is one candidate generation, keyed by (Model, PassNumber).
type ModelPass struct {
	Model              string     `json:"model"`
	PassNumber         int        `json:"pass_number"`
	Thinking           string     `json:"thinking,omitempty"`
	Assistant          string     `json:"assistant"`
	HasAssistant       bool       `json:"has_assistant"`
	ValidatorAssistant *Validator `json:"validator_assistant,omitempty"`
	ValidatorHuman     *Validator `json:"validator_human,omitempty"`
}

// Key returns the pass's identity.
func (p *ModelPass) Key() PassKey { return PassKey{Model: p.Model, PassNumber: p.PassNumber} }

// Record returns the first validator record available, assistant first.
func (p *ModelPass) Record() *ValidatorRecord {
	return firstRecord(p.ValidatorAssistant, p.ValidatorHuman)
}

// Record returns the first final-turn validator record, assistant first.
func (f *FinalTurn) Record() *ValidatorRecord {
	return firstRecord(f.ValidatorAssistant, f.ValidatorHuman)
}

func firstRecord(vs ...*Validator) *ValidatorRecord {
	for _, v := range vs {
		if v != nil && v.Record != nil {
			return v.Record
		}
	}
	return nil
}

// Anomaly is a structural oddity found while assembling.
type Anomaly struct {
	Cell    int    `json:"cell"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Conversation is the assembled document. It is not modified after Assemble
// returns.
type Conversation struct {
	Cells        []Cell         `json:"cells"`
	SystemPrompt string         `json:"system_prompt"`
	HasSystem    bool           `json:"has_system"`
	Preamble     map[string]any `json:"preamble,omitempty"`
	Turns        []Turn         `json:"turns"`
	Final        FinalTurn      `json:"final"`
	Passes       []*ModelPass   `json:"passes"`
	Anomalies    []Anomaly      `json:"anomalies,omitempty"`
}

// Recognized reports whether segmentation found at least one tagged cell.
func (c *Conversation) Recognized() bool {
	for _, cell := range c.Cells {
		if cell.Role != RoleUnknown {
			return true
		}
	}
	return false
}

// Pass looks a candidate up by key.
func (c *Conversation) Pass(model string, n int) *ModelPass {
	for _, p := range c.Passes {
		if p.Model == model && p.PassNumber == n {
			return p
		}
	}
	return nil
}

// Metadata merges preamble metadata under the payload's metadata object.
func (c *Conversation) Metadata() map[string]any {
	out := make(map[string]any, len(c.Preamble))
	for k, v := range c.Preamble {
		out[k] = v
	}
	if tm := c.Final.TurnMetadata; tm != nil {
		for k, v := range tm.Metadata {
			out[k] = v
		}
	}
	return out
}
