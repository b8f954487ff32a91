package constraints

import (
	"encoding/json"
	"fmt"
)

// Outcome is the tri-state result of one check.
type Outcome int

const (
	Unresolved Outcome = iota
	Valid
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	}
	return "unresolved"
}

// Verdict is the engine's answer for one instruction. Outcome Unresolved with
// Semantic set means the instruction must be forwarded to an external judge.
type Verdict struct {
	Outcome  Outcome
	Note     string
	Semantic bool
}

func pass(note string, a ...any) Verdict {
	return Verdict{Outcome: Valid, Note: fmt.Sprintf(note, a...)}
}

func fail(note string, a ...any) Verdict {
	return Verdict{Outcome: Invalid, Note: fmt.Sprintf(note, a...)}
}

func check(ok bool, note string, a ...any) Verdict {
	if ok {
		return pass(note, a...)
	}
	return fail(note, a...)
}

func unresolved(note string, a ...any) Verdict {
	return Verdict{Outcome: Unresolved, Note: fmt.Sprintf(note, a...)}
}

// IsValid reports a resolved pass.
func (v Verdict) IsValid() bool { return v.Outcome == Valid }

// IsInvalid reports a resolved failure.
func (v Verdict) IsInvalid() bool { return v.Outcome == Invalid }

type verdictJSON struct {
	Valid    *bool  `json:"valid"`
	Note     string `json:"note,omitempty"`
	Semantic bool   `json:"semantic,omitempty"`
}

// MarshalJSON renders the outcome as valid: true, false or null.
func (v Verdict) MarshalJSON() ([]byte, error) {
	out := verdictJSON{Note: v.Note, Semantic: v.Semantic}
	switch v.Outcome {
	case Valid:
		t := true
		out.Valid = &t
	case Invalid:
		f := false
		out.Valid = &f
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var in verdictJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*v = Verdict{Note: in.Note, Semantic: in.Semantic}
	if in.Valid != nil {
		if *in.Valid {
			v.Outcome = Valid
		} else {
			v.Outcome = Invalid
		}
	}
	return nil
}
