package notebook

import (
	"fmt"
)

// Parse segments and assembles a document in one step, including any
// key: value preamble before the first marker.
func Parse(doc string) *Conversation {
	conv := Assemble(Segment(doc))
	if conv.Recognized() {
		conv.Preamble = ParsePreamble(Preamble(doc))
	}
	return conv
}

// Assemble builds a Conversation from segmented cells. It never fails;
// structural problems are recorded as anomalies.
func Assemble(cells []Cell) *Conversation {
	a := assembler{
		conv:     &Conversation{Cells: cells},
		passes:   map[PassKey]*ModelPass{},
		metaIdx:  -1,
		finalIdx: -1,
	}
	a.locateFinal()
	for i, c := range cells {
		a.add(i, c)
	}
	a.flush()
	return a.conv
}

type assembler struct {
	conv   *Conversation
	passes map[PassKey]*ModelPass

	metaIdx  int
	finalIdx int

	current  *Turn
	inFinal  bool
	seenMeta bool
}

// locateFinal picks the final user cell: the nearest non-pass user before
// the first non-pass turn_metadata, else the last non-pass user.
func (a *assembler) locateFinal() {
	cells := a.conv.Cells
	for i, c := range cells {
		if !c.IsModelPass && c.Role == RoleTurnMetadata {
			a.metaIdx = i
			break
		}
	}
	end := len(cells)
	if a.metaIdx >= 0 {
		end = a.metaIdx
	}
	for i := end - 1; i >= 0; i-- {
		if !cells[i].IsModelPass && cells[i].Role == RoleUser {
			a.finalIdx = i
			return
		}
	}
	if a.metaIdx >= 0 {
		return
	}
	for i := len(cells) - 1; i >= 0; i-- {
		if !cells[i].IsModelPass && cells[i].Role == RoleUser {
			a.finalIdx = i
			return
		}
	}
}

func (a *assembler) anomaly(c Cell, format string, args ...any) {
	a.conv.Anomalies = append(a.conv.Anomalies, Anomaly{Cell: c.Index, Line: c.Line, Message: fmt.Sprintf(format, args...)})
}

func (a *assembler) flush() {
	if a.current != nil {
		a.conv.Turns = append(a.conv.Turns, *a.current)
		a.current = nil
	}
}

func (a *assembler) add(i int, c Cell) {
	if c.IsModelPass {
		a.addPass(c)
		return
	}
	switch c.Role {
	case RoleSystem:
		if a.conv.HasSystem {
			a.anomaly(c, "duplicate system cell ignored")
			return
		}
		a.conv.SystemPrompt, a.conv.HasSystem = c.Content, true

	case RoleUser:
		switch {
		case i == a.finalIdx:
			a.flush()
			a.inFinal = true
			a.conv.Final.User, a.conv.Final.HasUser = c.Content, true
		case a.finalIdx < 0 || i > a.finalIdx:
			a.anomaly(c, "user cell after the final turn's metadata is ignored")
		default:
			a.flush()
			a.current = &Turn{User: c.Content}
		}

	case RoleThinking, RoleAssistant:
		a.addResponse(c)

	case RoleTurnMetadata:
		if a.seenMeta {
			a.anomaly(c, "duplicate turn_metadata cell ignored")
			return
		}
		a.seenMeta = true
		a.flush()
		a.inFinal = true
		f := &a.conv.Final
		f.HasMetadataCell = true
		f.TurnMetadata, f.MetadataError = ParseTurnMetadata(c.Content)

	case RoleValidatorAssistant, RoleValidatorHuman:
		if !a.inFinal {
			a.anomaly(c, "%s cell before the final turn is ignored", c.Role)
			return
		}
		v := ParseValidator(c.Content)
		if c.Role == RoleValidatorAssistant {
			a.conv.Final.ValidatorAssistant = v
		} else {
			a.conv.Final.ValidatorHuman = v
		}

	default:
		a.anomaly(c, "unrecognized cell role %q", c.Role)
	}
}

func (a *assembler) addResponse(c Cell) {
	if a.inFinal || a.finalIdx < 0 {
		f := &a.conv.Final
		if c.Role == RoleThinking {
			f.Thinking = c.Content
			return
		}
		if f.HasAssistant {
			a.anomaly(c, "duplicate final assistant cell ignored")
			return
		}
		f.Assistant, f.HasAssistant = c.Content, true
		return
	}
	if a.current == nil {
		a.anomaly(c, "%s cell without a preceding user cell is ignored", c.Role)
		return
	}
	if c.Role == RoleThinking {
		a.current.Thinking = c.Content
		return
	}
	a.current.Assistant = c.Content
	a.flush()
}

func (a *assembler) addPass(c Cell) {
	key := PassKey{Model: c.Model, PassNumber: c.PassNumber}
	p, ok := a.passes[key]
	if !ok {
		p = &ModelPass{Model: c.Model, PassNumber: c.PassNumber}
		a.passes[key] = p
		a.conv.Passes = append(a.conv.Passes, p)
	}
	switch c.Role {
	case RoleThinking:
		p.Thinking = c.Content
	case RoleAssistant:
		p.Assistant, p.HasAssistant = c.Content, true
	case RoleValidatorAssistant:
		p.ValidatorAssistant = ParseValidator(c.Content)
	case RoleValidatorHuman:
		p.ValidatorHuman = ParseValidator(c.Content)
	case RoleUser:
		a.anomaly(c, "user cell inside model pass %s_%d is ignored", c.Model, c.PassNumber)
	default:
		a.anomaly(c, "%s cell inside model pass %s_%d is ignored", c.Role, c.Model, c.PassNumber)
	}
}
