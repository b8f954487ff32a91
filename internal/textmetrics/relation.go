package textmetrics

import (
	"fmt"
	"strings"
)

// Relation is a comparison between an observed count and a declared value.
type Relation string

// Supported relations. Natural-language and symbolic spellings both parse to
// these four values.
const (
	AtLeast  Relation = "at least"
	Equal    Relation = "equal to"
	LessThan Relation = "less than"
	AtMost   Relation = "at most"
)

var relationAliases = map[string]Relation{
	"at least": AtLeast,
	"atleast":  AtLeast,
	"minimum":  AtLeast,
	">=":       AtLeast,
	"≥":        AtLeast,
	"=>":       AtLeast,

	"equal to": Equal,
	"equal":    Equal,
	"equals":   Equal,
	"exactly":  Equal,
	"=":        Equal,
	"==":       Equal,

	"less than":  LessThan,
	"fewer than": LessThan,
	"<":          LessThan,

	"at most":      AtMost,
	"atmost":       AtMost,
	"maximum":      AtMost,
	"no more than": AtMost,
	"<=":           AtMost,
	"≤":            AtMost,
	"=<":           AtMost,
}

// ParseRelation normalizes a relation spelling. Case, surrounding space and
// underscores ("at_least") are ignored.
func ParseRelation(s string) (Relation, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.Join(strings.Fields(strings.ReplaceAll(key, "_", " ")), " ")
	if r, ok := relationAliases[key]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown relation %q", s)
}

// Holds reports whether "count <relation> value" is true.
func (r Relation) Holds(count, value int) bool {
	switch r {
	case AtLeast:
		return count >= value
	case Equal:
		return count == value
	case LessThan:
		return count < value
	case AtMost:
		return count <= value
	}
	return false
}

// Symbol returns the mathematical symbol for r.
func (r Relation) Symbol() string {
	switch r {
	case AtLeast:
		return "≥"
	case Equal:
		return "="
	case LessThan:
		return "<"
	case AtMost:
		return "≤"
	}
	return "?"
}

// Describe renders "count=12 (want ≥ 10)".
func (r Relation) Describe(count, value int) string {
	return fmt.Sprintf("count=%d (want %s %d)", count, r.Symbol(), value)
}
