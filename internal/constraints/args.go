package constraints

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

var inf = math.Inf(1)

// args is a raw parameter map with lenient typed getters. Payloads arrive
// from hand-edited JSON, so numbers may be strings and names have aliases.
type args map[string]any

func missing(names ...string) error {
	return fmt.Errorf("missing parameter %s", strings.Join(names, " or "))
}

func (a args) lookup(names ...string) (any, string, bool) {
	for _, n := range names {
		if v, ok := a[n]; ok && v != nil {
			return v, n, true
		}
	}
	return nil, "", false
}

func (a args) str(names ...string) (string, error) {
	v, name, ok := a.lookup(names...)
	if !ok {
		return "", missing(names...)
	}
	switch s := v.(type) {
	case string:
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("parameter %s is empty", name)
		}
		return s, nil
	case float64, int, json.Number:
		return fmt.Sprint(s), nil
	}
	return "", fmt.Errorf("parameter %s: want string, got %T", name, v)
}

func (a args) strs(names ...string) ([]string, error) {
	v, name, ok := a.lookup(names...)
	if !ok {
		return nil, missing(names...)
	}
	var out []string
	switch s := v.(type) {
	case []string:
		out = s
	case []any:
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %s: want list of strings, got %T item", name, item)
			}
			out = append(out, str)
		}
	case string:
		for _, part := range strings.Split(s, ",") {
			out = append(out, part)
		}
	default:
		return nil, fmt.Errorf("parameter %s: want list, got %T", name, v)
	}

	cleaned := out[:0:0]
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("parameter %s is empty", name)
	}
	return cleaned, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return parseNumber(n)
	}
	return 0, fmt.Errorf("want number, got %T", v)
}

// parseNumber accepts plain numbers, "a/b" fractions and spellings of
// infinity.
func parseNumber(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "inf", "+inf", "infinite", "infinity", "∞":
		return inf, nil
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return inf, nil
		}
		return n / d, nil
	}
	return strconv.ParseFloat(s, 64)
}

func (a args) optFloat(names ...string) (float64, bool, error) {
	v, name, ok := a.lookup(names...)
	if !ok {
		return 0, false, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, false, fmt.Errorf("parameter %s: %w", name, err)
	}
	if math.IsNaN(f) || f < 0 {
		return 0, false, fmt.Errorf("parameter %s must be a non-negative number", name)
	}
	return f, true, nil
}

func (a args) optInt(names ...string) (int, bool, error) {
	f, ok, err := a.optFloat(names...)
	if err != nil || !ok {
		return 0, ok, err
	}
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false, fmt.Errorf("parameter %s must be a whole number", names[0])
	}
	return int(f), true, nil
}

func (a args) int(names ...string) (int, error) {
	n, ok, err := a.optInt(names...)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, missing(names...)
	}
	return n, nil
}

// count reads a value under one of names and a relation under one of
// relNames, falling back to def when no relation is given.
func (a args) count(def textmetrics.Relation, relNames []string, names ...string) (Count, error) {
	n, err := a.int(names...)
	if err != nil {
		return Count{}, err
	}
	rel := def
	if v, name, ok := a.lookup(relNames...); ok {
		s, isStr := v.(string)
		if !isStr {
			return Count{}, fmt.Errorf("parameter %s: want string, got %T", name, v)
		}
		if strings.TrimSpace(s) != "" {
			if rel, err = textmetrics.ParseRelation(s); err != nil {
				return Count{}, err
			}
		}
	}
	return Count{N: n, Relation: rel}, nil
}
