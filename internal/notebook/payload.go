package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/constraints"
)

// ParseError describes a payload that could not be decoded.
type ParseError struct {
	Message string `json:"message"`
	RawText string `json:"raw_text"`
}

func (e *ParseError) Error() string { return e.Message }

var fencedJSON = regexp.MustCompile("(?s)```[ \t]*(?i:json)[ \t]*\n(.*?)```")

// ExtractJSON pulls structured data out of a cell body and decodes it into a
// generic value: a labeled json fence wins, else the span from the first
// opening bracket to its matching closer. Trailing commas are tolerated.
func ExtractJSON(raw string) (any, *ParseError) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ParseError{Message: "payload is empty", RawText: raw}
	}

	var candidates []string
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, m[1])
	}
	if span, ok := bracketSpan(raw); ok {
		candidates = append(candidates, span)
	}
	if len(candidates) == 0 {
		return nil, &ParseError{Message: "no JSON object or array found", RawText: raw}
	}

	var lastErr error
	for _, c := range candidates {
		var v any
		err := json.Unmarshal([]byte(stripTrailingCommas(c)), &v)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return nil, &ParseError{Message: fmt.Sprintf("invalid JSON: %v", lastErr), RawText: raw}
}

// bracketSpan returns the text from the first { or [ to the bracket that
// closes it, skipping string literals. When the closer is missing it falls
// back to the last closer of the same kind.
func bracketSpan(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	if end := strings.LastIndexByte(s, closer); end > start {
		return s[start : end+1], true
	}
	return "", false
}

// stripTrailingCommas removes commas that directly precede } or ], ignoring
// string contents.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
		}
		if ch == ',' {
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// ParseTurnMetadata decodes a turn_metadata cell. Three shapes are accepted:
// an object with an instructions list, an IFEval-style object with parallel
// instruction_id_list and kwargs lists, and a bare instruction array.
func ParseTurnMetadata(raw string) (*TurnMetadata, *ParseError) {
	v, perr := ExtractJSON(raw)
	if perr != nil {
		return nil, perr
	}

	tm := &TurnMetadata{}
	var list []any
	switch doc := v.(type) {
	case []any:
		list = doc
	case map[string]any:
		if md, ok := doc["metadata"].(map[string]any); ok {
			tm.Metadata = md
		}
		switch {
		case doc["instructions"] != nil:
			l, ok := doc["instructions"].([]any)
			if !ok {
				return nil, &ParseError{Message: "instructions is not a list", RawText: raw}
			}
			list = l
		case doc["instruction_id_list"] != nil:
			l, err := zipIFEval(doc)
			if err != nil {
				return nil, &ParseError{Message: err.Error(), RawText: raw}
			}
			list = l
		}
		judge, err := parseJudge(doc["llm_judge"])
		if err != nil {
			return nil, &ParseError{Message: err.Error(), RawText: raw}
		}
		tm.LLMJudge = judge
	default:
		return nil, &ParseError{Message: "payload is neither an object nor a list", RawText: raw}
	}

	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &ParseError{Message: fmt.Sprintf("instruction %d is not an object", i), RawText: raw}
		}
		in := instructionFrom(obj)
		tm.Instructions = append(tm.Instructions, in)
		if in.IsSemantic() {
			tm.Semantic = append(tm.Semantic, in)
		} else {
			tm.Mechanical = append(tm.Mechanical, in)
		}
	}
	return tm, nil
}

func instructionFrom(obj map[string]any) constraints.Instruction {
	id, _ := obj["instruction_id"].(string)
	if id == "" {
		id, _ = obj["id"].(string)
	}
	source, _ := obj["source"].(string)

	params := make(map[string]any, len(obj))
	if nested, ok := obj["kwargs"].(map[string]any); ok {
		for k, v := range nested {
			params[k] = v
		}
	}
	if nested, ok := obj["params"].(map[string]any); ok {
		for k, v := range nested {
			params[k] = v
		}
	}
	for k, v := range obj {
		switch k {
		case "instruction_id", "id", "source", "kwargs", "params":
			continue
		}
		params[k] = v
	}
	return constraints.NewInstruction(id, constraints.ParseSource(source), params)
}

func zipIFEval(doc map[string]any) ([]any, error) {
	ids, ok := doc["instruction_id_list"].([]any)
	if !ok {
		return nil, errors.New("instruction_id_list is not a list")
	}
	kwargs, _ := doc["kwargs"].([]any)
	if kwargs != nil && len(kwargs) != len(ids) {
		return nil, fmt.Errorf("instruction_id_list has %d entries but kwargs has %d", len(ids), len(kwargs))
	}
	out := make([]any, len(ids))
	for i, id := range ids {
		item := map[string]any{"instruction_id": id}
		if kwargs != nil {
			if kw, ok := kwargs[i].(map[string]any); ok {
				item["kwargs"] = kw
			}
		}
		out[i] = item
	}
	return out, nil
}

func parseJudge(v any) ([]JudgeItem, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, errors.New("llm_judge is not a list")
	}
	out := make([]JudgeItem, 0, len(list))
	for i, item := range list {
		switch j := item.(type) {
		case string:
			out = append(out, JudgeItem{UID: strconv.Itoa(i + 1), Content: j})
		case map[string]any:
			uid := fmt.Sprint(firstOf(j, "uid", "id"))
			if uid == "<nil>" {
				uid = strconv.Itoa(i + 1)
			}
			content, _ := firstOf(j, "content", "criterion", "description").(string)
			out = append(out, JudgeItem{UID: uid, Content: content})
		default:
			return nil, fmt.Errorf("llm_judge item %d is not an object", i)
		}
	}
	return out, nil
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

var justificationKeys = map[string]bool{
	"explanation": true, "justification": true, "reason": true, "reasoning": true,
	"comment": true, "comments": true, "note": true, "notes": true, "evidence": true,
	"rationale": true, "detail": true, "details": true, "analysis": true,
	"explanations": true, "justifications": true, "reasons": true,
}

// ParseValidator decodes a validator cell into a Validator that carries
// either a record or a parse error.
func ParseValidator(raw string) *Validator {
	v := &Validator{Raw: raw}
	data, perr := ExtractJSON(raw)
	if perr != nil {
		v.Err = perr
		return v
	}
	obj, ok := data.(map[string]any)
	if !ok {
		if list, isList := data.([]any); isList {
			obj = map[string]any{"checks": list}
		} else {
			v.Err = &ParseError{Message: "validator payload is not an object", RawText: raw}
			return v
		}
	}

	rec := &ValidatorRecord{}
	if checks, ok := firstOf(obj, "checks", "results", "instructions").([]any); ok {
		for _, c := range checks {
			cm, ok := c.(map[string]any)
			if !ok {
				continue
			}
			id, _ := firstOf(cm, "id", "instruction_id").(string)
			rec.Checks = append(rec.Checks, CheckStatus{ID: id, Status: statusString(firstOf(cm, "status", "result", "valid", "passed"))})
			collectJustifications(cm, &rec.Justifications)
		}
	}
	collectJustifications(obj, &rec.Justifications)

	rec.Passed, rec.Failed = countStatuses(rec.Checks)
	if n, ok := number(obj["passed"]); ok {
		rec.Passed = int(n)
	}
	if n, ok := number(obj["failed"]); ok {
		rec.Failed = int(n)
	}
	rec.TotalChecks = len(rec.Checks)
	if n, ok := number(firstOf(obj, "total_checks", "total")); ok {
		rec.TotalChecks = int(n)
	}
	if fr, ok := number(obj["fail_rate"]); ok {
		if percent(obj["fail_rate"]) || fr > 1 {
			fr /= 100
		}
		rec.FailRate, rec.HasFailRate = fr, true
	} else if rec.TotalChecks > 0 {
		rec.FailRate = float64(rec.Failed) / float64(rec.TotalChecks)
		rec.HasFailRate = true
	}
	v.Record = rec
	return v
}

func countStatuses(checks []CheckStatus) (passed, failed int) {
	for _, c := range checks {
		switch {
		case c.Passed():
			passed++
		case c.Failed():
			failed++
		}
	}
	return passed, failed
}

func collectJustifications(obj map[string]any, out *[]string) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !justificationKeys[strings.ToLower(k)] {
			continue
		}
		switch v := obj[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				*out = append(*out, v)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					*out = append(*out, s)
				}
			}
		}
	}
}

func statusString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		if s {
			return "passed"
		}
		return "failed"
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		n = strings.TrimSuffix(strings.TrimSpace(n), "%")
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// percent reports whether v is a string written with a trailing "%".
func percent(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasSuffix(strings.TrimSpace(s), "%")
}

// ParsePreamble reads "key: value" lines. Numeric values become float64.
func ParsePreamble(text string) map[string]any {
	out := map[string]any{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#*-"))
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(strings.Trim(key, "*")), " ", "_"))
		val = strings.TrimSpace(strings.Trim(strings.TrimSpace(val), "*"))
		if key == "" || val == "" || strings.ContainsAny(key, "\"{}[]") {
			continue
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			out[key] = f
		} else {
			out[key] = val
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
