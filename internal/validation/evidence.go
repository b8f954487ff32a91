package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/constraints"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

// evidence is one declared parameter value to look for in the prompt.
type evidence struct {
	text   string
	number float64
	isNum  bool
}

func (e evidence) String() string {
	if e.isNum {
		return strconv.FormatFloat(e.number, 'f', -1, 64)
	}
	return strconv.Quote(e.text)
}

// ignoredParams never carry a value the user states literally.
var ignoredParams = map[string]bool{
	"relation": true, "let_relation": true, "description": true, "uid": true,
	"type": true, "weight": true, "category": true,
}

var numberToken = regexp.MustCompile(`\d+(?:\.\d+)?`)

var numberWords = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
	"seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"thirty": 30, "forty": 40, "fifty": 50, "sixty": 60, "seventy": 70,
	"eighty": 80, "ninety": 90, "hundred": 100, "thousand": 1000,
	"single": 1, "once": 1, "twice": 2, "thrice": 3, "dozen": 12,
}

// evidenceValues lists the literal values an instruction's wording should
// contain, in parameter-name order.
func evidenceValues(in constraints.Instruction) []evidence {
	keys := make([]string, 0, len(in.Raw))
	for k := range in.Raw {
		if !ignoredParams[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out []evidence
	add := func(v any) {
		switch x := v.(type) {
		case float64:
			if !math.IsInf(x, 0) && !math.IsNaN(x) {
				out = append(out, evidence{number: x, isNum: true})
			}
		case int:
			out = append(out, evidence{number: float64(x), isNum: true})
		case string:
			if s := strings.TrimSpace(x); s != "" && !isInfinity(s) {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					out = append(out, evidence{number: f, isNum: true})
				} else {
					out = append(out, evidence{text: s})
				}
			}
		}
	}
	for _, k := range keys {
		switch v := in.Raw[k].(type) {
		case []any:
			for _, item := range v {
				add(item)
			}
		case []string:
			for _, item := range v {
				add(item)
			}
		default:
			add(v)
		}
	}
	return out
}

func isInfinity(s string) bool {
	switch strings.ToLower(s) {
	case "inf", "infinite", "infinity", "∞":
		return true
	}
	return false
}

// missingEvidence returns the values that do not appear in text.
func missingEvidence(text string, values []evidence) []string {
	nums := mentionedNumbers(text)
	var missing []string
	for _, v := range values {
		if v.isNum {
			if !nums[v.number] {
				missing = append(missing, v.String())
			}
			continue
		}
		if textmetrics.ContainsPhrase(text, v.text) {
			continue
		}
		// Longer values may appear inflected ("tram" in "trams").
		if utf8.RuneCountInString(v.text) >= 4 && strings.Contains(textmetrics.Fold(text), textmetrics.Fold(v.text)) {
			continue
		}
		missing = append(missing, v.String())
	}
	return missing
}

// mentionedNumbers collects digit and spelled-out numbers in text.
func mentionedNumbers(text string) map[float64]bool {
	found := map[float64]bool{}
	for _, tok := range numberToken.FindAllString(text, -1) {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			found[f] = true
		}
	}
	for _, w := range textmetrics.Tokens(textmetrics.Fold(text)) {
		for _, part := range strings.Split(w, "-") {
			if f, ok := numberWords[part]; ok {
				found[f] = true
			}
		}
		if n, ok := compoundNumber(w); ok {
			found[n] = true
		}
	}
	return found
}

// compoundNumber reads hyphenated tens such as "twenty-five".
func compoundNumber(w string) (float64, bool) {
	tens, ones, ok := strings.Cut(w, "-")
	if !ok {
		return 0, false
	}
	t, okT := numberWords[tens]
	o, okO := numberWords[ones]
	if !okT || !okO || t < 20 || t > 90 || o < 1 || o > 9 {
		return 0, false
	}
	return t + o, true
}

func percent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}
