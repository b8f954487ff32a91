package notebook

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// marker matches a line-anchored **[tag]** or [tag]. Group 1 is the role,
// groups 2 and 3 the optional model and pass number.
var marker = regexp.MustCompile(`(?im)^[ \t]*(?:\*\*)?\[(validator_assistant|validator_human|turn_metadata|system|user|thinking|assistant)(?:_(qwen3|nemotron)_(\d+))?\](?:\*\*)?[ \t]*`)

// Segment splits a document into tagged cells in document order. Quoted and
// notebook-JSON exports are unwrapped first. A document without markers
// yields one RoleUnknown cell holding the whole text.
func Segment(doc string) []Cell {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	body := unwrap(doc)

	locs := marker.FindAllStringSubmatchIndex(body, -1)
	if len(locs) == 0 {
		return []Cell{{Index: 0, Line: 1, Role: RoleUnknown, Content: strings.TrimSpace(doc)}}
	}

	cells := make([]Cell, 0, len(locs))
	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		c := Cell{
			Index:   i,
			Line:    strings.Count(body[:loc[0]], "\n") + 1,
			Role:    Role(strings.ToLower(body[loc[2]:loc[3]])),
			Content: trimBlankLines(body[loc[1]:end]),
		}
		if loc[4] >= 0 {
			c.IsModelPass = true
			c.Model = strings.ToLower(body[loc[4]:loc[5]])
			c.PassNumber, _ = strconv.Atoi(body[loc[6]:loc[7]])
		}
		cells = append(cells, c)
	}
	return cells
}

// Preamble returns the text before the first marker, if any.
func Preamble(doc string) string {
	body := unwrap(strings.ReplaceAll(doc, "\r\n", "\n"))
	loc := marker.FindStringIndex(body)
	if loc == nil {
		return ""
	}
	return strings.TrimSpace(body[:loc[0]])
}

// unwrap returns the first decoding of doc that exposes tag markers, or doc
// itself.
func unwrap(doc string) string {
	if marker.MatchString(doc) && !looksWrapped(doc) {
		return doc
	}
	for _, decode := range []func(string) (string, bool){
		fromNotebookJSON,
		fromTripleQuotes,
		fromJSONString,
		fromCSVCell,
	} {
		if inner, ok := decode(strings.TrimSpace(doc)); ok && marker.MatchString(inner) {
			return inner
		}
	}
	return doc
}

func looksWrapped(doc string) bool {
	t := strings.TrimSpace(doc)
	return (strings.HasPrefix(t, `"`) && strings.HasSuffix(t, `"`)) || strings.HasPrefix(t, "{")
}

func fromTripleQuotes(s string) (string, bool) {
	if len(s) >= 6 && strings.HasPrefix(s, `"""`) && strings.HasSuffix(s, `"""`) {
		return s[3 : len(s)-3], true
	}
	return "", false
}

func fromJSONString(s string) (string, bool) {
	if !strings.HasPrefix(s, `"`) {
		return "", false
	}
	var out string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return "", false
	}
	return out, true
}

// fromCSVCell undoes the "" quote doubling of a spreadsheet export.
func fromCSVCell(s string) (string, bool) {
	if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return "", false
	}
	return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`), true
}

type ipynb struct {
	Cells []struct {
		Source json.RawMessage `json:"source"`
	} `json:"cells"`
}

// fromNotebookJSON joins the sources of a Jupyter notebook's cells.
func fromNotebookJSON(s string) (string, bool) {
	if !strings.HasPrefix(s, "{") {
		return "", false
	}
	var nb ipynb
	if err := json.Unmarshal([]byte(s), &nb); err != nil || len(nb.Cells) == 0 {
		return "", false
	}
	parts := make([]string, 0, len(nb.Cells))
	for _, c := range nb.Cells {
		var lines []string
		if err := json.Unmarshal(c.Source, &lines); err == nil {
			parts = append(parts, strings.Join(lines, ""))
			continue
		}
		var whole string
		if err := json.Unmarshal(c.Source, &whole); err == nil {
			parts = append(parts, whole)
		}
	}
	return strings.Join(parts, "\n\n"), true
}

// trimBlankLines drops blank lines around s and trailing whitespace, keeping
// the first content line's indentation.
func trimBlankLines(s string) string {
	s = strings.TrimRight(s, " \t\n")
	for {
		nl := strings.IndexByte(s, '\n')
		if nl < 0 || strings.TrimSpace(s[:nl]) != "" {
			break
		}
		s = s[nl+1:]
	}
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
