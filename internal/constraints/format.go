package constraints

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

var (
	numberedItem = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+\S`)
	bulletItem   = regexp.MustCompile(`(?m)^\s*[-*+•]\s+\S`)
	ruleLine     = regexp.MustCompile(`^\s*(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,})$`)
	jsonFence    = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\n(.*?)\n?```")
	titleLine    = regexp.MustCompile(`^(?:<<[^<>]+>>|#{1,6}\s+\S.*|\*\*[^*]+\*\*)$`)
)

func countNumberedItems(text string) int {
	return len(numberedItem.FindAllStringIndex(text, -1))
}

func countBullets(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if ruleLine.MatchString(line) {
			continue
		}
		if bulletItem.MatchString(line) {
			n++
		}
	}
	return n
}

// checkJSONFormat accepts a response that is JSON as a whole (fences
// stripped) or that embeds at least one valid fenced JSON block.
func checkJSONFormat(text string) Verdict {
	body := strings.TrimSpace(text)
	if m := jsonFence.FindStringSubmatch(body); m != nil && strings.HasPrefix(body, "```") && strings.HasSuffix(body, "```") {
		body = strings.TrimSpace(m[1])
	}
	if body != "" && json.Valid([]byte(body)) {
		return pass("response is valid JSON")
	}
	for _, m := range jsonFence.FindAllStringSubmatch(text, -1) {
		if json.Valid([]byte(strings.TrimSpace(m[1]))) {
			return pass("response embeds a valid JSON block")
		}
	}
	return fail("no valid JSON found")
}

func checkTitle(text string) Verdict {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return check(titleLine.MatchString(line), "first line %q", truncate(line, 60))
	}
	return fail("empty response")
}

func checkSections(text string, p Sections) Verdict {
	re, err := regexp.Compile(`(?im)^\s*(?:#{1,6}\s*|\*\*)?` + regexp.QuoteMeta(strings.TrimSpace(p.Splitter)) + `\s*\d+`)
	if err != nil {
		return unresolved("bad section splitter %q", p.Splitter)
	}
	n := len(re.FindAllStringIndex(text, -1))
	return check(p.Holds(n), "%q sections: %s", p.Splitter, p.Describe(n))
}

func checkSentencesPerParagraph(text string, p SentencesPerParagraph) Verdict {
	paras := textmetrics.Paragraphs(text)
	if len(paras) == 0 {
		return fail("no paragraphs")
	}
	for i, para := range paras {
		if n := len(textmetrics.SentencesIn(para)); !p.Holds(n) {
			return fail("paragraph %d sentences: %s", i+1, p.Describe(n))
		}
	}
	return pass("%d paragraphs satisfy the sentence count", len(paras))
}

func checkMaxParagraphLength(text string, p MaxParagraphLength) Verdict {
	paras := textmetrics.Paragraphs(text)
	for i, para := range paras {
		if n := utf8.RuneCountInString(para); n > p.MaxChars {
			return fail("paragraph %d has %d characters (max %d)", i+1, n, p.MaxChars)
		}
	}
	return pass("%d paragraphs within %d characters", len(paras), p.MaxChars)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
