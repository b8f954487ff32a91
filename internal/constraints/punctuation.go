package constraints

import (
	"regexp"
	"strings"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/textmetrics"
)

// terminalRun captures a punctuation run that ends a sentence, so decimals
// such as 3.14 are not treated as endings.
var terminalRun = regexp.MustCompile(`([.!?…。！？]+)["'”’)\]]*(?:\s|$)`)

func checkAbsent(text, what string, marks ...rune) Verdict {
	n := textmetrics.CountRunes(text, marks...)
	return check(n == 0, "%s count=%d", what, n)
}

func checkQuestionExclaim(text string, p QuestionExclaim) Verdict {
	n := textmetrics.CountRunes(text, '?', '!', '？', '！')
	return check(p.Holds(n), "question/exclamation marks: %s", p.Describe(n))
}

// checkEndRule requires every terminal punctuation run to be exactly one of
// the allowed endings.
func checkEndRule(text string, p EndRule) Verdict {
	allowed := make(map[string]bool, len(p.Allowed))
	for _, a := range p.Allowed {
		allowed[a] = true
	}
	var runs []string
	for _, m := range terminalRun.FindAllStringSubmatch(textmetrics.Clean(text), -1) {
		runs = append(runs, m[1])
	}
	if len(runs) == 0 {
		return fail("no sentence-ending punctuation")
	}
	var bad []string
	for _, r := range runs {
		if !allowed[r] {
			bad = append(bad, r)
		}
	}
	if len(bad) > 0 {
		return fail("disallowed endings %q (allowed: %s)", bad, strings.Join(p.Allowed, " "))
	}
	return pass("%d endings, all allowed", len(runs))
}
