package runner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/validation"
)

// maxMessages caps issues and warnings per check at standard detail.
const maxMessages = 5

var statusMark = map[validation.Status]string{
	validation.StatusPassed:      "✅",
	validation.StatusFailed:      "❌",
	validation.StatusWarning:     "⚠️",
	validation.StatusNeedsReview: "🔎",
	validation.StatusSkipped:     "⏭️",
}

// FormatReport renders one result as markdown.
func FormatReport(res *Result, detail string) string {
	detail = ParseDetailLevel(detail)
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Validation Report: %s\n\n", res.Name)
	if res.Failed() {
		fmt.Fprintf(&sb, "_Could not validate: %s_\n", res.Error)
		return sb.String()
	}

	s := res.Report.Summary
	fmt.Fprintf(&sb, "**Verdict: %s**\n\n", s.Status)
	fmt.Fprintf(&sb, "%d checks: %d passed, %d failed (%d critical), %d warnings, %d need review, %d skipped\n\n",
		s.Total, s.Passed, s.Failed, s.CriticalFailed, s.Warnings, s.NeedsReview, s.Skipped)
	if res.RunID != "" {
		fmt.Fprintf(&sb, "Run: `%s`\n\n", res.RunID)
	}

	if detail == DetailSummary {
		var attention []string
		for _, c := range res.Report.Checks() {
			if c.Status == validation.StatusFailed || c.Status == validation.StatusNeedsReview {
				attention = append(attention, fmt.Sprintf("%s %s", statusMark[c.Status], c.ID))
			}
		}
		if len(attention) > 0 {
			sb.WriteString("## Needs attention\n\n")
			for _, a := range attention {
				fmt.Fprintf(&sb, "- %s\n", a)
			}
		}
		sb.WriteString(SummaryFooter)
		return sb.String()
	}

	for i, phase := range res.Report.Phases() {
		fmt.Fprintf(&sb, "## Phase %d: %s\n\n", i+1, validation.PhaseNames[i])
		if len(phase) == 0 {
			sb.WriteString("_Not run._\n\n")
			continue
		}
		for _, c := range phase {
			writeCheck(&sb, c, detail)
		}
		sb.WriteString("\n")
	}

	if len(res.Semantic) > 0 {
		sb.WriteString("## Semantic adjudication (advisory)\n\n")
		for _, r := range res.Semantic {
			switch {
			case r.Err != "":
				fmt.Fprintf(&sb, "- 🔎 %s: verifier error: %s\n", r.ID, r.Err)
			default:
				mark := "✅"
				if !r.Verdict.Valid {
					mark = "❌"
				}
				review := ""
				if r.NeedsReview {
					review = " (low confidence, review)"
				}
				fmt.Fprintf(&sb, "- %s %s (confidence %.2f%s): %s\n", mark, r.ID, r.Verdict.Confidence, review, r.Verdict.Evidence)
			}
		}
	}
	return sb.String()
}

func writeCheck(sb *strings.Builder, c validation.Check, detail string) {
	critical := ""
	if c.Critical {
		critical = " (critical)"
	}
	fmt.Fprintf(sb, "- %s **%s** `%s`%s\n", statusMark[c.Status], c.Name, c.ID, critical)

	writeMessages := func(label string, msgs []string) {
		shown := msgs
		if detail != DetailFull && len(shown) > maxMessages {
			shown = shown[:maxMessages]
		}
		for _, m := range shown {
			fmt.Fprintf(sb, "  - %s: %s\n", label, m)
		}
		if hint := NavigationHint(len(shown), len(msgs), "Use detail_level: full for all."); hint != "" {
			fmt.Fprintf(sb, "  - %s\n", strings.TrimSpace(hint))
		}
	}
	writeMessages("issue", c.Issues)
	writeMessages("warning", c.Warnings)

	if detail == DetailFull && len(c.Details) > 0 {
		keys := make([]string, 0, len(c.Details))
		for k := range c.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b, err := json.Marshal(c.Details[k])
			if err != nil {
				b = []byte(fmt.Sprint(c.Details[k]))
			}
			fmt.Fprintf(sb, "  - %s: `%s`\n", k, b)
		}
	}
}

// FormatBatch renders a one-line-per-document markdown table.
func FormatBatch(results []*Result) string {
	var sb strings.Builder
	sb.WriteString("| Document | Verdict | Failed | Warnings | Needs review |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, r := range results {
		if r.Failed() {
			fmt.Fprintf(&sb, "| %s | ERROR | - | - | - |\n", r.Name)
			continue
		}
		s := r.Report.Summary
		fmt.Fprintf(&sb, "| %s | %s | %d | %d | %d |\n", r.Name, s.Status, s.Failed, s.Warnings, s.NeedsReview)
	}
	return sb.String()
}

// AllPass reports whether every result validated with a PASS verdict.
func AllPass(results []*Result) bool {
	for _, r := range results {
		if r.Failed() || r.Report.Summary.Status != validation.Pass {
			return false
		}
	}
	return true
}
