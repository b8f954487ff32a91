package validation

import (
	"fmt"
)

// Status is a check outcome.
type Status string

const (
	StatusPassed      Status = "passed"
	StatusFailed      Status = "failed"
	StatusSkipped     Status = "skipped"
	StatusWarning     Status = "warning"
	StatusNeedsReview Status = "needs_review"
)

// Overall document verdicts, most severe first.
const (
	MajorRevision = "MAJOR_REVISION"
	MinorRevision = "MINOR_REVISION"
	NeedsReview   = "NEEDS_REVIEW"
	Pass          = "PASS"
)

// Check is one named rule's result.
type Check struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Status   Status         `json:"status"`
	Critical bool           `json:"critical,omitempty"`
	Issues   []string       `json:"issues,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

func newCheck(id, name string) *Check {
	return &Check{ID: id, Name: name, Status: StatusPassed}
}

func (c *Check) issue(format string, a ...any) {
	c.Issues = append(c.Issues, fmt.Sprintf(format, a...))
}

func (c *Check) warn(format string, a ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, a...))
}

func (c *Check) detail(key string, v any) {
	if c.Details == nil {
		c.Details = map[string]any{}
	}
	c.Details[key] = v
}

func (c *Check) skip(format string, a ...any) *Check {
	c.Status = StatusSkipped
	c.detail("reason", fmt.Sprintf(format, a...))
	return c
}

// settle derives the status from collected issues and warnings unless a
// stronger status was already set.
func (c *Check) settle() *Check {
	switch {
	case c.Status == StatusSkipped:
	case len(c.Issues) > 0:
		c.Status = StatusFailed
	case c.Status == StatusNeedsReview:
	case len(c.Warnings) > 0:
		c.Status = StatusWarning
	}
	return c
}

// Summary counts check outcomes and states the overall verdict.
type Summary struct {
	Status         string `json:"status"`
	Total          int    `json:"total"`
	Passed         int    `json:"passed"`
	Failed         int    `json:"failed"`
	Warnings       int    `json:"warnings"`
	NeedsReview    int    `json:"needs_review"`
	Skipped        int    `json:"skipped"`
	CriticalFailed int    `json:"critical_failed"`
}

// Report is the result of one orchestrator run. It is built once and not
// modified afterwards.
type Report struct {
	Phase1  []Check `json:"phase1"`
	Phase2  []Check `json:"phase2"`
	Phase3  []Check `json:"phase3"`
	Phase4  []Check `json:"phase4"`
	Summary Summary `json:"summary"`
}

// PhaseNames labels the four phases in order.
var PhaseNames = [4]string{"Structure", "Content", "Metadata", "Model passes"}

// Phases returns the four check lists in order.
func (r *Report) Phases() [4][]Check {
	return [4][]Check{r.Phase1, r.Phase2, r.Phase3, r.Phase4}
}

// Checks returns every check in phase order.
func (r *Report) Checks() []Check {
	var all []Check
	for _, p := range r.Phases() {
		all = append(all, p...)
	}
	return all
}

// Find returns the check with the given id.
func (r *Report) Find(id string) (Check, bool) {
	for _, c := range r.Checks() {
		if c.ID == id {
			return c, true
		}
	}
	return Check{}, false
}

func summarize(checks []Check, opts Options) Summary {
	s := Summary{Total: len(checks)}
	for _, c := range checks {
		switch c.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
			if c.Critical {
				s.CriticalFailed++
			}
		case StatusWarning:
			s.Warnings++
		case StatusNeedsReview:
			s.NeedsReview++
		case StatusSkipped:
			s.Skipped++
		}
	}
	switch {
	case s.CriticalFailed > 0 || s.Failed >= opts.MajorRevisionFailures:
		s.Status = MajorRevision
	case s.Failed > 0:
		s.Status = MinorRevision
	case s.NeedsReview > 0:
		s.Status = NeedsReview
	default:
		s.Status = Pass
	}
	return s
}
