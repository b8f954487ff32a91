package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/history"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/semantic"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/validation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// Started by go.opencensus.io's package init (via the genai dependency).
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

const doc = `[system]
You are helpful.

[user]
Write about tea without commas.

[turn_metadata]
{"instructions": [{"id": "punctuation:no_comma"}, {"id": "stylistic:tone_formal"}]}

[assistant]
Tea is a calming drink.
`

type fakeRecorder struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (f *fakeRecorder) SaveRun(p history.SaveRunParams) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", false, f.err
	}
	f.names = append(f.names, p.Name)
	return "run-" + p.Name, false, nil
}

type fakeVerifier struct{}

func (fakeVerifier) Evaluate(_ context.Context, id string, _ map[string]any, _ string) (semantic.Verdict, error) {
	return semantic.Verdict{Valid: false, Evidence: "casual wording", Confidence: 0.9}, nil
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

// --- ValidateDocument ---

func TestValidateDocument_Basic(t *testing.T) {
	r := New(validation.DefaultOptions(), nil)
	res, err := r.ValidateDocument(context.Background(), "tea.md", doc)
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.Equal(t, "tea.md", res.Name)
	assert.True(t, res.Conversation.Recognized())
	assert.Empty(t, res.RunID)
	assert.Empty(t, res.Semantic)

	c, ok := res.Report.Find("golden_constraints")
	require.True(t, ok)
	assert.Equal(t, validation.StatusPassed, c.Status)
}

func TestValidateDocument_RecordsRun(t *testing.T) {
	rec := &fakeRecorder{}
	log, logs := observed()
	r := New(validation.DefaultOptions(), log, WithRecorder(rec))

	res, err := r.ValidateDocument(context.Background(), "tea.md", doc)
	require.NoError(t, err)
	assert.Equal(t, "run-tea.md", res.RunID)
	assert.Equal(t, []string{"tea.md"}, rec.names)
	assert.Equal(t, 1, logs.FilterMessage("recorded run").Len())
}

func TestValidateDocument_RecorderFailureIsLogged(t *testing.T) {
	log, logs := observed()
	r := New(validation.DefaultOptions(), log, WithRecorder(&fakeRecorder{err: errors.New("disk full")}))

	res, err := r.ValidateDocument(context.Background(), "tea.md", doc)
	require.NoError(t, err)
	assert.NotNil(t, res.Report)
	assert.Empty(t, res.RunID)

	warns := logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("could not record run")
	require.Equal(t, 1, warns.Len())
	assert.Equal(t, "tea.md", warns.All()[0].ContextMap()["document"])
}

func TestValidateDocument_Adjudicates(t *testing.T) {
	r := New(validation.DefaultOptions(), nil, WithVerifier(fakeVerifier{}, semantic.Options{Concurrency: 2}))
	res, err := r.ValidateDocument(context.Background(), "tea.md", doc)
	require.NoError(t, err)
	require.Len(t, res.Semantic, 1)
	assert.Equal(t, "stylistic:tone_formal", res.Semantic[0].ID)
	assert.False(t, res.Semantic[0].Verdict.Valid)

	// Advice never changes the report.
	plain, err := New(validation.DefaultOptions(), nil).ValidateDocument(context.Background(), "tea.md", doc)
	require.NoError(t, err)
	assert.Equal(t, plain.Report, res.Report)
}

func TestValidateDocument_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(validation.DefaultOptions(), nil).ValidateDocument(ctx, "x", doc)
	assert.ErrorIs(t, err, context.Canceled)
}

// --- ValidateFiles ---

func TestValidateFiles_OrderAndErrors(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(doc), 0o600))
		paths = append(paths, p)
	}
	paths = append(paths[:1], append([]string{filepath.Join(dir, "missing.md")}, paths[1:]...)...)

	log, logs := observed()
	rec := &fakeRecorder{}
	r := New(validation.DefaultOptions(), log, WithConcurrency(2), WithRecorder(rec))
	results, err := r.ValidateFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 4)

	names := make([]string, len(results))
	for i, res := range results {
		names[i] = res.Name
	}
	assert.Equal(t, []string{"a.md", "missing.md", "b.md", "c.md"}, names)
	assert.True(t, results[1].Failed())
	assert.Contains(t, results[1].Error, "missing.md")
	assert.False(t, results[0].Failed())
	assert.Len(t, rec.names, 3)
	assert.Equal(t, 1, logs.FilterMessage("skipping document").Len())
}

func TestValidateFiles_Canceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.md")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(validation.DefaultOptions(), nil).ValidateFiles(ctx, []string{path, path})
	assert.ErrorIs(t, err, context.Canceled)
}

// --- Formatting ---

func TestFormatReport_DetailLevels(t *testing.T) {
	res, err := New(validation.DefaultOptions(), nil).ValidateDocument(context.Background(), "tea.md", doc)
	require.NoError(t, err)

	summary := FormatReport(res, DetailSummary)
	assert.Contains(t, summary, "# Validation Report: tea.md")
	assert.Contains(t, summary, "**Verdict: "+res.Report.Summary.Status+"**")
	assert.Contains(t, summary, "model_passes")
	assert.NotContains(t, summary, "## Phase 1")
	assert.True(t, strings.HasSuffix(summary, SummaryFooter))

	standard := FormatReport(res, "")
	for i, name := range validation.PhaseNames {
		assert.Contains(t, standard, "## Phase "+string(rune('1'+i))+": "+name)
	}
	assert.Contains(t, standard, "expected 4 candidate passes, found 0")
	assert.NotContains(t, standard, "reason: `")

	full := FormatReport(res, DetailFull)
	assert.Contains(t, full, "reason: `")
	assert.Greater(t, len(full), len(standard))
}

func TestFormatReport_CapsMessages(t *testing.T) {
	c := validation.Check{ID: "x", Name: "X", Status: validation.StatusWarning}
	for i := 0; i < 8; i++ {
		c.Warnings = append(c.Warnings, "w")
	}
	res := &Result{Name: "n", Report: &validation.Report{Phase1: []validation.Check{c}}}

	standard := FormatReport(res, DetailStandard)
	assert.Equal(t, maxMessages, strings.Count(standard, "warning: w"))
	assert.Contains(t, standard, "Showing 5 of 8.")
	assert.Equal(t, 8, strings.Count(FormatReport(res, DetailFull), "warning: w"))
}

func TestFormatReport_Semantic(t *testing.T) {
	r := New(validation.DefaultOptions(), nil, WithVerifier(fakeVerifier{}, semantic.Options{}))
	res, err := r.ValidateDocument(context.Background(), "tea.md", doc)
	require.NoError(t, err)
	out := FormatReport(res, DetailStandard)
	assert.Contains(t, out, "## Semantic adjudication (advisory)")
	assert.Contains(t, out, "❌ stylistic:tone_formal (confidence 0.90): casual wording")
}

func TestFormatBatchAndAllPass(t *testing.T) {
	ok := &Result{Name: "ok.md", Report: &validation.Report{Summary: validation.Summary{Status: validation.Pass}}}
	bad := &Result{Name: "bad.md", Error: "read bad.md: no such file"}
	out := FormatBatch([]*Result{ok, bad})
	assert.Contains(t, out, "| ok.md | PASS | 0 | 0 | 0 |")
	assert.Contains(t, out, "| bad.md | ERROR |")
	assert.True(t, AllPass([]*Result{ok}))
	assert.False(t, AllPass([]*Result{ok, bad}))
	assert.Contains(t, FormatReport(bad, DetailStandard), "_Could not validate: read bad.md: no such file_")
}

// --- Detail level helpers ---

func TestParseDetailLevel(t *testing.T) {
	assert.Equal(t, DetailSummary, ParseDetailLevel("summary"))
	assert.Equal(t, DetailFull, ParseDetailLevel("full"))
	assert.Equal(t, DetailStandard, ParseDetailLevel("FULL"))
	assert.Equal(t, DetailStandard, ParseDetailLevel(""))
	assert.Len(t, DetailLevelValues(), 3)
}

func TestNavigationHint(t *testing.T) {
	assert.Empty(t, NavigationHint(10, 10, "hint"))
	assert.Empty(t, NavigationHint(0, 0, "hint"))
	assert.Equal(t, "\nShowing 5 of 20.", NavigationHint(5, 20, ""))
	assert.Equal(t, "\nShowing 1 of 2. More.", NavigationHint(1, 2, "More."))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 3, EstimateTokens("abcdefghijkl"))
	assert.Equal(t, "\n~12,345 tokens", TokenFooter(12345))
}
