package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/history"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/runner"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/validation"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

const teaDoc = `**[system]**
You are a helpful assistant.

**[user]**
Write about tea without commas.

**[turn_metadata]**
{"instructions": [{"id": "punctuation:no_comma"}, {"id": "stylistic:tone_formal"}, {"id": "made_up:thing"}],
 "llm_judge": [{"uid": "j1", "content": "Mentions where tea comes from."}]}

**[assistant]**
Tea is a calming drink.

**[assistant_qwen3_1]**
Tea, yes.
`

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.New(history.Config{DataDir: t.TempDir(), MaxSearchResults: 20, MaxIssueLength: 2000})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func call(t *testing.T, handle func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	res, err := handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if res == nil {
		t.Fatal("nil result")
	}
	return res
}

// ─── ValidateTool ────────────────────────────────────────────────────────────

func TestValidateTool_Definition(t *testing.T) {
	def := NewValidateTool(runner.New(validation.DefaultOptions(), nil)).Definition()
	if def.Name != "cfbench_validate" {
		t.Errorf("tool name = %q, want cfbench_validate", def.Name)
	}
	for _, p := range []string{"content", "path", "name", "detail_level", "json"} {
		if _, ok := def.InputSchema.Properties[p]; !ok {
			t.Errorf("missing %q parameter", p)
		}
	}
}

func TestValidateTool_Handle_NoDocument(t *testing.T) {
	tool := NewValidateTool(runner.New(validation.DefaultOptions(), nil))
	res := call(t, tool.Handle, map[string]interface{}{})
	if !res.IsError {
		t.Fatal("expected tool error")
	}
	if !strings.Contains(resultText(res), "'content' or 'path'") {
		t.Errorf("unexpected message: %s", resultText(res))
	}
}

func TestValidateTool_Handle_Content(t *testing.T) {
	tool := NewValidateTool(runner.New(validation.DefaultOptions(), nil))
	res := call(t, tool.Handle, map[string]interface{}{"content": teaDoc, "name": "tea.md"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	text := resultText(res)
	for _, want := range []string{"# Validation Report: tea.md", "## Phase 4: Model passes", "tokens"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestValidateTool_Handle_PathAndSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tea.md")
	if err := os.WriteFile(path, []byte(teaDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	tool := NewValidateTool(runner.New(validation.DefaultOptions(), nil))
	res := call(t, tool.Handle, map[string]interface{}{"path": path, "detail_level": "summary"})
	text := resultText(res)
	if !strings.Contains(text, "# Validation Report: tea.md") {
		t.Errorf("name should default to the file name:\n%s", text)
	}
	if strings.Contains(text, "## Phase 1") {
		t.Error("summary should not list phases")
	}
}

func TestValidateTool_Handle_MissingPath(t *testing.T) {
	tool := NewValidateTool(runner.New(validation.DefaultOptions(), nil))
	res := call(t, tool.Handle, map[string]interface{}{"path": filepath.Join(t.TempDir(), "nope.md")})
	if !res.IsError {
		t.Fatal("expected tool error for a missing file")
	}
}

func TestValidateTool_Handle_JSON(t *testing.T) {
	tool := NewValidateTool(runner.New(validation.DefaultOptions(), nil))
	res := call(t, tool.Handle, map[string]interface{}{"content": teaDoc, "json": true})
	var out struct {
		Name   string             `json:"name"`
		Report *validation.Report `json:"report"`
	}
	if err := json.Unmarshal([]byte(resultText(res)), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out.Name != "inline" || out.Report == nil {
		t.Errorf("unexpected JSON output: %+v", out)
	}
}

func TestValidateTool_Handle_Records(t *testing.T) {
	store := newTestStore(t)
	tool := NewValidateTool(runner.New(validation.DefaultOptions(), nil, runner.WithRecorder(store)))
	res := call(t, tool.Handle, map[string]interface{}{"content": teaDoc, "name": "tea.md"})
	if !strings.Contains(resultText(res), "Run: `") {
		t.Errorf("expected a run id in the report:\n%s", resultText(res))
	}
	runs, err := store.RecentRuns("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Name != "tea.md" {
		t.Errorf("recent runs = %+v", runs)
	}
}

// ─── ParseTool ───────────────────────────────────────────────────────────────

func TestParseTool_Handle_Outline(t *testing.T) {
	res := call(t, NewParseTool().Handle, map[string]interface{}{"content": teaDoc})
	text := resultText(res)
	for _, want := range []string{
		"## Cells (5)",
		"assistant (qwen3 pass 1)",
		"- Golden response: 5 words",
		"`punctuation:no_comma` (mechanical, user)",
		"`stylistic:tone_formal` (semantic, user)",
		"judge `j1`",
		"- qwen3 pass 1: 2 words, no validator",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("outline missing %q\n%s", want, text)
		}
	}
}

func TestParseTool_Handle_Unrecognized(t *testing.T) {
	res := call(t, NewParseTool().Handle, map[string]interface{}{"content": "just some prose"})
	if !strings.Contains(resultText(res), "No tagged cells found") {
		t.Errorf("unexpected outline: %s", resultText(res))
	}
}

// ─── CheckTool ───────────────────────────────────────────────────────────────

func TestCheckTool_Handle(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
		err  bool
	}{
		{"missing id", map[string]interface{}{"text": "x"}, "'instruction_id' is required", true},
		{"bad params", map[string]interface{}{"instruction_id": "length_constraints:number_words", "text": "x", "params": "{"}, "JSON object", true},
		{"valid", map[string]interface{}{"instruction_id": "punctuation:no_comma", "text": "No commas here."}, "**valid**", false},
		{"invalid", map[string]interface{}{"instruction_id": "punctuation:no_comma", "text": "One, two."}, "**invalid**", false},
		{"params", map[string]interface{}{
			"instruction_id": "length_constraints:number_words",
			"text":           "one two three",
			"params":         `{"num_words": 3, "relation": "at least"}`,
		}, "**valid**", false},
		{"semantic", map[string]interface{}{"instruction_id": "stylistic:tone_formal", "text": "hey"}, "semantic judge", false},
		{"unknown", map[string]interface{}{"instruction_id": "made_up:thing", "text": "hey"}, "**unresolved**", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, NewCheckTool().Handle, tt.args)
			if res.IsError != tt.err {
				t.Errorf("IsError = %v, want %v (%s)", res.IsError, tt.err, resultText(res))
			}
			if !strings.Contains(resultText(res), tt.want) {
				t.Errorf("output %q missing %q", resultText(res), tt.want)
			}
		})
	}
}

// ─── HistoryTool / RunTool ───────────────────────────────────────────────────

func TestHistoryTool_Handle_Disabled(t *testing.T) {
	res := call(t, NewHistoryTool(nil).Handle, map[string]interface{}{})
	if !res.IsError || !strings.Contains(resultText(res), "disabled") {
		t.Errorf("expected disabled error, got %s", resultText(res))
	}
	res = call(t, NewRunTool(nil).Handle, map[string]interface{}{"id": "x"})
	if !res.IsError {
		t.Error("expected disabled error from cfbench_run")
	}
}

func TestHistoryTool_Handle_SearchAndRun(t *testing.T) {
	store := newTestStore(t)
	r := runner.New(validation.DefaultOptions(), nil, runner.WithRecorder(store))
	res, err := r.ValidateDocument(context.Background(), "tea.md", teaDoc)
	if err != nil {
		t.Fatal(err)
	}

	empty := call(t, NewHistoryTool(store).Handle, map[string]interface{}{"query": "coffee"})
	if !strings.Contains(resultText(empty), "No runs found.") {
		t.Errorf("unexpected search output: %s", resultText(empty))
	}

	list := call(t, NewHistoryTool(store).Handle, map[string]interface{}{"stats": true})
	text := resultText(list)
	for _, want := range []string{"Found 1 runs", "tea.md (" + res.RunID + ")", "## Totals", "1 runs"} {
		if !strings.Contains(text, want) {
			t.Errorf("history output missing %q\n%s", want, text)
		}
	}

	found := call(t, NewHistoryTool(store).Handle, map[string]interface{}{"query": "tea"})
	if !strings.Contains(resultText(found), res.RunID) {
		t.Errorf("search by name did not find the run:\n%s", resultText(found))
	}

	run := call(t, NewRunTool(store).Handle, map[string]interface{}{"id": res.RunID, "detail_level": "full"})
	if run.IsError {
		t.Fatalf("cfbench_run failed: %s", resultText(run))
	}
	for _, want := range []string{"# Validation Report: tea.md", "**Verdict: " + res.Report.Summary.Status + "**", "1 runs."} {
		if !strings.Contains(resultText(run), want) {
			t.Errorf("run output missing %q", want)
		}
	}
}

func TestRunTool_Handle_NotFound(t *testing.T) {
	res := call(t, NewRunTool(newTestStore(t)).Handle, map[string]interface{}{"id": "missing"})
	if !res.IsError || !strings.Contains(resultText(res), "not found") {
		t.Errorf("expected not found, got %s", resultText(res))
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func TestIntArg(t *testing.T) {
	req := makeReq(map[string]interface{}{"n": float64(7), "s": "7"})
	if got := intArg(req, "n", 1); got != 7 {
		t.Errorf("intArg(n) = %d, want 7", got)
	}
	if got := intArg(req, "s", 1); got != 1 {
		t.Errorf("intArg(s) = %d, want default 1", got)
	}
	if got := intArg(req, "missing", 3); got != 3 {
		t.Errorf("intArg(missing) = %d, want default 3", got)
	}
}

func TestDocumentArg_ContentWins(t *testing.T) {
	name, content, err := documentArg(makeReq(map[string]interface{}{"content": "x", "path": "/nope"}))
	if err != nil {
		t.Fatal(err)
	}
	if name != "inline" || content != "x" {
		t.Errorf("got (%q, %q)", name, content)
	}
}

func TestReadDocument_Directory(t *testing.T) {
	if _, _, err := readDocument(t.TempDir()); err == nil {
		t.Error("expected error for a directory")
	}
}
