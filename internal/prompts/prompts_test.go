package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if res == nil || len(res.Messages) == 0 {
		t.Fatal("empty prompt result")
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Messages[0].Content)
	}
	return tc.Text
}

func TestReviewPrompt_Definition(t *testing.T) {
	def := NewReviewPrompt().Definition()
	if def.Name != "cfbench-review" {
		t.Errorf("prompt name = %q, want cfbench-review", def.Name)
	}
	if len(def.Arguments) != 2 || def.Arguments[0].Name != "path" || !def.Arguments[0].Required {
		t.Errorf("unexpected arguments: %+v", def.Arguments)
	}
}

func TestReviewPrompt_Handle(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"path": "docs/tea.md", "focus": "metadata"}
	res, err := NewReviewPrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text := promptText(t, res)
	for _, want := range []string{"path='docs/tea.md'", "cfbench_validate", "metadata checks"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestReviewPrompt_Handle_MissingPath(t *testing.T) {
	if _, err := NewReviewPrompt().Handle(context.Background(), mcp.GetPromptRequest{}); err == nil {
		t.Error("expected an error without a path")
	}
}

func TestTriagePrompt_Handle(t *testing.T) {
	res, err := NewTriagePrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(promptText(t, res), "cfbench_history") {
		t.Error("triage prompt should call cfbench_history")
	}
}
