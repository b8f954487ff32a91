package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// TriagePrompt handles the cfbench-triage MCP prompt.
// It asks the AI to summarize the state of recent runs.
type TriagePrompt struct{}

// NewTriagePrompt creates a TriagePrompt.
func NewTriagePrompt() *TriagePrompt {
	return &TriagePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *TriagePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("cfbench-triage",
		mcp.WithPromptDescription(
			"Triage recent validation runs: which documents still need work "+
				"and which issues keep coming back.",
		),
	)
}

// Handle processes the cfbench-triage prompt request.
func (p *TriagePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "cfbench run triage",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `cfbench_history` with stats=true to list my recent validation runs.\n\n" +
						"Then:\n" +
						"1. Group the documents by verdict, worst first\n" +
						"2. Point out issues that appear in more than one document\n" +
						"3. Open the worst run with `cfbench_run` and summarize what blocks it\n" +
						"4. Suggest the order in which I should fix the documents",
				),
			},
		},
	}, nil
}
