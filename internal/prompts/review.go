// Package prompts implements MCP prompt handlers for cfbench.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to run a sequence of tools. Unlike tools (which the AI
// calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the cfbench-review MCP prompt.
// It asks the AI to validate a document and explain what to fix.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("cfbench-review",
		mcp.WithPromptDescription(
			"Review a benchmark conversation document: validate it, then walk through "+
				"every failing or ambiguous check with a concrete fix.",
		),
		mcp.WithArgument("path",
			mcp.ArgumentDescription("Path to the document to review"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("focus",
			mcp.ArgumentDescription("Optional area to focus on: structure, content, metadata or passes"),
		),
	)
}

// Handle processes the cfbench-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	path := strings.TrimSpace(req.Params.Arguments["path"])
	if path == "" {
		return nil, fmt.Errorf("argument 'path' is required")
	}

	focus := ""
	if f := strings.TrimSpace(req.Params.Arguments["focus"]); f != "" {
		focus = fmt.Sprintf("\nPay special attention to the %s checks.\n", f)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review %s", path),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please review the benchmark document at '%s'.\n\n"+
						"1. Run `cfbench_validate` with path='%s' and detail_level='standard'\n"+
						"2. If a cell is reported missing, run `cfbench_parse` on the same path to see how it was segmented\n"+
						"3. For every failed check, quote the issue and say exactly what to change in the document\n"+
						"4. For every needs_review check, explain the ambiguity and what a human should decide\n"+
						"5. Use `cfbench_check` to confirm a rewritten golden response satisfies a single instruction\n"+
						"6. End with the verdict and whether the document is ready to submit\n"+
						"%s",
					path, path, focus,
				)),
			},
		},
	}, nil
}
