package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/runner"
)

// DocumentValidator validates one document. *runner.Runner satisfies it.
type DocumentValidator interface {
	ValidateDocument(ctx context.Context, name, content string) (*runner.Result, error)
}

// ValidateTool handles the cfbench_validate MCP tool.
type ValidateTool struct {
	runner DocumentValidator
}

// NewValidateTool creates a ValidateTool.
func NewValidateTool(r DocumentValidator) *ValidateTool {
	return &ValidateTool{runner: r}
}

// Definition returns the MCP tool definition for cfbench_validate.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("cfbench_validate",
		mcp.WithDescription(
			"Validate a tagged conversation document (system prompt, turns, turn_metadata, "+
				"golden response, candidate model passes and validator cells). Runs the four "+
				"phases (structure, content, metadata, model passes) and returns a verdict: "+
				"PASS, NEEDS_REVIEW, MINOR_REVISION or MAJOR_REVISION. "+
				"Runs are saved to history when it is enabled.",
		),
		mcp.WithString("content",
			mcp.Description("The full document text. Takes precedence over 'path'."),
		),
		mcp.WithString("path",
			mcp.Description("Path to a document on disk (.md, .txt, .ipynb, .json)."),
		),
		mcp.WithString("name",
			mcp.Description("Display name for the report and history. Defaults to the file name."),
		),
		mcp.WithString("detail_level",
			mcp.Description("summary: verdict and failing checks. standard (default): every check with capped messages. full: every message and check details."),
			mcp.Enum(runner.DetailLevelValues()...),
		),
		mcp.WithBoolean("json",
			mcp.Description("Return the raw report as JSON instead of markdown."),
		),
	)
}

// Handle processes the cfbench_validate tool call.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, content, err := documentArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.runner.ValidateDocument(ctx, name, content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
	}

	if req.GetBool("json", false) {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling report: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	out := runner.FormatReport(res, req.GetString("detail_level", ""))
	return mcp.NewToolResultText(out + runner.TokenFooter(runner.EstimateTokens(out))), nil
}
