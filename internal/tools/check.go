package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/constraints"
)

// CheckTool handles the cfbench_check MCP tool: one instruction against one
// text, no document needed.
type CheckTool struct{}

// NewCheckTool creates a CheckTool.
func NewCheckTool() *CheckTool {
	return &CheckTool{}
}

// Definition returns the MCP tool definition for cfbench_check.
func (t *CheckTool) Definition() mcp.Tool {
	return mcp.NewTool("cfbench_check",
		mcp.WithDescription(
			"Check a single instruction against a text with the deterministic constraint engine. "+
				"Returns valid, invalid or unresolved with a note. Semantic instructions "+
				"(stylistic:, linguistic:, situation:) are always unresolved here. "+
				"Read the cfbench://instructions resource for supported ids and parameters.",
		),
		mcp.WithString("instruction_id",
			mcp.Required(),
			mcp.Description("Instruction id, e.g. 'length_constraints:number_words'"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The response text to check"),
		),
		mcp.WithString("params",
			mcp.Description(`Instruction parameters as a JSON object, e.g. {"num_words": 50, "relation": "at least"}`),
		),
	)
}

// Handle processes the cfbench_check tool call.
func (t *CheckTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("instruction_id", ""))
	if id == "" {
		return mcp.NewToolResultError("'instruction_id' is required"), nil
	}
	text := req.GetString("text", "")

	var params map[string]any
	if raw := strings.TrimSpace(req.GetString("params", "")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'params' must be a JSON object: %v", err)), nil
		}
	}

	v := constraints.ValidateID(text, id, params)

	var sb strings.Builder
	fmt.Fprintf(&sb, "`%s`: **%s**\n", id, v.Outcome)
	if v.Note != "" {
		fmt.Fprintf(&sb, "\n%s\n", v.Note)
	}
	if v.Semantic {
		sb.WriteString("\nThis instruction needs a semantic judge; the engine does not decide it.\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}
