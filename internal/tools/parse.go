package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/history"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/notebook"
)

// ParseTool handles the cfbench_parse MCP tool. It shows how a document was
// segmented and assembled without validating it.
type ParseTool struct{}

// NewParseTool creates a ParseTool.
func NewParseTool() *ParseTool {
	return &ParseTool{}
}

// Definition returns the MCP tool definition for cfbench_parse.
func (t *ParseTool) Definition() mcp.Tool {
	return mcp.NewTool("cfbench_parse",
		mcp.WithDescription(
			"Outline a tagged conversation document: its cells, the final turn, declared "+
				"instructions and candidate model passes. Use it to debug why validation "+
				"cannot find a cell.",
		),
		mcp.WithString("content",
			mcp.Description("The full document text. Takes precedence over 'path'."),
		),
		mcp.WithString("path",
			mcp.Description("Path to a document on disk."),
		),
		mcp.WithString("name",
			mcp.Description("Display name for the outline."),
		),
	)
}

// Handle processes the cfbench_parse tool call.
func (t *ParseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, content, err := documentArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(Outline(name, notebook.Parse(content))), nil
}

// Outline renders a conversation's structure as markdown.
func Outline(name string, conv *notebook.Conversation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Outline: %s\n\n", name)

	if !conv.Recognized() {
		sb.WriteString("No tagged cells found. Cells start with a `**[role]**` or `[role]` marker line.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "## Cells (%d)\n\n", len(conv.Cells))
	for _, c := range conv.Cells {
		role := string(c.Role)
		if c.IsModelPass {
			role = fmt.Sprintf("%s (%s pass %d)", role, c.Model, c.PassNumber)
		}
		fmt.Fprintf(&sb, "%d. line %d: %s, %d chars\n", c.Index+1, c.Line, role, len(c.Content))
	}
	sb.WriteString("\n")

	sb.WriteString("## Conversation\n\n")
	fmt.Fprintf(&sb, "- System prompt: %s\n", presence(conv.HasSystem, conv.SystemPrompt))
	fmt.Fprintf(&sb, "- Intermediate turns: %d\n", len(conv.Turns))
	f := conv.Final
	fmt.Fprintf(&sb, "- Final user query: %s\n", presence(f.HasUser, f.User))
	fmt.Fprintf(&sb, "- Golden response: %s\n", presence(f.HasAssistant, f.Assistant))
	fmt.Fprintf(&sb, "- Golden validator: %s\n", validatorState(f.ValidatorAssistant, f.ValidatorHuman))
	sb.WriteString("\n")

	sb.WriteString("## Instructions\n\n")
	switch {
	case f.MetadataError != nil:
		fmt.Fprintf(&sb, "turn_metadata could not be parsed: %s\n", f.MetadataError.Message)
	case f.TurnMetadata == nil:
		sb.WriteString("_No turn_metadata cell._\n")
	default:
		tm := f.TurnMetadata
		for _, in := range tm.Instructions {
			kind := "mechanical"
			if in.IsSemantic() {
				kind = "semantic"
			}
			line := fmt.Sprintf("- `%s` (%s, %s)", in.ID, kind, in.Source)
			if in.DecodeError != "" {
				line += ": " + in.DecodeError
			}
			sb.WriteString(line + "\n")
		}
		for _, j := range tm.LLMJudge {
			fmt.Fprintf(&sb, "- judge `%s`: %s\n", j.UID, history.Truncate(j.Content, 120))
		}
		if len(tm.Instructions) == 0 && len(tm.LLMJudge) == 0 {
			sb.WriteString("_No instructions declared._\n")
		}
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "## Model passes (%d)\n\n", len(conv.Passes))
	for _, p := range conv.Passes {
		rate := "no validator"
		if rec := p.Record(); rec != nil {
			rate = fmt.Sprintf("%d/%d checks failed", rec.Failed, rec.TotalChecks)
		}
		fmt.Fprintf(&sb, "- %s pass %d: %s, %s\n", p.Model, p.PassNumber, presence(p.HasAssistant, p.Assistant), rate)
	}

	if len(conv.Anomalies) > 0 {
		sb.WriteString("\n## Anomalies\n\n")
		for _, a := range conv.Anomalies {
			fmt.Fprintf(&sb, "- line %d: %s\n", a.Line, a.Message)
		}
	}
	return sb.String()
}

func presence(present bool, text string) string {
	switch {
	case !present:
		return "missing"
	case strings.TrimSpace(text) == "":
		return "empty"
	}
	return fmt.Sprintf("%d words", len(strings.Fields(text)))
}

func validatorState(vs ...*notebook.Validator) string {
	for _, v := range vs {
		if v == nil {
			continue
		}
		if v.Err != nil {
			return "unparseable: " + v.Err.Message
		}
		if v.Record != nil {
			return fmt.Sprintf("%d/%d checks failed", v.Record.Failed, v.Record.TotalChecks)
		}
	}
	return "missing"
}
