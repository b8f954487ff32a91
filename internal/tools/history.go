package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/history"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/runner"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/validation"
)

const historyDisabled = "Run history is disabled. Enable it in the config (history.enabled) to keep past runs."

// HistoryTool handles the cfbench_history MCP tool. A nil store means
// history is disabled and every call says so.
type HistoryTool struct {
	store *history.Store
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(store *history.Store) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for cfbench_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("cfbench_history",
		mcp.WithDescription(
			"Search past validation runs by document name or issue text, or list the most "+
				"recent runs when no query is given. Use cfbench_run to open one run.",
		),
		mcp.WithString("query",
			mcp.Description("Full-text query over document names, verdicts and issues. Empty lists recent runs."),
		),
		mcp.WithString("status",
			mcp.Description("Filter by verdict"),
			mcp.Enum(validation.Pass, validation.NeedsReview, validation.MinorRevision, validation.MajorRevision),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10)"),
		),
		mcp.WithBoolean("stats",
			mcp.Description("Append totals per verdict."),
		),
	)
}

// Handle processes the cfbench_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.store == nil {
		return mcp.NewToolResultError(historyDisabled), nil
	}

	query := req.GetString("query", "")
	limit := intArg(req, "limit", 10)
	results, err := t.store.Search(query, history.SearchOptions{
		Status: req.GetString("status", ""),
		Limit:  limit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	var sb strings.Builder
	if len(results) == 0 {
		sb.WriteString("No runs found.\n")
	} else {
		fmt.Fprintf(&sb, "Found %d runs:\n\n", len(results))
		for i, r := range results {
			fmt.Fprintf(&sb, "[%d] %s (%s) - %s\n    %d checks, %d failed, %d warnings, %d need review | validated %dx | %s\n",
				i+1, r.Name, r.ID, r.Status,
				r.TotalChecks, r.Failed, r.Warnings, r.NeedsReview, r.RunCount, r.UpdatedAt)
			if r.Issues != "" {
				fmt.Fprintf(&sb, "    %s\n", history.Truncate(strings.ReplaceAll(r.Issues, "\n", "; "), 200))
			}
			sb.WriteString("\n")
		}
	}

	if req.GetBool("stats", false) {
		st, err := t.store.Stats()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
		}
		fmt.Fprintf(&sb, "## Totals\n\n%d runs", st.TotalRuns)
		if st.LastRunAt != "" {
			fmt.Fprintf(&sb, ", last at %s", st.LastRunAt)
		}
		sb.WriteString("\n")
		for _, s := range []string{validation.Pass, validation.NeedsReview, validation.MinorRevision, validation.MajorRevision} {
			if n := st.ByStatus[s]; n > 0 {
				fmt.Fprintf(&sb, "- %s: %d\n", s, n)
			}
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// RunTool handles the cfbench_run MCP tool.
type RunTool struct {
	store *history.Store
}

// NewRunTool creates a RunTool.
func NewRunTool(store *history.Store) *RunTool {
	return &RunTool{store: store}
}

// Definition returns the MCP tool definition for cfbench_run.
func (t *RunTool) Definition() mcp.Tool {
	return mcp.NewTool("cfbench_run",
		mcp.WithDescription("Show one stored validation run as a report. Get ids from cfbench_history."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Run id"),
		),
		mcp.WithString("detail_level",
			mcp.Description("summary, standard (default) or full"),
			mcp.Enum(runner.DetailLevelValues()...),
		),
	)
}

// Handle processes the cfbench_run tool call.
func (t *RunTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.store == nil {
		return mcp.NewToolResultError(historyDisabled), nil
	}
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	run, err := t.store.GetRun(id)
	if errors.Is(err, history.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("run %q not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading run: %v", err)), nil
	}

	res := &runner.Result{Name: run.Name, RunID: run.ID}
	if len(run.Report) > 0 {
		var report validation.Report
		if err := json.Unmarshal(run.Report, &report); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stored report is corrupt: %v", err)), nil
		}
		res.Report = &report
	} else {
		res.Error = "no report stored for this run"
	}

	var sb strings.Builder
	sb.WriteString(runner.FormatReport(res, req.GetString("detail_level", "")))
	fmt.Fprintf(&sb, "\n---\nFirst validated %s, last %s, %d runs.\n", run.CreatedAt, run.UpdatedAt, run.RunCount)
	return mcp.NewToolResultText(sb.String()), nil
}
