// Package resources implements MCP resource handlers for cfbench.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (cfbench://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/constraints"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/history"
)

const (
	InstructionsURI = "cfbench://instructions"
	StatsURI        = "cfbench://history/stats"
)

// Handler serves cfbench resources. A nil store disables the stats resource.
type Handler struct {
	store *history.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *history.Store) *Handler {
	return &Handler{store: store}
}

// InstructionsResource returns the MCP resource definition for the
// instruction catalogue.
func (h *Handler) InstructionsResource() mcp.Resource {
	return mcp.NewResource(
		InstructionsURI,
		"Supported instructions",
		mcp.WithResourceDescription("Instruction ids the constraint engine checks, with their parameter names"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleInstructions returns the catalogue as JSON.
func (h *Handler) HandleInstructions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, constraints.Catalogue())
}

// StatsResource returns the MCP resource definition for history totals.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		StatsURI,
		"Run history stats",
		mcp.WithResourceDescription("Number of stored validation runs per verdict"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns history totals as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if h.store == nil {
		return errorResource(req.Params.URI, "run history is disabled"), nil
	}
	st, err := h.store.Stats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, st)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
