package resources

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/constraints"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/history"
)

func read(t *testing.T, handle func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error), uri string) mcp.TextResourceContents {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	contents, err := handle(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content is %T", contents[0])
	}
	return tc
}

func TestHandleInstructions(t *testing.T) {
	h := NewHandler(nil)
	if h.InstructionsResource().URI != InstructionsURI {
		t.Errorf("unexpected URI %q", h.InstructionsResource().URI)
	}
	tc := read(t, h.HandleInstructions, InstructionsURI)
	if tc.MIMEType != "application/json" {
		t.Errorf("MIME type = %q", tc.MIMEType)
	}
	var specs []constraints.Spec
	if err := json.Unmarshal([]byte(tc.Text), &specs); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if len(specs) != len(constraints.Catalogue()) {
		t.Errorf("got %d specs, want %d", len(specs), len(constraints.Catalogue()))
	}
}

func TestHandleStats_Disabled(t *testing.T) {
	tc := read(t, NewHandler(nil).HandleStats, StatsURI)
	if !strings.Contains(tc.Text, "disabled") {
		t.Errorf("unexpected text %q", tc.Text)
	}
}

func TestHandleStats(t *testing.T) {
	store, err := history.New(history.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	tc := read(t, NewHandler(store).HandleStats, StatsURI)
	var st history.Stats
	if err := json.Unmarshal([]byte(tc.Text), &st); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if st.TotalRuns != 0 {
		t.Errorf("TotalRuns = %d, want 0", st.TotalRuns)
	}
}
