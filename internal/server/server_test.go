package server

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/config"
)

func testConfig(t *testing.T, historyEnabled bool) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.History.Enabled = historyEnabled
	cfg.Gemini.APIKey = ""
	return cfg
}

func listMethod(t *testing.T, cfg *config.Config, method string) string {
	t.Helper()
	s, cleanup, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer cleanup()

	msg := []byte(`{"jsonrpc":"2.0","id":1,"method":"` + method + `"}`)
	resp := s.HandleMessage(context.Background(), msg)
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return string(data)
}

func TestNew_RegistersTools(t *testing.T) {
	out := listMethod(t, testConfig(t, true), "tools/list")
	for _, name := range []string{"cfbench_validate", "cfbench_parse", "cfbench_check", "cfbench_history", "cfbench_run"} {
		if !strings.Contains(out, `"`+name+`"`) {
			t.Errorf("tools/list missing %s", name)
		}
	}
}

func TestNew_RegistersPromptsAndResources(t *testing.T) {
	cfg := testConfig(t, false)
	if out := listMethod(t, cfg, "prompts/list"); !strings.Contains(out, "cfbench-review") {
		t.Errorf("prompts/list missing cfbench-review: %s", out)
	}
	if out := listMethod(t, cfg, "resources/list"); !strings.Contains(out, "cfbench://instructions") {
		t.Errorf("resources/list missing cfbench://instructions: %s", out)
	}
}

func TestNew_HistoryFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t, true)
	cfg.DataDir = "/dev/null/cannot-create"
	_, cleanup, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("history failure should not fail New: %v", err)
	}
	cleanup()
}

func TestServerInstructions(t *testing.T) {
	if !strings.Contains(serverInstructions(), "cfbench_validate") {
		t.Error("instructions should mention cfbench_validate")
	}
}
