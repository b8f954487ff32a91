package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/config"
)

const doc = `[system]
You are helpful.

[user]
Write about tea without commas.

[turn_metadata]
{"instructions": [{"id": "punctuation:no_comma"}]}

[assistant]
Tea is a calming drink.
`

// run executes the CLI in an isolated data directory.
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{config.EnvLogLevel, config.EnvGeminiKey, config.EnvGeminiKeyStd, config.EnvGeminiModel} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvDataDir, dataDir)

	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(&bytes.Buffer{})
	base := []string{
		"--config", filepath.Join(dataDir, "absent.yaml"),
		"--env-file", filepath.Join(dataDir, "absent.env"),
	}
	root.SetArgs(append(args, base...))
	err := root.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o600))
	return p
}

func TestVersion(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cfbench-guide v")
}

func TestValidate_ReportAndExitStatus(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "tea.md")

	out, err := run(t, dir, "validate", "--no-store", path)
	// No candidate passes, so the document cannot pass.
	assert.ErrorIs(t, err, errNotPassing)
	assert.Contains(t, out, "# Validation Report: tea.md")
	assert.NotContains(t, out, "Run: `")
}

func TestValidate_BatchJSON(t *testing.T) {
	dir := t.TempDir()
	a, b := writeDoc(t, dir, "a.md"), writeDoc(t, dir, "b.md")

	out, _ := run(t, dir, "validate", "--json", "--no-store", a, b)
	var results []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "a.md", results[0].Name)
	assert.Equal(t, "b.md", results[1].Name)
}

func TestValidate_AdjudicateNeedsKey(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "validate", "--adjudicate", "--no-store", writeDoc(t, dir, "tea.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gemini API key")
}

func TestValidate_RecordsHistory(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "tea.md")

	out, _ := run(t, dir, "validate", "--detail", "summary", path)
	m := regexp.MustCompile("Run: `([^`]+)`").FindStringSubmatch(out)
	require.Len(t, m, 2, "report should carry a run id:\n%s", out)
	id := m[1]

	out, err := run(t, dir, "history")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "tea.md")

	out, err = run(t, dir, "history", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "## Phase 1: Structure")

	out, err = run(t, dir, "history", "stats")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "1 runs"))

	_, err = run(t, dir, "history", "delete", id)
	require.NoError(t, err)
	out, err = run(t, dir, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found.")
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "parse", writeDoc(t, dir, "tea.md"))
	require.NoError(t, err)
	assert.Contains(t, out, "# Outline: tea.md")
	assert.Contains(t, out, "## Cells (4)")

	out, err = run(t, dir, "parse", "--json", writeDoc(t, dir, "tea.md"))
	require.NoError(t, err)
	assert.Contains(t, out, `"system_prompt": "You are helpful."`)
}

func TestParse_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "parse", filepath.Join(dir, "nope.md"))
	require.Error(t, err)
}
