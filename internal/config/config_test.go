package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/validation"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDataDir, EnvLogLevel, EnvGeminiKey, EnvGeminiKeyStd, EnvGeminiModel} {
		t.Setenv(k, "")
	}
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

// --- Load ---

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, validation.DefaultOptions(), cfg.ValidationOptions())
	assert.False(t, cfg.HasGemini())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := write(t, dir, "config.yaml", `
data_dir: /tmp/cfbench-test
concurrency: 8
log:
  level: debug
history:
  enabled: false
  max_search_results: 5
gemini:
  model: gemini-pro
rules:
  expected_candidates: 5
  semantic_counts_as_failure: false
`)
	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cfbench-test", cfg.DataDir)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "gemini-pro", cfg.Gemini.Model)

	opts := cfg.ValidationOptions()
	assert.Equal(t, 5, opts.ExpectedCandidates)
	assert.False(t, opts.SemanticCountsAsFailure)
	assert.Equal(t, 3, opts.MinBreakingCandidates, "unset keys keep their defaults")

	hc := cfg.HistoryStoreConfig()
	assert.Equal(t, "/tmp/cfbench-test", hc.DataDir)
	assert.Equal(t, 5, hc.MaxSearchResults)

	ao := cfg.AdjudicationOptions()
	assert.Equal(t, 8, ao.Concurrency)
}

func TestLoad_EnvBeatsYAML(t *testing.T) {
	clearEnv(t)
	path := write(t, t.TempDir(), "config.yaml", "data_dir: /from/yaml\nlog:\n  level: warn\n")
	t.Setenv(EnvDataDir, "/from/env")
	t.Setenv(EnvLogLevel, "ERROR")
	t.Setenv(EnvGeminiModel, "gemini-env")

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DataDir)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "gemini-env", cfg.Gemini.Model)
}

func TestLoad_GeminiKeyPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvGeminiKeyStd, "std-key")
	cfg, err := Load("", noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "std-key", cfg.Gemini.APIKey)
	assert.True(t, cfg.HasGemini())

	t.Setenv(EnvGeminiKey, "cfbench-key")
	cfg, err = Load("", noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "cfbench-key", cfg.Gemini.APIKey)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is already set, even to "".
	require.NoError(t, os.Unsetenv(EnvGeminiModel))
	t.Cleanup(func() { _ = os.Unsetenv(EnvGeminiModel) })

	env := write(t, t.TempDir(), ".env", EnvGeminiModel+"=gemini-dotenv\n")
	cfg, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, "gemini-dotenv", cfg.Gemini.Model)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := write(t, t.TempDir(), "config.yaml", "log: [unclosed")
	_, err := Load(path, noEnvFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := map[string]string{
		"log level":         "log:\n  level: loud\n",
		"concurrency":       "concurrency: 0\n",
		"fail rate":         "rules:\n  breaking_fail_rate: 2\n",
		"breaking > total":  "rules:\n  expected_candidates: 2\n  min_breaking_candidates: 3\n",
		"warn > issue band": "rules:\n  golden_warn_similarity: 0.9\n",
		"empty model":       "gemini:\n  model: \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			path := write(t, t.TempDir(), "config.yaml", body)
			_, err := Load(path, noEnvFile(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
}
