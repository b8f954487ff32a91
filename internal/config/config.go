// Package config loads cfbench settings from a .env file, an optional YAML
// file and environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/history"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/semantic"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/validation"
)

// Environment variables that override file settings.
const (
	EnvDataDir      = "CFBENCH_DATA_DIR"
	EnvLogLevel     = "CFBENCH_LOG_LEVEL"
	EnvGeminiKey    = "CFBENCH_GEMINI_API_KEY"
	EnvGeminiKeyStd = "GEMINI_API_KEY"
	EnvGeminiModel  = "CFBENCH_GEMINI_MODEL"
)

// Config holds all cfbench configuration.
type Config struct {
	DataDir     string `yaml:"data_dir" validate:"required"`
	Concurrency int    `yaml:"concurrency" validate:"min=1,max=64"`

	Log     LogConfig          `yaml:"log"`
	History HistoryConfig      `yaml:"history"`
	Gemini  GeminiConfig       `yaml:"gemini"`
	Rules   validation.Options `yaml:"rules"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// HistoryConfig configures the run history store.
type HistoryConfig struct {
	Enabled          bool `yaml:"enabled"`
	MaxSearchResults int  `yaml:"max_search_results" validate:"min=1,max=500"`
}

// GeminiConfig configures semantic adjudication.
type GeminiConfig struct {
	APIKey        string  `yaml:"api_key"`
	Model         string  `yaml:"model" validate:"required"`
	MinConfidence float64 `yaml:"min_confidence" validate:"gt=0,lte=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:     history.DefaultConfig().DataDir,
		Concurrency: 4,
		Log:         LogConfig{Level: "info"},
		History:     HistoryConfig{Enabled: true, MaxSearchResults: history.DefaultConfig().MaxSearchResults},
		Gemini:      GeminiConfig{Model: semantic.DefaultModel, MinConfidence: semantic.DefaultMinConfidence},
		Rules:       validation.DefaultOptions(),
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(Default().DataDir, "config.yaml")
}

// Load builds the configuration. envFiles default to ".env" in the working
// directory; missing env files and a missing YAML file are not errors.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.DataDir = dir
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
	if key := os.Getenv(EnvGeminiKeyStd); key != "" {
		c.Gemini.APIKey = key
	}
	if key := os.Getenv(EnvGeminiKey); key != "" {
		c.Gemini.APIKey = key
	}
	if model := os.Getenv(EnvGeminiModel); model != "" {
		c.Gemini.Model = model
	}
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}

// ValidationOptions returns the orchestrator thresholds.
func (c *Config) ValidationOptions() validation.Options {
	return c.Rules
}

// HistoryStoreConfig maps the settings onto a history store configuration.
func (c *Config) HistoryStoreConfig() history.Config {
	cfg := history.DefaultConfig()
	cfg.DataDir = c.DataDir
	cfg.MaxSearchResults = c.History.MaxSearchResults
	return cfg
}

// AdjudicationOptions maps the settings onto semantic.Options.
func (c *Config) AdjudicationOptions() semantic.Options {
	return semantic.Options{Concurrency: c.Concurrency, MinConfidence: c.Gemini.MinConfidence}
}

// HasGemini reports whether an API key is configured.
func (c *Config) HasGemini() bool {
	return c.Gemini.APIKey != ""
}
