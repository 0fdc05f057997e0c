// Package config provides shared configuration types for tabq.
// This package is decoupled from CLI concerns so library embedders can
// load the same project configuration the CLI does.
package config

import (
	"fmt"
	"time"
)

// LLMConfig holds the chat-completions endpoint configuration.
type LLMConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`

	// Model answers explanation requests.
	Model string `koanf:"model"`
	// CodeModel answers code-generation requests; falls back to Model
	// when empty.
	CodeModel string `koanf:"code_model"`

	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries uint64        `koanf:"max_retries"`
}

// AnalysisConfig holds knobs for the generate/execute loop.
type AnalysisConfig struct {
	// MaxAttempts is the generate/execute attempt budget per question.
	MaxAttempts int `koanf:"max_attempts"`
	// MaxTokens caps the completion length of one generation call.
	MaxTokens int `koanf:"max_tokens"`
	// MaxSteps bounds Starlark execution steps per attempt. Zero removes
	// the cap.
	MaxSteps uint64 `koanf:"max_steps"`
	// Timeout is the wall-clock budget for one script execution.
	Timeout time.Duration `koanf:"timeout"`
}

// Config holds the full tabq configuration.
type Config struct {
	LLM      LLMConfig      `koanf:"llm"`
	Analysis AnalysisConfig `koanf:"analysis"`

	// Output selects result rendering: "auto", "table", or "json".
	Output  string `koanf:"output"`
	Verbose bool   `koanf:"verbose"`
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Analysis.MaxAttempts < 1 {
		return fmt.Errorf("analysis.max_attempts must be at least 1, got %d", c.Analysis.MaxAttempts)
	}
	switch c.Output {
	case "auto", "table", "json":
	default:
		return fmt.Errorf("output must be auto, table, or json, got %q", c.Output)
	}
	return nil
}
