package config

import "time"

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultCodeModel   = "qwen-2.5-coder-32b"
	DefaultLLMTimeout  = 2 * time.Minute
	DefaultMaxRetries  = 3
	DefaultMaxAttempts = 3
	DefaultMaxTokens   = 2000
	DefaultMaxSteps    = 10_000_000
	DefaultExecTimeout = 10 * time.Second
	DefaultOutput      = "auto" // TTY=table, non-TTY=json
)

// defaults returns the baseline key map merged under every other
// provider.
func defaults() map[string]any {
	return map[string]any{
		"llm.base_url":          DefaultBaseURL,
		"llm.model":             DefaultModel,
		"llm.code_model":        DefaultCodeModel,
		"llm.timeout":           DefaultLLMTimeout,
		"llm.max_retries":       DefaultMaxRetries,
		"analysis.max_attempts": DefaultMaxAttempts,
		"analysis.max_tokens":   DefaultMaxTokens,
		"analysis.max_steps":    DefaultMaxSteps,
		"analysis.timeout":      DefaultExecTimeout,
		"output":                DefaultOutput,
		"verbose":               false,
	}
}
