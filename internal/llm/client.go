// Package llm defines the language-model collaborator contracts: code
// generation and result explanation. Both may fail at any time; callers
// decide what a failure means (a generation fault burns a retry attempt, an
// explanation fault only degrades the result).
package llm

import "context"

// CodeRequest carries one composed prompt to the code-generation service.
type CodeRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// ExplainRequest asks for a short natural-language summary of a successful
// analysis.
type ExplainRequest struct {
	Query  string
	Code   string
	Result string
	Output string
}

// Client is the minimal interface the analyst needs from a language model.
type Client interface {
	// GenerateCode returns raw model output for a composed prompt. The
	// text may still contain fences or preamble; sanitizing is the
	// caller's job.
	GenerateCode(ctx context.Context, req CodeRequest) (string, error)

	// Explain turns a successful outcome into a short plain-language
	// summary.
	Explain(ctx context.Context, req ExplainRequest) (string, error)
}
