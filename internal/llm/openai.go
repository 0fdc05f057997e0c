package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// OpenAIConfig configures an OpenAI-compatible chat-completions endpoint
// (OpenAI, Groq, llama.cpp, vLLM, ...).
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	// Model handles explanation requests.
	Model string
	// CodeModel handles code generation; falls back to Model when empty.
	CodeModel string
	Timeout   time.Duration
	// MaxRetries bounds transport-level retries (429/5xx/network) per
	// call. These smooth over transient faults before a call is declared
	// failed; they are unrelated to the analyst's attempt budget.
	MaxRetries uint64
}

// DefaultOpenAIConfig returns sensible defaults for a Groq endpoint.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		BaseURL:    "https://api.groq.com/openai/v1",
		APIKey:     apiKey,
		Model:      "llama-3.3-70b-versatile",
		CodeModel:  "qwen-2.5-coder-32b",
		Timeout:    2 * time.Minute,
		MaxRetries: 3,
	}
}

// OpenAIClient implements Client over the chat-completions wire format.
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateCode sends a composed prompt to the code model.
func (c *OpenAIClient) GenerateCode(ctx context.Context, req CodeRequest) (string, error) {
	model := c.cfg.CodeModel
	if model == "" {
		model = c.cfg.Model
	}
	return c.complete(ctx, chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
}

// Explain summarizes a successful analysis for the end user.
func (c *OpenAIClient) Explain(ctx context.Context, req ExplainRequest) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Explain the following analysis in simple terms.\n\n")
	fmt.Fprintf(&b, "User question: %s\n\n", req.Query)
	fmt.Fprintf(&b, "Code executed:\n%s\n\n", req.Code)
	if req.Result != "" {
		fmt.Fprintf(&b, "Result:\n%s\n\n", truncate(req.Result, 500))
	}
	if req.Output != "" {
		fmt.Fprintf(&b, "Output:\n%s\n\n", truncate(req.Output, 1000))
	}
	b.WriteString("Describe what was computed, what the numbers mean, and any " +
		"insight worth noting. Keep it under 150 words.")

	return c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a financial analyst explaining results to a non-technical reader."},
			{Role: "user", Content: b.String()},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	})
}

// complete performs one chat-completions call with transport-level retries.
func (c *OpenAIClient) complete(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.cfg.MaxRetries), ctx)

	return backoff.RetryWithData(func() (string, error) {
		return c.completeOnce(ctx, body)
	}, policy)
}

func (c *OpenAIClient) completeOnce(ctx context.Context, body []byte) (string, error) {
	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("chat endpoint returned %s: %s", resp.Status, truncate(string(respBody), 200))
		// Rate limits and server faults are retryable; anything else in
		// the 4xx range is not going to improve.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if parsed.Error != nil {
		return "", backoff.Permanent(fmt.Errorf("chat error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", backoff.Permanent(fmt.Errorf("chat response contained no choices"))
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
