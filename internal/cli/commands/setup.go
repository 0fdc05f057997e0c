// Package commands implements the tabq subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tabq-labs/tabq/internal/analyst"
	"github.com/tabq-labs/tabq/internal/config"
	"github.com/tabq-labs/tabq/internal/llm"
	"github.com/tabq-labs/tabq/internal/sandbox"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

type commandContextKey struct{}

// WithCommandContext stores the command context for retrieval by
// subcommands.
func WithCommandContext(ctx context.Context, cc *CommandContext) context.Context {
	return context.WithValue(ctx, commandContextKey{}, cc)
}

// FromCommand retrieves the CommandContext, falling back to defaults when
// the root command never ran (direct command construction in tests).
func FromCommand(cmd *cobra.Command) *CommandContext {
	if cc, ok := cmd.Context().Value(commandContextKey{}).(*CommandContext); ok {
		return cc
	}
	cfg, _ := config.Load("", nil)
	if cfg == nil {
		cfg = &config.Config{
			Analysis: config.AnalysisConfig{MaxAttempts: config.DefaultMaxAttempts},
			Output:   config.DefaultOutput,
		}
	}
	return &CommandContext{Cfg: cfg, Logger: slog.New(slog.DiscardHandler)}
}

// newAnalyzer builds an analyzer wired to the configured model endpoint.
func newAnalyzer(cc *CommandContext) (*analyst.Analyzer, error) {
	cfg := cc.Cfg
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("no API key configured; set llm.api_key in tabq.yaml, TABQ_LLM_API_KEY, or --api-key")
	}

	client := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		CodeModel:  cfg.LLM.CodeModel,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
	})

	return analyst.New(analyst.Config{
		Client: client,
		Sandbox: sandbox.New(sandbox.Config{
			MaxSteps:    cfg.Analysis.MaxSteps,
			MaxDuration: cfg.Analysis.Timeout,
			Logger:      cc.Logger,
		}),
		Budget:    cfg.Analysis.MaxAttempts,
		MaxTokens: cfg.Analysis.MaxTokens,
		Logger:    cc.Logger,
	})
}

// noopClient satisfies llm.Client for commands that never call the
// model.
type noopClient struct{}

func (noopClient) GenerateCode(context.Context, llm.CodeRequest) (string, error) {
	return "", fmt.Errorf("code generation is not available")
}

func (noopClient) Explain(context.Context, llm.ExplainRequest) (string, error) {
	return "", fmt.Errorf("explanation is not available")
}

// newRawExecutor builds an analyzer that only runs scripts; no API key
// is needed.
func newRawExecutor(cc *CommandContext) (*analyst.Analyzer, error) {
	cfg := cc.Cfg
	return analyst.New(analyst.Config{
		Client: noopClient{},
		Sandbox: sandbox.New(sandbox.Config{
			MaxSteps:    cfg.Analysis.MaxSteps,
			MaxDuration: cfg.Analysis.Timeout,
			Logger:      cc.Logger,
		}),
		Budget: cfg.Analysis.MaxAttempts,
		Logger: cc.Logger,
	})
}

// parseKeyValues parses repeated key=value flags into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid context pair %q, expected key=value", p)
		}
		m[key] = value
	}
	return m, nil
}
