// Package analyst orchestrates the generate, execute, recover loop: it
// turns a natural-language question about a TableSet into executed code and
// a structured answer, retrying on faults up to a fixed attempt budget.
package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tabq-labs/tabq/internal/llm"
	"github.com/tabq-labs/tabq/internal/prompt"
	"github.com/tabq-labs/tabq/internal/sanitize"
	"github.com/tabq-labs/tabq/internal/sandbox"
	"github.com/tabq-labs/tabq/internal/table"
	"github.com/tabq-labs/tabq/internal/transport"
)

// DefaultBudget is the default number of generate/execute attempts.
const DefaultBudget = 3

// Outcome is the transport-safe result of one successful execution.
type Outcome struct {
	// Value is the normalized result binding; nil when the script never
	// set it, which is valid.
	Value  any    `json:"value"`
	Output string `json:"output"`
	Errors string `json:"errors,omitempty"`
}

// Result is the terminal object returned to the caller. Exactly one Result
// is produced per request, whether the analysis succeeded or exhausted its
// attempts.
type Result struct {
	Success     bool     `json:"success"`
	Query       string   `json:"query"`
	Code        string   `json:"code,omitempty"`
	Result      *Outcome `json:"result,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Error       string   `json:"error,omitempty"`
	Attempts    int      `json:"attempts"`
}

// RawResult is the outcome of a single trusted execution that bypasses the
// retry loop.
type RawResult struct {
	Success bool     `json:"success"`
	Result  *Outcome `json:"result,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Config holds analyzer configuration.
type Config struct {
	// Client is the language-model collaborator. Required.
	Client llm.Client
	// Sandbox runs generated code; a default sandbox is built when nil.
	Sandbox *sandbox.Sandbox
	// Budget is the attempt budget; DefaultBudget when <= 0.
	Budget int
	// MaxTokens caps generated code length; the prompt default applies
	// when <= 0.
	MaxTokens int
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Analyzer is the entry point consumed by the surrounding application. It
// is safe for concurrent use: each request runs its own sequential
// pipeline over its own TableSet and binding scopes.
type Analyzer struct {
	client    llm.Client
	sandbox   *sandbox.Sandbox
	budget    int
	maxTokens int
	logger    *slog.Logger
}

// New creates an analyzer.
func New(cfg Config) (*Analyzer, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("analyst: llm client is required")
	}
	sb := cfg.Sandbox
	if sb == nil {
		sb = sandbox.New(sandbox.Config{Logger: cfg.Logger})
	}
	budget := cfg.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{client: cfg.Client, sandbox: sb, budget: budget, maxTokens: cfg.MaxTokens, logger: logger}, nil
}

// Analyze loads the table source, then runs the retry loop. Loader
// failures (ErrSourceUnavailable, ErrEmptyTableSet) are returned as errors
// before any generation attempt; every other failure mode is encoded in
// the Result.
func (a *Analyzer) Analyze(ctx context.Context, query, source string, domain map[string]string) (*Result, error) {
	ts, err := table.Load(ctx, source, a.logger)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeTables(ctx, query, ts, domain), nil
}

// AnalyzeTables runs the generate/execute/recover loop over an already
// loaded TableSet.
func (a *Analyzer) AnalyzeTables(ctx context.Context, query string, ts *table.TableSet, domain map[string]string) *Result {
	summaries := ts.Summaries()

	var (
		payload prompt.Payload
		raw     string
		code    string
		outcome sandbox.Outcome
		prior   *prompt.Failure
		lastErr string
		attempt int
	)

	state := StateComposing
	for !state.Terminal() {
		switch state {
		case StateComposing:
			attempt++
			payload = prompt.Compose(prompt.Request{
				Query:       query,
				Summaries:   summaries,
				Context:     domain,
				Attempt:     attempt,
				MaxAttempts: a.budget,
				MaxTokens:   a.maxTokens,
				Prior:       prior,
			})
			state = StateGenerating

		case StateGenerating:
			a.logger.Debug("generating code", "attempt", attempt, "budget", a.budget)
			text, err := a.client.GenerateCode(ctx, llm.CodeRequest{
				System:      payload.System,
				Prompt:      payload.User,
				Temperature: payload.Temperature,
				MaxTokens:   payload.MaxTokens,
			})
			if err != nil {
				// A transport fault burns the attempt exactly like an
				// execution fault.
				lastErr = err.Error()
				prior = &prompt.Failure{Code: code, Error: lastErr}
				a.logger.Warn("generation fault", "attempt", attempt, "error", err)
				state = afterFailure(attempt, a.budget)
				break
			}
			raw = text
			state = StateSanitizing

		case StateSanitizing:
			code = sanitize.Clean(raw)
			state = StateExecuting

		case StateExecuting:
			outcome = a.sandbox.Execute(ctx, code, ts)
			if outcome.Success {
				state = StateSucceeded
				break
			}
			lastErr = outcome.Err
			prior = &prompt.Failure{Code: code, Error: outcome.Err}
			a.logger.Debug("execution fault", "attempt", attempt, "error", outcome.Err)
			state = afterFailure(attempt, a.budget)

		case StateRetry:
			state = StateComposing
		}
	}

	if state == StateExhausted {
		a.logger.Info("analysis exhausted retries", "query", query, "attempts", attempt)
		return &Result{
			Query:    query,
			Error:    lastErr,
			Attempts: attempt,
		}
	}

	res := &Result{
		Success:  true,
		Query:    query,
		Code:     code,
		Result:   outcomeToTransport(outcome),
		Attempts: attempt,
	}
	res.Explanation = a.explain(ctx, res)
	a.logger.Info("analysis succeeded", "query", query, "attempts", attempt)
	return res
}

// ExecuteRaw runs caller-supplied code through the sandbox exactly once:
// no generation, no sanitizing, no explanation. For trusted, manual use.
func (a *Analyzer) ExecuteRaw(ctx context.Context, code, source string) (*RawResult, error) {
	ts, err := table.Load(ctx, source, a.logger)
	if err != nil {
		return nil, err
	}
	outcome := a.sandbox.Execute(ctx, code, ts)
	if !outcome.Success {
		return &RawResult{Error: outcome.Err}, nil
	}
	return &RawResult{Success: true, Result: outcomeToTransport(outcome)}, nil
}

// explain asks the collaborator for a short summary. Failure here degrades
// the result, never invalidates it.
func (a *Analyzer) explain(ctx context.Context, res *Result) string {
	resultJSON := ""
	if res.Result != nil && res.Result.Value != nil {
		if b, err := json.Marshal(res.Result.Value); err == nil {
			resultJSON = string(b)
		}
	}
	output := ""
	if res.Result != nil {
		output = res.Result.Output
	}

	text, err := a.client.Explain(ctx, llm.ExplainRequest{
		Query:  res.Query,
		Code:   res.Code,
		Result: resultJSON,
		Output: output,
	})
	if err != nil {
		a.logger.Warn("explanation fault", "error", err)
		return ""
	}
	return text
}

func outcomeToTransport(out sandbox.Outcome) *Outcome {
	return &Outcome{
		Value:  transport.Normalize(out.Value),
		Output: out.Stdout,
	}
}
