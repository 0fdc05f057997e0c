// Package sandbox executes generated Starlark code against a read-only
// TableSet in an isolated binding scope. Every runtime fault is caught at
// this boundary and returned as data; nothing propagates as a Go error or
// panic.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.starlark.net/starlark"

	"github.com/tabq-labs/tabq/internal/table"
)

// ResultBinding is the designated global a script sets to report its
// computed answer. Leaving it unset is valid: the outcome is then empty.
const ResultBinding = "result"

// ScriptName appears in Starlark backtraces.
const ScriptName = "analysis.star"

// Outcome is the captured result of one execution. A failed outcome is
// expected and recoverable; it is the normal trigger for a retry.
type Outcome struct {
	Success bool
	// Value is the raw Starlark value of the result binding; nil when the
	// binding was never set or execution failed.
	Value  starlark.Value
	Stdout string
	Stderr string
	// Err and Trace are set only on failure.
	Err   string
	Trace string
}

// Config holds sandbox limits.
type Config struct {
	// MaxSteps bounds the Starlark execution step count. Zero means no cap.
	MaxSteps uint64
	// MaxDuration is the wall-clock budget for one execution. Zero means
	// no timeout.
	MaxDuration time.Duration
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Sandbox runs scripts. One Sandbox is safe for concurrent use: every
// Execute call builds a fresh thread and a fresh binding scope.
type Sandbox struct {
	maxSteps    uint64
	maxDuration time.Duration
	logger      *slog.Logger
}

// New creates a sandbox with the given limits.
func New(cfg Config) *Sandbox {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sandbox{
		maxSteps:    cfg.MaxSteps,
		maxDuration: cfg.MaxDuration,
		logger:      logger,
	}
}

// Execute runs code with the TableSet bound by normalized table names plus
// the safe builtin baseline, capturing print output. Faults (syntax errors,
// missing bindings, type errors, cancellation) become a failed Outcome.
func (s *Sandbox) Execute(ctx context.Context, code string, ts *table.TableSet) Outcome {
	scope := s.scope(ts)

	var stdout strings.Builder
	thread := &starlark.Thread{
		Name: "analysis",
		Print: func(_ *starlark.Thread, msg string) {
			stdout.WriteString(msg)
			stdout.WriteByte('\n')
		},
	}
	if s.maxSteps > 0 {
		thread.SetMaxExecutionSteps(s.maxSteps)
	}

	// Cancellation: wall-clock cap plus caller context. Starlark checks
	// for cancellation between steps, so a runaway loop stops promptly.
	done := make(chan struct{})
	defer close(done)
	if s.maxDuration > 0 {
		timer := time.AfterFunc(s.maxDuration, func() {
			thread.Cancel(fmt.Sprintf("execution exceeded %s", s.maxDuration))
		})
		defer timer.Stop()
	}
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel("context cancelled")
		case <-done:
		}
	}()

	globals, err := s.run(thread, code, scope)
	if err != nil {
		outcome := Outcome{
			Stdout: stdout.String(),
			Err:    err.Error(),
			Trace:  faultTrace(err),
		}
		outcome.Stderr = outcome.Trace
		s.logger.Debug("execution fault", "error", outcome.Err)
		return outcome
	}

	outcome := Outcome{Success: true, Stdout: stdout.String()}
	if v, ok := globals[ResultBinding]; ok {
		outcome.Value = v
	}
	return outcome
}

// run executes the script, converting panics in builtins or conversions
// into ordinary errors.
func (s *Sandbox) run(thread *starlark.Thread, code string, scope starlark.StringDict) (globals starlark.StringDict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during execution: %v", r)
		}
	}()
	//nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	return starlark.ExecFile(thread, ScriptName, code, scope)
}

// scope builds a fresh binding scope: the safe builtin baseline plus the
// tables bound by their normalized names. Nothing else from the host
// environment is reachable.
func (s *Sandbox) scope(ts *table.TableSet) starlark.StringDict {
	scope := baseline()
	if ts != nil {
		for _, t := range ts.Tables() {
			scope[t.Name] = NewTableValue(t)
		}
	}
	return scope
}

// faultTrace extracts the Starlark backtrace when one exists.
func faultTrace(err error) string {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Backtrace()
	}
	return err.Error()
}
