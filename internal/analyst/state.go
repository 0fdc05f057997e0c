package analyst

// State is one phase of the generate/execute cycle. The retry loop is an
// explicit machine so failure, retry, and exhaustion are first-class
// transitions instead of incidental control flow.
type State int

const (
	StateComposing State = iota
	StateGenerating
	StateSanitizing
	StateExecuting
	StateSucceeded
	StateRetry
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateComposing:
		return "composing"
	case StateGenerating:
		return "generating"
	case StateSanitizing:
		return "sanitizing"
	case StateExecuting:
		return "executing"
	case StateSucceeded:
		return "succeeded"
	case StateRetry:
		return "retry"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition happens from s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExhausted
}

// afterFailure routes a failed attempt: back to composing while budget
// remains, otherwise to exhausted.
func afterFailure(attempt, budget int) State {
	if attempt < budget {
		return StateRetry
	}
	return StateExhausted
}
