package orchestrator

// ValidationError reports bad or missing orchestration input. It is fatal to
// the single request and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}
