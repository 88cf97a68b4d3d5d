package agent

import "fmt"

// GenerationError reports a failed or timed-out text-generation call. It
// aborts the single run it occurred in; the batch controller captures it at
// the per-contact boundary.
type GenerationError struct {
	// Stage names the workflow step that issued the call.
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// MalformedVerdictError reports an Evaluator response whose decision token
// could not be recognized. It is surfaced rather than defaulted so evaluator
// malfunction stays visible.
type MalformedVerdictError struct {
	Output string
}

func (e *MalformedVerdictError) Error() string {
	out := e.Output
	if len(out) > 200 {
		out = out[:200] + "..."
	}
	return fmt.Sprintf("malformed evaluator verdict: %q", out)
}

// ValidationError reports a contact rejected by the admission gate. The
// workflow never starts for such contacts.
type ValidationError struct {
	Contact string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("contact %q rejected: %s", e.Contact, e.Reason)
}
