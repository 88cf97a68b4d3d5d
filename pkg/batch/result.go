package batch

// Failure captures one run's error at the per-contact boundary.
type Failure struct {
	// ID identifies the input record, typically "name <email>".
	ID string
	// Kind is the error taxonomy bucket (generation, malformed-verdict,
	// validation, other).
	Kind string
	// Message is the redacted error text.
	Message string
}

// Summary aggregates one batch run.
type Summary struct {
	Submitted      int
	Succeeded      int
	Failed         int
	SkippedInvalid int
}
