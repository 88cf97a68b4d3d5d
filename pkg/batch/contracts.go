// Package batch runs per-contact workflows over many contacts in
// fixed-size batches: batches are processed sequentially, runs within a
// batch concurrently, and one run's failure never aborts its siblings.
package batch

import "context"

// Source loads input records for batch processing.
type Source[In any] interface {
	Load(ctx context.Context) ([]In, error)
}

// Sink persists output records. It is called once per run, after all
// batches settle, and is expected to be append-only.
type Sink[Out any] interface {
	Store(ctx context.Context, rows []Out) error
}

// TransientError marks an error as retryable when retries are enabled.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LimitedTransientError is a transient error carrying its own retry cap,
// tighter than the runner-wide one.
type LimitedTransientError struct {
	Err          error
	ExtraRetries int
}

func (e *LimitedTransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *LimitedTransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MaxExtraRetries reports the per-error retry cap.
func (e *LimitedTransientError) MaxExtraRetries() int {
	if e == nil {
		return 0
	}
	return e.ExtraRetries
}
