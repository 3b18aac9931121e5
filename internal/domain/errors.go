package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline error for fallback decisions. The executor
// and the stage chains branch on kind rather than on exception presence.
type ErrorKind int

const (
	// KindRecoverable errors are eligible for fallback-and-continue.
	KindRecoverable ErrorKind = iota
	// KindValidation errors fail fast before any backend is attempted.
	KindValidation
	// KindFatal errors abort the job regardless of remaining backends.
	KindFatal
)

// ErrNotFound is returned when a job ID has no status record.
var ErrNotFound = errors.New("job not found")

// ErrUnsupportedFormat is returned by a rendering adapter when the requested
// output format is not supported. It is distinct from generation failure so
// the orchestrator can retry with the fallback format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ValidationError reports malformed or missing job input. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ProviderExhaustedError signals that every generation provider failed or
// returned invalid output. The last underlying error is retained for
// diagnostics; the orchestrator decides whether this becomes a failed job or
// a degraded completion.
type ProviderExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ProviderExhaustedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("all %d providers exhausted, last error: %v", e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("all %d providers exhausted", e.Attempts)
}

func (e *ProviderExhaustedError) Unwrap() error { return e.LastErr }

// ExtractionExhaustedError signals that every extraction backend failed or
// produced insufficient content. It fails the job.
type ExtractionExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExtractionExhaustedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("all %d extraction backends exhausted, last error: %v", e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("all %d extraction backends exhausted", e.Attempts)
}

func (e *ExtractionExhaustedError) Unwrap() error { return e.LastErr }

// EnrichmentExhaustedError signals that every enrichment backend failed.
// It is always non-fatal; the orchestrator records it as a message qualifier.
type EnrichmentExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *EnrichmentExhaustedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("all %d enrichment backends exhausted, last error: %v", e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("all %d enrichment backends exhausted", e.Attempts)
}

func (e *EnrichmentExhaustedError) Unwrap() error { return e.LastErr }

// RenderError reports that the rendering adapter rejected the structured
// result or the requested format.
type RenderError struct {
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render format %q: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// SecondaryStageError wraps a failure in a non-critical stage (enrichment or
// the optional secondary artifact). It never fails the job.
type SecondaryStageError struct {
	Stage string
	Err   error
}

func (e *SecondaryStageError) Error() string {
	return fmt.Sprintf("secondary stage %s: %v", e.Stage, e.Err)
}

func (e *SecondaryStageError) Unwrap() error { return e.Err }

// Classify maps an error to its fallback kind. Errors are recoverable by
// default so fallback chains keep trying remaining backends.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindRecoverable
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	return KindRecoverable
}
