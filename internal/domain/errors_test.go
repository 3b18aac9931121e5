package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "nil error",
			err:  nil,
			want: KindRecoverable,
		},
		{
			name: "plain error is recoverable",
			err:  errors.New("connection refused"),
			want: KindRecoverable,
		},
		{
			name: "validation error",
			err:  NewValidationError("source", "empty"),
			want: KindValidation,
		},
		{
			name: "wrapped validation error",
			err:  fmt.Errorf("stage failed: %w", NewValidationError("owner_id", "missing")),
			want: KindValidation,
		},
		{
			name: "exhaustion wrapping a plain error stays recoverable",
			err:  &ProviderExhaustedError{Attempts: 3, LastErr: errors.New("HTTP 500")},
			want: KindRecoverable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExhaustedErrorsRetainLastError(t *testing.T) {
	last := errors.New("HTTP 429")

	perr := &ProviderExhaustedError{Attempts: 2, LastErr: last}
	if !errors.Is(perr, last) {
		t.Error("ProviderExhaustedError should unwrap to last error")
	}
	if !strings.Contains(perr.Error(), "2 providers") {
		t.Errorf("unexpected message: %q", perr.Error())
	}

	eerr := &ExtractionExhaustedError{Attempts: 3, LastErr: last}
	if !errors.Is(eerr, last) {
		t.Error("ExtractionExhaustedError should unwrap to last error")
	}

	nerr := &EnrichmentExhaustedError{Attempts: 1}
	if nerr.Error() == "" {
		t.Error("expected a message even without a retained error")
	}
}

func TestJobStatusTerminal(t *testing.T) {
	if JobStatusPending.Terminal() || JobStatusProcessing.Terminal() {
		t.Error("pending and processing must not be terminal")
	}
	if !JobStatusCompleted.Terminal() || !JobStatusFailed.Terminal() {
		t.Error("completed and failed must be terminal")
	}
}

func TestJobRecordCopiesRefs(t *testing.T) {
	job := &Job{
		ID:         "j1",
		OwnerID:    "o1",
		Status:     JobStatusCompleted,
		ResultRefs: ResultRefs{ArtifactPrimary: "owner/o1/results/j1/document.pdf"},
	}

	rec := job.Record()
	rec.ResultRefs[ArtifactPrimary] = "mutated"

	if job.ResultRefs[ArtifactPrimary] != "owner/o1/results/j1/document.pdf" {
		t.Error("Record() must deep-copy result refs")
	}
}
