package extract

import (
	"context"
	"strings"

	"docsmith/internal/domain"
	"docsmith/internal/logger"
)

// Backend turns raw uploaded bytes into plain text. Implementations must be
// safe for concurrent use.
type Backend interface {
	// ID returns the stable backend identifier used in logs.
	ID() string

	// Extract returns the plain text content of the document bytes.
	Extract(ctx context.Context, data []byte, contentType string) (string, error)
}

// Chain tries extraction backends strictly in configuration order until one
// produces enough content. Construction happens once at startup; the backend
// list is never mutated afterwards.
type Chain struct {
	backends []Backend
	minChars int
}

// NewChain creates an extraction chain. minChars guards against backends
// returning technically-successful but useless output.
func NewChain(minChars int, backends ...Backend) *Chain {
	return &Chain{backends: backends, minChars: minChars}
}

// Extract runs the fallback chain. Every backend error is recoverable: the
// chain moves on to the next backend and only reports
// ExtractionExhaustedError once all backends failed or produced insufficient
// content.
func (c *Chain) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", domain.NewValidationError("source", "document is empty")
	}

	var lastErr error
	for i, backend := range c.backends {
		text, err := backend.Extract(ctx, data, contentType)
		if err == nil && len(strings.TrimSpace(text)) < c.minChars {
			err = &insufficientContentError{backend: backend.ID(), chars: len(strings.TrimSpace(text)), min: c.minChars}
		}
		if err != nil {
			lastErr = err
			logger.FromContext(ctx).WithFields(logger.Fields{
				logger.FieldAttempt: i + 1,
				"backend":           backend.ID(),
			}).WithError(err).Warn("Extraction backend failed, trying next")
			continue
		}

		logger.FromContext(ctx).WithFields(logger.Fields{
			"backend":         backend.ID(),
			logger.FieldSize:  len(text),
			logger.FieldStage: "extraction",
		}).Info("Extraction succeeded")
		return text, nil
	}

	return "", &domain.ExtractionExhaustedError{Attempts: len(c.backends), LastErr: lastErr}
}

type insufficientContentError struct {
	backend string
	chars   int
	min     int
}

func (e *insufficientContentError) Error() string {
	return "backend " + e.backend + " produced insufficient content"
}
