package enrich

import (
	"context"

	"docsmith/internal/domain"
	"docsmith/internal/logger"
)

// Backend fetches structured posting data for an external reference.
type Backend interface {
	// ID returns the stable backend identifier used in logs.
	ID() string

	// Fetch retrieves and parses the posting behind ref.
	Fetch(ctx context.Context, ref string) (*domain.Posting, error)
}

// Chain tries enrichment backends in configuration order. Enrichment is
// never on the critical path: the caller treats exhaustion as "no enrichment"
// rather than a job failure.
type Chain struct {
	backends []Backend
}

// NewChain creates an enrichment chain.
func NewChain(backends ...Backend) *Chain {
	return &Chain{backends: backends}
}

// Enrich runs the fallback chain. An empty ref short-circuits the chain
// entirely: it returns a nil posting and nil error without attempting any
// backend. Exhaustion is reported as EnrichmentExhaustedError; the caller
// decides how to degrade.
func (c *Chain) Enrich(ctx context.Context, ref string) (*domain.Posting, error) {
	if ref == "" {
		return nil, nil
	}

	var lastErr error
	for i, backend := range c.backends {
		posting, err := backend.Fetch(ctx, ref)
		if err == nil && posting.Empty() {
			err = &noUsableDataError{backend: backend.ID()}
		}
		if err != nil {
			lastErr = err
			logger.FromContext(ctx).WithFields(logger.Fields{
				logger.FieldAttempt: i + 1,
				"backend":           backend.ID(),
			}).WithError(err).Warn("Enrichment backend failed, trying next")
			continue
		}

		logger.FromContext(ctx).WithFields(logger.Fields{
			"backend":          backend.ID(),
			logger.FieldStage:  "enrichment",
			"posting_title":    posting.Title,
			"posting_company":  posting.Company,
		}).Info("Enrichment succeeded")
		return posting, nil
	}

	return nil, &domain.EnrichmentExhaustedError{Attempts: len(c.backends), LastErr: lastErr}
}

type noUsableDataError struct {
	backend string
}

func (e *noUsableDataError) Error() string {
	return "backend " + e.backend + " returned no usable posting data"
}
