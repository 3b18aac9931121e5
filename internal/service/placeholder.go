package service

import "docsmith/internal/domain"

const placeholderText = `Document generation is temporarily unavailable.

Every configured generation provider failed for this job. The job completed
with this placeholder so downstream consumers still receive an artifact;
resubmit the job to retry with live providers.`

// PlaceholderResult is the labeled substitute returned when every provider
// is exhausted under the degrade policy. The structured form passes the
// document schema so every renderer can handle it.
func PlaceholderResult() *domain.GenerationResult {
	return &domain.GenerationResult{
		Text: placeholderText,
		Structured: map[string]interface{}{
			"title": "Document Generation Unavailable",
			"sections": []interface{}{
				map[string]interface{}{
					"heading": "What happened",
					"body":    "Every configured generation provider failed for this job.",
				},
				map[string]interface{}{
					"heading": "What to do",
					"body":    "Resubmit the job to retry with live providers.",
				},
			},
		},
		ProviderID: domain.FallbackPlaceholderProvider,
		Degraded:   true,
	}
}
