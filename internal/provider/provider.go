package provider

import (
	"context"

	"docsmith/internal/domain"
)

// RequestAdapter translates the provider-agnostic request into the
// provider's native payload.
type RequestAdapter interface {
	BuildRequest(req *domain.GenerationRequest) (interface{}, error)
}

// Invoker sends a native payload to the provider and returns the raw
// response body. Transport and HTTP-status failures surface as errors.
type Invoker interface {
	Invoke(ctx context.Context, native interface{}) ([]byte, error)
}

// ResponseAdapter parses the provider's raw response into a normalized
// GenerationResult. Malformed shapes surface as errors.
type ResponseAdapter interface {
	ParseResponse(body []byte) (*domain.GenerationResult, error)
}

// Provider bundles one backend's spec with its adapter triple. The fallback
// executor drives the triple in order; Provider itself holds no mutable state.
type Provider struct {
	Spec     domain.ProviderSpec
	Request  RequestAdapter
	Invoker  Invoker
	Response ResponseAdapter
}
