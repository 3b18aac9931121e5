package render

import (
	"context"
	"fmt"

	"docsmith/internal/domain"
)

// Renderer turns a generation result into a binary artifact for one format.
type Renderer interface {
	// Format returns the output format key this renderer serves.
	Format() string

	// ContentType returns the MIME type of rendered artifacts.
	ContentType() string

	// Render produces the artifact bytes for the result.
	Render(ctx context.Context, result *domain.GenerationResult) ([]byte, error)
}

// Registry dispatches render calls by format. It is populated once at
// startup and read-only afterwards.
type Registry struct {
	renderers map[string]Renderer
}

// NewRegistry creates a registry over the given renderers.
func NewRegistry(renderers ...Renderer) *Registry {
	m := make(map[string]Renderer, len(renderers))
	for _, r := range renderers {
		m[r.Format()] = r
	}
	return &Registry{renderers: m}
}

// Render produces the artifact for the requested format. An unknown format
// returns domain.ErrUnsupportedFormat so callers can distinguish it from a
// rendering failure and retry with their fallback format.
func (r *Registry) Render(ctx context.Context, result *domain.GenerationResult, format string) ([]byte, string, error) {
	renderer, ok := r.renderers[format]
	if !ok {
		return nil, "", fmt.Errorf("format %q: %w", format, domain.ErrUnsupportedFormat)
	}

	data, err := renderer.Render(ctx, result)
	if err != nil {
		return nil, "", &domain.RenderError{Format: format, Err: err}
	}
	return data, renderer.ContentType(), nil
}

// Supports reports whether the registry can render the format.
func (r *Registry) Supports(format string) bool {
	_, ok := r.renderers[format]
	return ok
}

// Ext returns the file extension used in artifact keys for a format.
func Ext(format string) string {
	switch format {
	case "pdf":
		return "pdf"
	case "html":
		return "html"
	default:
		return "txt"
	}
}
