package render

import (
	"context"
	"fmt"
	"strings"

	"docsmith/internal/domain"
)

// TextRenderer serializes a result as plain UTF-8 text. It is the fallback
// format: it can render any result, structured or not.
type TextRenderer struct{}

// NewTextRenderer creates the plain text renderer.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

func (r *TextRenderer) Format() string      { return "text" }
func (r *TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

// Render flattens the structured document, or emits the raw text when no
// structure is available.
func (r *TextRenderer) Render(_ context.Context, result *domain.GenerationResult) ([]byte, error) {
	if result.Structured == nil {
		if strings.TrimSpace(result.Text) == "" {
			return nil, fmt.Errorf("result has no content")
		}
		return []byte(result.Text), nil
	}

	var b strings.Builder
	doc := result.Structured

	if title, _ := doc["title"].(string); title != "" {
		b.WriteString(title + "\n")
		b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
	}
	if subtitle, _ := doc["subtitle"].(string); subtitle != "" {
		b.WriteString(subtitle + "\n\n")
	}
	if summary, _ := doc["summary"].(string); summary != "" {
		b.WriteString(summary + "\n\n")
	}

	sections, _ := doc["sections"].([]interface{})
	for _, raw := range sections {
		section, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if heading, _ := section["heading"].(string); heading != "" {
			b.WriteString(heading + "\n")
			b.WriteString(strings.Repeat("-", len(heading)) + "\n")
		}
		if body, _ := section["body"].(string); body != "" {
			b.WriteString(body + "\n")
		}
		if items, _ := section["items"].([]interface{}); len(items) > 0 {
			for _, item := range items {
				if s, ok := item.(string); ok {
					b.WriteString("  - " + s + "\n")
				}
			}
		}
		b.WriteString("\n")
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return nil, fmt.Errorf("structured result rendered to empty text")
	}
	return []byte(out + "\n"), nil
}
