package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// PlainText decodes the document bytes as UTF-8 text. It accepts anything
// textual, so it sits after the pickier structural backends in the chain.
type PlainText struct{}

// NewPlainText creates the plain text extraction backend.
func NewPlainText() *PlainText {
	return &PlainText{}
}

func (p *PlainText) ID() string { return "plain" }

// Extract validates the bytes are text and normalizes line endings.
func (p *PlainText) Extract(_ context.Context, data []byte, _ string) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("document is not valid UTF-8 text")
	}

	text := string(data)
	if strings.ContainsRune(text, '\x00') {
		return "", fmt.Errorf("document contains binary content")
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text), nil
}
