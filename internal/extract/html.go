package extract

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	blockRe  = regexp.MustCompile(`(?i)</(p|div|li|h[1-6]|tr|br)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]+>`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
	spaceRe  = regexp.MustCompile(`[ \t]+`)
)

// HTMLText strips markup from HTML documents and returns the visible text.
type HTMLText struct{}

// NewHTMLText creates the HTML extraction backend.
func NewHTMLText() *HTMLText {
	return &HTMLText{}
}

func (h *HTMLText) ID() string { return "html" }

// Extract strips script/style blocks and tags, then collapses whitespace.
func (h *HTMLText) Extract(_ context.Context, data []byte, contentType string) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("document is not valid UTF-8 text")
	}

	text := string(data)
	isHTML := strings.Contains(contentType, "html") ||
		strings.Contains(strings.ToLower(text[:min(len(text), 512)]), "<html") ||
		strings.Contains(strings.ToLower(text[:min(len(text), 512)]), "<!doctype")
	if !isHTML {
		return "", fmt.Errorf("document does not look like HTML")
	}

	text = scriptRe.ReplaceAllString(text, " ")
	// Keep block boundaries as line breaks so headings stay separated.
	text = blockRe.ReplaceAllString(text, "\n")
	text = tagRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = spaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}
