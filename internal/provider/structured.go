package provider

import (
	"encoding/json"
	"strings"
)

// parseStructured attempts to read the model output as a JSON document.
// Models occasionally wrap JSON in markdown fences despite instructions, so
// fences are stripped before parsing. Returns nil when the text is not JSON;
// the caller falls back to plain-text rendering.
func parseStructured(text string) map[string]interface{} {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx != -1 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var m map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return nil
	}
	return m
}
