package provider

import (
	"testing"
	"time"

	"docsmith/internal/domain"
)

func TestAnthropicBuildRequest(t *testing.T) {
	a := NewAnthropic("claude-sonnet-4-5", "key", "", 0, 30*time.Second)

	native, err := a.BuildRequest(&domain.GenerationRequest{SourceText: "source"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, ok := native.(*anthropicRequest)
	if !ok {
		t.Fatalf("native payload has type %T", native)
	}
	// max_tokens is mandatory in the Messages API, so an unset cap still
	// produces a value.
	if req.MaxTokens == 0 {
		t.Error("MaxTokens must never be zero")
	}
	if req.System == "" {
		t.Error("system prompt must be set")
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
}

func TestAnthropicParseResponse(t *testing.T) {
	a := NewAnthropic("claude-sonnet-4-5", "key", "", 0, time.Second)

	t.Run("concatenates text blocks", func(t *testing.T) {
		body := `{"content":[{"type":"text","text":"{\"title\":"},{"type":"text","text":"\"CV\",\"sections\":[]}"}],
			"usage":{"input_tokens":80,"output_tokens":20}}`

		result, err := a.ParseResponse([]byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Text != `{"title":"CV","sections":[]}` {
			t.Errorf("Text = %q", result.Text)
		}
		if result.Structured == nil {
			t.Error("expected structured output from concatenated JSON")
		}
		if result.InputTokens != 80 || result.OutputTokens != 20 {
			t.Errorf("tokens = %d/%d", result.InputTokens, result.OutputTokens)
		}
	})

	t.Run("error payload", func(t *testing.T) {
		body := `{"error":{"type":"overloaded_error","message":"overloaded"}}`
		if _, err := a.ParseResponse([]byte(body)); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty content", func(t *testing.T) {
		if _, err := a.ParseResponse([]byte(`{"content":[]}`)); err == nil {
			t.Error("expected error for empty content")
		}
	})
}
