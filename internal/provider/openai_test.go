package provider

import (
	"strings"
	"testing"
	"time"

	"docsmith/internal/domain"
)

func TestOpenAIBuildRequest(t *testing.T) {
	a := NewOpenAI("gpt-4o", "key", "", 2000, 30*time.Second)

	native, err := a.BuildRequest(&domain.GenerationRequest{
		SourceText: "ten years of Go",
		Posting:    &domain.Posting{Title: "Staff Engineer", Company: "Acme"},
		MaxTokens:  8000, // above the adapter cap
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, ok := native.(*openAIRequest)
	if !ok {
		t.Fatalf("native payload has type %T", native)
	}
	if req.Model != "gpt-4o" {
		t.Errorf("Model = %q", req.Model)
	}
	if req.MaxTokens != 2000 {
		t.Errorf("MaxTokens = %d, want capped at 2000", req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	user := req.Messages[1].Content
	for _, want := range []string{"ten years of Go", "Staff Engineer", "Acme"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestOpenAIParseResponse(t *testing.T) {
	a := NewOpenAI("gpt-4o", "key", "", 0, time.Second)

	tests := []struct {
		name           string
		body           string
		wantErr        bool
		wantText       string
		wantStructured bool
		wantOutTokens  int
	}{
		{
			name: "structured json output",
			body: `{"choices":[{"message":{"content":"{\"title\":\"CV\",\"sections\":[]}"}}],
				"usage":{"prompt_tokens":100,"completion_tokens":50}}`,
			wantText:       `{"title":"CV","sections":[]}`,
			wantStructured: true,
			wantOutTokens:  50,
		},
		{
			name:     "plain text output",
			body:     `{"choices":[{"message":{"content":"just prose, not JSON"}}]}`,
			wantText: "just prose, not JSON",
		},
		{
			name:    "api error payload",
			body:    `{"error":{"message":"rate limited","type":"rate_limit_error"}}`,
			wantErr: true,
		},
		{
			name:    "no choices",
			body:    `{"choices":[]}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			body:    `<html>502 Bad Gateway</html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := a.ParseResponse([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", result.Text, tt.wantText)
			}
			if (result.Structured != nil) != tt.wantStructured {
				t.Errorf("Structured = %v, want present=%v", result.Structured, tt.wantStructured)
			}
			if tt.wantOutTokens != 0 && result.OutputTokens != tt.wantOutTokens {
				t.Errorf("OutputTokens = %d, want %d", result.OutputTokens, tt.wantOutTokens)
			}
			if tt.wantOutTokens == 0 && result.OutputTokens == 0 {
				t.Error("OutputTokens should be estimated when usage is absent")
			}
		})
	}
}

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"bare json", `{"title":"x"}`, true},
		{"fenced json", "```json\n{\"title\":\"x\"}\n```", true},
		{"fenced without language", "```\n{\"title\":\"x\"}\n```", true},
		{"prose", "Here is your document.", false},
		{"broken json", `{"title":`, false},
		{"json array", `[1,2]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseStructured(tt.text)
			if (got != nil) != tt.want {
				t.Errorf("parseStructured(%q) = %v, want present=%v", tt.text, got, tt.want)
			}
		})
	}
}
