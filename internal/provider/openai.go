package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"docsmith/internal/domain"
	"docsmith/internal/prompts"
)

// OpenAIAdapter implements the adapter triple for OpenAI-compatible chat
// completion APIs. Most hosted providers expose this shape.
type OpenAIAdapter struct {
	client    *resty.Client
	endpoint  string
	model     string
	maxTokens int
}

// NewOpenAI creates an adapter for an OpenAI-compatible endpoint.
func NewOpenAI(model, apiKey, baseURL string, maxTokens int, timeout time.Duration) *OpenAIAdapter {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIAdapter{
		client:    client,
		endpoint:  baseURL + "/chat/completions",
		model:     model,
		maxTokens: maxTokens,
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// BuildRequest translates a generation request into the chat completion payload.
func (a *OpenAIAdapter) BuildRequest(req *domain.GenerationRequest) (interface{}, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 || (a.maxTokens > 0 && maxTokens > a.maxTokens) {
		maxTokens = a.maxTokens
	}

	return &openAIRequest{
		Model: a.model,
		Messages: []openAIMessage{
			{Role: "system", Content: prompts.GenerationSystemPrompt},
			{Role: "user", Content: prompts.BuildUserPrompt(req)},
		},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}, nil
}

// Invoke sends the native payload and returns the raw response body.
func (a *OpenAIAdapter) Invoke(ctx context.Context, native interface{}) ([]byte, error) {
	httpResp, err := a.client.R().
		SetContext(ctx).
		SetBody(native).
		Post(a.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat completion API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, fmt.Errorf("chat completion API returned HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}

	return httpResp.Body(), nil
}

// ParseResponse normalizes the raw chat completion response.
func (a *OpenAIAdapter) ParseResponse(body []byte) (*domain.GenerationResult, error) {
	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed chat completion response: %w", err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("chat completion API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in chat completion response")
	}

	text := resp.Choices[0].Message.Content
	result := &domain.GenerationResult{
		Text:         text,
		Structured:   parseStructured(text),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	if result.OutputTokens == 0 {
		result.OutputTokens = domain.EstimateTokens(text)
	}
	return result, nil
}
