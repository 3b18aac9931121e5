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

// AnthropicAdapter implements the adapter triple for the Anthropic Messages API.
type AnthropicAdapter struct {
	client    *resty.Client
	endpoint  string
	model     string
	maxTokens int
}

// NewAnthropic creates an adapter for the Anthropic Messages API.
func NewAnthropic(model, apiKey, baseURL string, maxTokens int, timeout time.Duration) *AnthropicAdapter {
	client := resty.New()
	client.SetHeader("x-api-key", apiKey)
	client.SetHeader("anthropic-version", "2023-06-01")
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	if maxTokens == 0 {
		maxTokens = 4096 // max_tokens is required by the Messages API
	}

	return &AnthropicAdapter{
		client:    client,
		endpoint:  baseURL + "/messages",
		model:     model,
		maxTokens: maxTokens,
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// BuildRequest translates a generation request into the Messages API payload.
func (a *AnthropicAdapter) BuildRequest(req *domain.GenerationRequest) (interface{}, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 || maxTokens > a.maxTokens {
		maxTokens = a.maxTokens
	}

	return &anthropicRequest{
		Model:     a.model,
		MaxTokens: maxTokens,
		System:    prompts.GenerationSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompts.BuildUserPrompt(req)},
		},
		Temperature: req.Temperature,
	}, nil
}

// Invoke sends the native payload and returns the raw response body.
func (a *AnthropicAdapter) Invoke(ctx context.Context, native interface{}) ([]byte, error) {
	httpResp, err := a.client.R().
		SetContext(ctx).
		SetBody(native).
		Post(a.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call messages API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, fmt.Errorf("messages API returned HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}

	return httpResp.Body(), nil
}

// ParseResponse normalizes the raw Messages API response.
func (a *AnthropicAdapter) ParseResponse(body []byte) (*domain.GenerationResult, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed messages response: %w", err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("messages API error: %s", resp.Error.Message)
	}

	text := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text content in messages response")
	}

	result := &domain.GenerationResult{
		Text:         text,
		Structured:   parseStructured(text),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}
	if result.OutputTokens == 0 {
		result.OutputTokens = domain.EstimateTokens(text)
	}
	return result, nil
}
