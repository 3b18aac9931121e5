package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/go-resty/resty/v2"
	_ "golang.org/x/image/webp"

	"docsmith/internal/prompts"
)

// VisionOCR extracts text from scanned documents via a vision language
// model behind an OpenAI-compatible chat completion endpoint. It is the most
// expensive backend and sits last in the chain.
type VisionOCR struct {
	client   *resty.Client
	model    string
	endpoint string
}

// VisionOCRConfig holds configuration for the OCR backend.
type VisionOCRConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewVisionOCR creates the vision OCR extraction backend.
func NewVisionOCR(cfg *VisionOCRConfig) *VisionOCR {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(cfg.Timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &VisionOCR{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

func (v *VisionOCR) ID() string { return "vlm-ocr" }

type visionRequest struct {
	Model     string          `json:"model"`
	Messages  []visionMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type visionMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for system, []interface{} for user with images
}

type visionTextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type visionImageContent struct {
	Type     string         `json:"type"`
	ImageURL visionImageURL `json:"image_url"`
}

type visionImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Extract sends the document image to the vision model and returns the
// transcribed text.
func (v *VisionOCR) Extract(ctx context.Context, data []byte, _ string) (string, error) {
	// Reject non-image bytes before spending an API call.
	imgCfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("document is not a decodable image: %w", err)
	}
	if imgCfg.Width < 32 || imgCfg.Height < 32 {
		return "", fmt.Errorf("image too small for OCR: %dx%d", imgCfg.Width, imgCfg.Height)
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType(format),
		base64.StdEncoding.EncodeToString(data))

	req := visionRequest{
		Model: v.model,
		Messages: []visionMessage{
			{
				Role:    "system",
				Content: prompts.OCRSystemPrompt,
			},
			{
				Role: "user",
				Content: []interface{}{
					visionTextContent{
						Type: "text",
						Text: prompts.OCRUserPrompt,
					},
					visionImageContent{
						Type: "image_url",
						ImageURL: visionImageURL{
							URL:    dataURL,
							Detail: "auto", // auto gives better text recognition
						},
					},
				},
			},
		},
		MaxTokens: 4000,
	}

	httpResp, err := v.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(v.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call OCR API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return "", fmt.Errorf("OCR API returned HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}

	var resp visionResponse
	if err := json.Unmarshal(httpResp.Body(), &resp); err != nil {
		return "", fmt.Errorf("malformed OCR response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("OCR API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OCR response")
	}

	return resp.Choices[0].Message.Content, nil
}

func mimeType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
