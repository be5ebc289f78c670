package adapters

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"contractarchive/internal/errs"
)

// VisionOCR recognizes one page image and returns raw HTML text, per
// spec.md §4.1. Grounded on original_source/.../ocr_service.py's
// _call_glm4v_api.
type VisionOCR struct {
	http  *httpClient
	model string
}

// NewVisionOCR builds a VisionOCR client against a SiliconFlow-style
// chat-completions endpoint.
func NewVisionOCR(baseURL, apiKey, model string, timeout time.Duration) *VisionOCR {
	return &VisionOCR{http: newHTTPClient(baseURL, apiKey, timeout), model: model}
}

type visionMessage struct {
	Role    string          `json:"role"`
	Content []visionContent `json:"content"`
}

type visionContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *visionImageURL `json:"image_url,omitempty"`
}

type visionImageURL struct {
	URL string `json:"url"`
}

type visionRequest struct {
	Model       string          `json:"model"`
	Messages    []visionMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const visionSystemPrompt = `You are a document OCR engine. Output raw HTML only: no chain-of-thought, ` +
	`no markdown fences, no commentary. Use <table> for tabular content, <h1>-<h3> for headings, ` +
	`<p> for paragraphs. Return an empty string for a blank page.`

// Recognize sends one page image to the vision model and returns its
// HTML transcription.
func (v *VisionOCR) Recognize(ctx context.Context, imageBytes []byte, pageNum, totalPages int) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(imageBytes)
	req := visionRequest{
		Model: v.model,
		Messages: []visionMessage{
			{Role: "system", Content: []visionContent{{Type: "text", Text: visionSystemPrompt}}},
			{Role: "user", Content: []visionContent{
				{Type: "text", Text: fmt.Sprintf("Page %d of %d.", pageNum, totalPages)},
				{Type: "image_url", ImageURL: &visionImageURL{URL: "data:image/png;base64," + encoded}},
			}},
		},
		MaxTokens:   3000,
		Temperature: 0.01,
	}

	var resp visionResponse
	if err := v.http.postJSON(ctx, "", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errs.New(errs.Upstream, "vision OCR returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
