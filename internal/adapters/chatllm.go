package adapters

import (
	"context"
	"time"

	"contractarchive/internal/errs"
)

// ChatLLM generates a natural-language answer from a system+user
// prompt, per spec.md §4.1, grounded on original_source/.../llm_service.py.
type ChatLLM struct {
	http  *httpClient
	model string
}

// NewChatLLM builds a ChatLLM client against a chat-completions
// endpoint.
func NewChatLLM(baseURL, apiKey, model string, timeout time.Duration) *ChatLLM {
	return &ChatLLM{http: newHTTPClient(baseURL, apiKey, timeout), model: model}
}

// CompleteParams bounds one chat-completion call.
type CompleteParams struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// CompleteResult is the generation outcome plus token accounting.
type CompleteResult struct {
	Text         string
	InputTokens  int
	OutputTokens int
	FinishReason string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete calls the chat LLM with the given system/user prompts.
func (c *ChatLLM) Complete(ctx context.Context, system, user string, params CompleteParams) (CompleteResult, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		Stream:      false,
	}

	var resp chatResponse
	if err := c.http.postJSON(ctx, "", req, &resp); err != nil {
		return CompleteResult{}, err
	}
	if len(resp.Choices) == 0 {
		return CompleteResult{}, errs.New(errs.Upstream, "chat completion returned no choices")
	}

	return CompleteResult{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		FinishReason: resp.Choices[0].FinishReason,
	}, nil
}
