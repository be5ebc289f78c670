// Package adapters implements the typed remote-model clients (vision
// OCR, embedding, reranker, chat LLM), grounded on
// go-enhanced-rag-service/embedding_service.go's timeout pattern and
// the original_source Python services' request/response shapes. Each
// call is a single attempt; nothing is retried.
package adapters

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"contractarchive/internal/errs"
)

// httpClient is the shared, timeout-bounded client every adapter wraps.
type httpClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func newHTTPClient(baseURL, apiKey string, timeout time.Duration) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// postJSON marshals body with sonic, posts it, and decodes into out.
// Errors are classified into an errs.Kind matching spec.md §4.1's
// per-adapter failure modes; nil means success.
func (c *httpClient) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return errs.Wrap(errs.Internal, "marshal request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errs.Wrap(errs.Internal, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errs.Wrap(errs.Timeout, "call "+path, err)
		}
		return errs.Wrap(errs.Upstream, "call "+path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.Upstream, "read response body", err)
	}
	if resp.StatusCode >= 400 {
		return errs.New(errs.Upstream, "upstream "+path+" returned status "+resp.Status)
	}

	if out != nil {
		if err := sonic.Unmarshal(raw, out); err != nil {
			return errs.Wrap(errs.Upstream, "decode response body", err)
		}
	}
	return nil
}
