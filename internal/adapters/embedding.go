package adapters

import (
	"context"
	"strings"
	"time"

	"contractarchive/internal/errs"
)

// Embedding produces dense vectors for a batch of texts, per spec.md
// §4.1. Grounded on go-enhanced-rag-service/embedding_service.go's
// batching and normalization, re-pointed at the BGE-M3 style endpoint
// original_source/.../vector_service.py calls.
type Embedding struct {
	http *httpClient
	model string
	dim   int
}

// NewEmbedding builds an Embedding client. dim is the fixed output
// dimension the caller expects back (1024 for BGE-M3).
func NewEmbedding(baseURL, apiKey, model string, dim int, timeout time.Duration) *Embedding {
	return &Embedding{http: newHTTPClient(baseURL, apiKey, timeout), model: model, dim: dim}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns one vector per input text, in input order, each of
// dimension e.dim.
func (e *Embedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	normalized := make([]string, len(texts))
	for i, t := range texts {
		normalized[i] = normalizeText(t)
	}

	req := embeddingRequest{Model: e.model, Input: normalized}
	var resp embeddingResponse
	if err := e.http.postJSON(ctx, "", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, errs.New(errs.Upstream, "embedding response count mismatch")
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, errs.New(errs.Upstream, "embedding response index out of range")
		}
		if len(d.Embedding) != e.dim {
			return nil, errs.New(errs.Upstream, "embedding response dimension mismatch")
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// normalizeText collapses whitespace and truncates to a length the
// embedding endpoint reliably accepts.
func normalizeText(s string) string {
	fields := strings.Fields(s)
	joined := strings.Join(fields, " ")
	const maxLen = 8000
	r := []rune(joined)
	if len(r) > maxLen {
		return string(r[:maxLen])
	}
	return joined
}
