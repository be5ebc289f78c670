package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestVisionOCRRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "<p>hello</p>"}},
			},
		})
	}))
	defer srv.Close()

	v := NewVisionOCR(srv.URL, "key", "test-model", time.Second)
	got, err := v.Recognize(context.Background(), []byte{1, 2, 3}, 1, 1)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got != "<p>hello</p>" {
		t.Errorf("Recognize() = %q", got)
	}
}

func TestVisionOCRUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	v := NewVisionOCR(srv.URL, "key", "test-model", time.Second)
	_, err := v.Recognize(context.Background(), []byte{1}, 1, 1)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestEmbeddingEmbedOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0.2, 0.2}},
				{"index": 0, "embedding": []float32{0.1, 0.1}},
			},
		})
	}))
	defer srv.Close()

	e := NewEmbedding(srv.URL, "key", "bge-m3", 2, time.Second)
	got, err := e.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if got[0][0] != 0.1 || got[1][0] != 0.2 {
		t.Errorf("Embed() out of order: %v", got)
	}
}

func TestEmbeddingDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{0.1}}},
		})
	}))
	defer srv.Close()

	e := NewEmbedding(srv.URL, "key", "bge-m3", 1024, time.Second)
	if _, err := e.Embed(context.Background(), []string{"only"}); err == nil {
		t.Fatal("expected a dimension mismatch error")
	}
}

func TestRerankerRank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"index": 1, "relevance_score": 0.9},
				{"index": 0, "relevance_score": 0.3},
			},
		})
	}))
	defer srv.Close()

	rr := NewReranker(srv.URL, "key", "bge-reranker", time.Second)
	got, err := rr.Rank(context.Background(), "query", []string{"doc a", "doc b"}, 2)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 2 || got[0].Index != 1 {
		t.Errorf("Rank() = %+v", got)
	}
}

func TestChatLLMComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "the answer"}, "finish_reason": "stop"},
			},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5},
		})
	}))
	defer srv.Close()

	c := NewChatLLM(srv.URL, "key", "qwen", time.Second)
	got, err := c.Complete(context.Background(), "system prompt", "user prompt", CompleteParams{MaxTokens: 800, Temperature: 0.7, TopP: 0.9})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Text != "the answer" || got.InputTokens != 10 || got.OutputTokens != 5 {
		t.Errorf("Complete() = %+v", got)
	}
}
