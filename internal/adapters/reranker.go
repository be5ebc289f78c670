package adapters

import (
	"context"
	"sort"
	"time"
)

// Reranker scores documents against a query with a cross-encoder, per
// spec.md §4.1, grounded on original_source/.../rerank_service.py.
type Reranker struct {
	http  *httpClient
	model string
}

// NewReranker builds a Reranker client against a BGE-reranker-style
// endpoint.
func NewReranker(baseURL, apiKey, model string, timeout time.Duration) *Reranker {
	return &Reranker{http: newHTTPClient(baseURL, apiKey, timeout), model: model}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopK      int      `json:"top_k,omitempty"`
}

type rerankResponse struct {
	Results []RankResult `json:"results"`
}

// RankResult is one scored document, monotone decreasing by Score
// across the response.
type RankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"relevance_score"`
}

// Rank scores docs against query and returns up to topK results ordered
// by descending score. topK of 0 means "all".
func (r *Reranker) Rank(ctx context.Context, query string, docs []string, topK int) ([]RankResult, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	req := rerankRequest{Model: r.model, Query: query, Documents: docs, TopK: topK}
	var resp rerankResponse
	if err := r.http.postJSON(ctx, "", req, &resp); err != nil {
		return nil, err
	}
	results := resp.Results
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
