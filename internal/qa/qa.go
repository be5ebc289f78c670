// Package qa implements the nine-step hybrid retrieval pipeline of
// spec.md §4.9: session bookkeeping, parallel lexical+semantic
// retrieve, merge, rerank, context assembly, LLM generation, trace
// assembly, and persistence. Grounded on
// go-enhanced-rag-service/vector_store.go's merge/score-explain idiom
// and original_source/.../rerank_service.py, llm_service.py for the
// rerank/generate steps.
package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"contractarchive/internal/adapters"
	"contractarchive/internal/ftindex"
	"contractarchive/internal/metrics"
	"contractarchive/internal/model"
	"contractarchive/internal/store"
	"contractarchive/internal/vectorindex"
)

const (
	lexicalLimit  = 15
	semanticLimit = 15
	rerankLimit   = 10
	contextLimit  = 6
	contextChars  = 800
	titleChars    = 50

	systemPrompt = "你是一名专业的合同助手，只根据提供的内容回答问题，如果内容不足以回答，请如实说明。"
	fallbackText = "抱歉，暂时无法生成回答。"
	noContextMsg = "未找到相关内容。"
)

// Engine wires together every dependency one Ask call needs.
type Engine struct {
	Store       *store.Store
	FTIndex     *ftindex.Index
	VectorIndex *vectorindex.Index
	Embedding   *adapters.Embedding
	Reranker    *adapters.Reranker
	ChatLLM     *adapters.ChatLLM
}

// candidate is one merged chunk candidate before/after rerank.
type candidate struct {
	chunkID          int64
	contractID       int64
	contractName     string
	contractNumber   string
	chunkIndex       int
	contentText      string
	fromLexical      bool
	fromSemantic     bool
	vectorSimilarity float64
	rerankScore      float64
	rerankPosition   int
}

// Result is the outcome of one Ask call.
type Result struct {
	Turn model.QASessionTurn
}

// Ask runs the full hybrid retrieval pipeline for one question and
// persists the resulting turn.
func (e *Engine) Ask(ctx context.Context, sessionID, question string) (Result, error) {
	start := time.Now()
	trace := model.PipelineTrace{}

	// Step 1: session bookkeeping.
	if sessionID == "" {
		sessionID = newSessionID()
	}
	if err := e.Store.QA.EnsureSession(ctx, sessionID); err != nil {
		return Result{}, err
	}
	messageOrder, err := e.Store.QA.NextMessageOrder(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	// Steps 2+3: lexical and semantic retrieval, in parallel.
	var lexicalHits []ftindex.Hit
	var semanticChunks []model.Chunk
	var semanticScores map[int64]float64
	var lexicalTrace, semanticTrace model.StageTrace

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t0 := time.Now()
		hits, err := e.FTIndex.SearchContents(gctx, question, nil, lexicalLimit)
		lexicalTrace.DurationMS = time.Since(t0).Milliseconds()
		status := "ok"
		if err != nil {
			lexicalTrace.Status = "failed"
			status = "failed"
		} else {
			lexicalHits = hits
			lexicalTrace.Status = "ok"
			lexicalTrace.Count = len(hits)
			if len(hits) > 0 {
				lexicalTrace.TopScore = hits[0].Score
			}
		}
		metrics.QueryStageDuration.WithLabelValues("lexical", status).Observe(time.Since(t0).Seconds())
		return nil
	})
	g.Go(func() error {
		t0 := time.Now()
		chunks, scores, err := e.semanticRetrieve(gctx, question)
		semanticTrace.DurationMS = time.Since(t0).Milliseconds()
		status := "ok"
		if err != nil {
			semanticTrace.Status = "failed"
			status = "failed"
		} else {
			semanticChunks = chunks
			semanticScores = scores
			semanticTrace.Status = "ok"
			semanticTrace.Count = len(chunks)
			if len(chunks) > 0 {
				top := scores[chunks[0].ID]
				for _, ch := range chunks[1:] {
					if s := scores[ch.ID]; s > top {
						top = s
					}
				}
				semanticTrace.TopScore = top
			}
		}
		metrics.QueryStageDuration.WithLabelValues("semantic", status).Observe(time.Since(t0).Seconds())
		return nil
	})
	_ = g.Wait()
	trace.Lexical = lexicalTrace
	trace.Semantic = semanticTrace

	// Record both retrievals in the search log; a failed insert does not
	// affect the answer.
	_ = e.Store.SearchLog.Insert(ctx, model.SearchLogEntry{Query: question, Method: model.SearchKeyword, ResultCount: lexicalTrace.Count, DurationMS: lexicalTrace.DurationMS})
	_ = e.Store.SearchLog.Insert(ctx, model.SearchLogEntry{Query: question, Method: model.SearchSemantic, ResultCount: semanticTrace.Count, DurationMS: semanticTrace.DurationMS})

	// Step 4: merge, keyed by chunk_id, lexical populated first.
	merged := mergeCandidates(lexicalHits, semanticChunks, semanticScores)

	// Step 5: rerank.
	t0 := time.Now()
	ordered, rerankTrace := e.rerank(ctx, question, merged)
	rerankTrace.DurationMS = time.Since(t0).Milliseconds()
	trace.Rerank = rerankTrace
	metrics.QueryStageDuration.WithLabelValues("rerank", rerankTrace.Status).Observe(time.Since(t0).Seconds())

	// Step 6: context assembly. Contract names/numbers are hydrated only
	// for the candidates that will actually be shown to the LLM.
	n := contextLimit
	if len(ordered) < n {
		n = len(ordered)
	}
	if err := e.hydrateContracts(ctx, ordered[:n]); err != nil {
		trace.Rerank.Status = trace.Rerank.Status + ";contract_hydration_failed"
	}
	contextBlocks, sourceContracts, sourceChunks := assembleContext(ordered[:n])

	// Step 7: LLM generation.
	answer, llmTrace := e.generate(ctx, question, contextBlocks)
	trace.LLM = llmTrace
	metrics.QueryStageDuration.WithLabelValues("llm", llmTrace.Status).Observe(float64(llmTrace.DurationMS) / 1000)

	// Step 8: assemble turn record.
	searchMethod := classifySearchMethod(len(lexicalHits) > 0, len(semanticChunks) > 0)
	trace.TotalMS = time.Since(start).Milliseconds()

	turn := model.QASessionTurn{
		SessionID:       sessionID,
		MessageOrder:    messageOrder,
		Question:        question,
		Answer:          answer,
		SourceContracts: sourceContracts,
		SourceChunks:    sourceChunks,
		PipelineTrace:   trace,
		SearchMethod:    searchMethod,
		ResponseTimeMS:  trace.TotalMS,
	}

	id, err := e.Store.QA.InsertTurn(ctx, turn)
	if err != nil {
		return Result{}, err
	}
	turn.ID = id

	// Step 9: backfill session_title on the first turn.
	if messageOrder == 1 {
		title := question
		if r := []rune(title); len(r) > titleChars {
			title = string(r[:titleChars])
		}
		if err := e.Store.QA.SetSessionTitle(ctx, sessionID, title); err != nil {
			return Result{}, err
		}
	}

	return Result{Turn: turn}, nil
}

// semanticRetrieve embeds the question, searches the vector index, and
// batch-loads the matching chunk rows from the store.
func (e *Engine) semanticRetrieve(ctx context.Context, question string) ([]model.Chunk, map[int64]float64, error) {
	vectors, err := e.Embedding.Embed(ctx, []string{question})
	if err != nil || len(vectors) == 0 {
		return nil, nil, err
	}

	results, err := e.VectorIndex.Search(vectors[0], semanticLimit)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		return nil, nil, nil
	}

	ids := make([]int64, len(results))
	scores := make(map[int64]float64, len(results))
	for i, r := range results {
		ids[i] = r.ChunkID
		scores[r.ChunkID] = float64(r.Score)
	}

	chunks, err := e.Store.Chunks.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return chunks, scores, nil
}

// mergeCandidates builds the keyed merge of step 4: lexical entries
// populated first, semantic entries merged in, preferring the richer
// content_text and filling in missing vector_similarity.
func mergeCandidates(lexicalHits []ftindex.Hit, semanticChunks []model.Chunk, semanticScores map[int64]float64) []*candidate {
	byID := make(map[int64]*candidate)
	var order []int64

	for _, h := range lexicalHits {
		if _, ok := byID[h.ChunkID]; ok {
			continue
		}
		c := &candidate{
			chunkID:     h.ChunkID,
			contractID:  h.ContractID,
			contentText: h.ContentText,
			fromLexical: true,
		}
		byID[h.ChunkID] = c
		order = append(order, h.ChunkID)
	}

	for _, ch := range semanticChunks {
		c, ok := byID[ch.ID]
		if !ok {
			c = &candidate{chunkID: ch.ID, contractID: ch.ContractID}
			byID[ch.ID] = c
			order = append(order, ch.ID)
		}
		c.fromSemantic = true
		c.vectorSimilarity = semanticScores[ch.ID]
		c.chunkIndex = ch.ChunkIndex
		if len(ch.ContentText) > len(c.contentText) {
			c.contentText = ch.ContentText
		}
	}

	out := make([]*candidate, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

// rerank calls the cross-encoder reranker when there are candidates to
// score. On failure it returns the candidates in merge order.
func (e *Engine) rerank(ctx context.Context, question string, candidates []*candidate) ([]*candidate, model.StageTrace) {
	if len(candidates) == 0 {
		return candidates, model.StageTrace{Status: "skipped"}
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.contentText
	}

	topK := rerankLimit
	if len(candidates) < topK {
		topK = len(candidates)
	}

	results, err := e.Reranker.Rank(ctx, question, texts, topK)
	if err != nil || len(results) == 0 {
		return candidates, model.StageTrace{Status: "failed", Count: len(candidates)}
	}

	ordered := make([]*candidate, 0, len(results))
	for pos, r := range results {
		if r.Index < 0 || r.Index >= len(candidates) {
			continue
		}
		c := candidates[r.Index]
		c.rerankScore = r.Score
		c.rerankPosition = pos
		ordered = append(ordered, c)
	}
	if len(ordered) == 0 {
		return candidates, model.StageTrace{Status: "failed", Count: len(candidates)}
	}

	top := results[0].Score
	return ordered, model.StageTrace{Status: "ok", Count: len(ordered), TopScore: top}
}

// hydrateContracts fills in contract name/number for a small set of
// candidates (the ones selected for context assembly), one lookup per
// distinct contract id.
func (e *Engine) hydrateContracts(ctx context.Context, candidates []*candidate) error {
	names := make(map[int64]model.Contract)
	for _, c := range candidates {
		if _, ok := names[c.contractID]; ok {
			continue
		}
		contract, err := e.Store.Contracts.GetByID(ctx, c.contractID)
		if err != nil {
			return err
		}
		names[c.contractID] = contract
	}
	for _, c := range candidates {
		contract := names[c.contractID]
		c.contractName = contract.ContractName
		c.contractNumber = contract.ContractNumber
	}
	return nil
}

// assembleContext truncates each candidate's content_text to 800
// characters and formats labeled blocks, for the already-selected top
// min(6, N) candidates.
func assembleContext(top []*candidate) (blocks []string, sourceContracts, sourceChunks []int64) {
	seenContracts := make(map[int64]struct{})
	for _, c := range top {
		text := c.contentText
		if r := []rune(text); len(r) > contextChars {
			text = string(r[:contextChars])
		}
		blocks = append(blocks, fmt.Sprintf(
			"【合同：%s（编号：%s），片段 %d】\n%s",
			c.contractName, c.contractNumber, c.chunkIndex, text,
		))
		sourceChunks = append(sourceChunks, c.chunkID)
		if _, ok := seenContracts[c.contractID]; !ok {
			seenContracts[c.contractID] = struct{}{}
			sourceContracts = append(sourceContracts, c.contractID)
		}
	}
	return blocks, sourceContracts, sourceChunks
}

// generate calls the chat LLM with the fixed system prompt and the
// assembled context blocks. An empty context yields the "no content
// found" fallback without calling the LLM; an LLM failure yields the
// stock fallback answer.
func (e *Engine) generate(ctx context.Context, question string, contextBlocks []string) (string, model.LLMTrace) {
	if len(contextBlocks) == 0 {
		return noContextMsg, model.LLMTrace{Status: "skipped"}
	}

	userPrompt := fmt.Sprintf("以下是相关合同内容：\n\n%s\n\n问题：%s", strings.Join(contextBlocks, "\n\n"), question)

	t0 := time.Now()
	result, err := e.ChatLLM.Complete(ctx, systemPrompt, userPrompt, adapters.CompleteParams{
		MaxTokens:   800,
		Temperature: 0.7,
		TopP:        0.9,
	})
	duration := time.Since(t0).Milliseconds()
	if err != nil {
		return fallbackText, model.LLMTrace{Status: "failed", DurationMS: duration}
	}

	return result.Text, model.LLMTrace{
		Status:       "ok",
		DurationMS:   duration,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		FinishReason: result.FinishReason,
	}
}

func classifySearchMethod(hasLexical, hasSemantic bool) model.SearchMethod {
	switch {
	case hasLexical && hasSemantic:
		return model.SearchHybrid
	case hasLexical:
		return model.SearchKeyword
	case hasSemantic:
		return model.SearchSemantic
	default:
		return model.SearchNone
	}
}

// newSessionID mints a fresh session id for a sessionless first turn.
func newSessionID() string {
	return uuid.NewString()
}
