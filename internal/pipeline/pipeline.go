// Package pipeline implements the per-contract processing state machine
// described in spec.md §4.8: rasterize, OCR, chunk, full-text sync,
// vector embed, each stage persisted before and after its heavy work so
// a crash mid-stage resumes cleanly. The dispatch queue is grounded on
// legal-gateway/worker.go's BLPOP loop.
package pipeline

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"contractarchive/internal/adapters"
	"contractarchive/internal/chunker"
	"contractarchive/internal/errs"
	"contractarchive/internal/ftindex"
	"contractarchive/internal/metrics"
	"contractarchive/internal/model"
	"contractarchive/internal/ocr"
	"contractarchive/internal/rasterize"
	"contractarchive/internal/store"
	"contractarchive/internal/upload"
	"contractarchive/internal/vectorindex"
)

const jobsKey = "contracts:jobs"

// Job is the payload pushed onto the Redis dispatch queue.
type Job struct {
	ContractID int64 `json:"contract_id"`
	Force      bool  `json:"force"`
}

// Orchestrator owns every dependency one contract's pipeline run needs.
type Orchestrator struct {
	Store       *store.Store
	FTIndex     *ftindex.Index
	VectorIndex *vectorindex.Index
	Embedding   *adapters.Embedding
	OCRPool     *ocr.Pool
	Cleaner     *ocr.Cleaner
	Chunker     chunker.Config
	Redis       *redis.Client
	Blobs       *upload.Store
	UploadDir   string
	TempRoot    string
	Logger      *zap.Logger
}

// Enqueue pushes a job onto the dispatch queue for a worker to pick up.
func (o *Orchestrator) Enqueue(ctx context.Context, contractID int64, force bool) error {
	payload, err := json.Marshal(Job{ContractID: contractID, Force: force})
	if err != nil {
		return errs.Wrap(errs.Internal, "marshal pipeline job", err)
	}
	if err := o.Redis.LPush(ctx, jobsKey, payload).Err(); err != nil {
		return errs.Wrap(errs.Unavailable, "enqueue pipeline job", err)
	}
	return nil
}

// Run blocks, dispatching jobs as they arrive, until ctx is canceled.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := o.Redis.BLPop(ctx, 0*time.Second, jobsKey).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.Logger.Error("blpop failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			o.Logger.Error("job unmarshal failed", zap.Error(err))
			continue
		}

		if err := o.ProcessContract(ctx, job.ContractID, job.Force); err != nil {
			o.Logger.Error("process contract failed",
				zap.Int64("contract_id", job.ContractID), zap.Error(err))
		}
	}
}

// ResumePending re-enqueues every contract left mid-stage at startup,
// per spec.md §4.8's crash-recovery note.
func (o *Orchestrator) ResumePending(ctx context.Context) error {
	stages := []store.Stage{store.StageOCR, store.StageContent, store.StageVector}
	seen := make(map[int64]struct{})
	for _, stage := range stages {
		contracts, err := o.Store.Contracts.ListPending(ctx, stage)
		if err != nil {
			return err
		}
		for _, c := range contracts {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			if err := o.Enqueue(ctx, c.ID, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessContract runs every stage the contract has not yet completed,
// in order. Each *_RUNNING status is persisted before the matching
// stage's heavy work begins, so a crash mid-stage leaves the contract
// resumable rather than silently marked done. A stage's failure halts
// the pipeline for this contract; later stages are not attempted.
func (o *Orchestrator) ProcessContract(ctx context.Context, contractID int64, force bool) error {
	contract, err := o.Store.Contracts.GetByID(ctx, contractID)
	if err != nil {
		return err
	}

	if force {
		if err := o.Store.Chunks.DeleteByContract(ctx, contractID); err != nil {
			return err
		}
		o.VectorIndex.RemoveByContract(contractID)
		if err := o.FTIndex.DeleteContract(ctx, contractID); err != nil {
			o.Logger.Warn("ft delete on reprocess failed", zap.Error(err))
		}
		contract.OCRStatus = model.StatusPending
		contract.ContentStatus = model.StatusPending
		contract.ElasticsearchSyncStatus = model.StatusPending
		contract.VectorStatus = model.StatusPending
	}

	if contract.OCRStatus != model.StatusCompleted || force {
		if err := o.runOCR(ctx, &contract); err != nil {
			return err
		}
	}

	if contract.ContentStatus != model.StatusCompleted || force {
		if err := o.runChunk(ctx, &contract); err != nil {
			return err
		}
	}

	if contract.ElasticsearchSyncStatus != model.StatusCompleted || force {
		if err := o.runFTSync(ctx, &contract); err != nil {
			return err
		}
	}

	if contract.VectorStatus != model.StatusCompleted || force {
		if err := o.runVector(ctx, &contract); err != nil {
			return err
		}
	}

	return nil
}

func observeStage(stage string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	metrics.PipelineStageDuration.WithLabelValues(stage, outcome).Observe(time.Since(start).Seconds())
}

func (o *Orchestrator) runOCR(ctx context.Context, c *model.Contract) (err error) {
	start := time.Now()
	defer func() { observeStage("ocr", start, err) }()

	if err := o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageOCR, model.StatusProcessing); err != nil {
		return err
	}

	pdfPath := o.Blobs.AbsolutePath(c.StoredBlobPath)
	pages, err := rasterize.Rasterize(o.TempRoot, c.ID, pdfPath, time.Now().UnixNano())
	if err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageOCR, model.StatusFailed)
		return err
	}
	defer pages.Cleanup()

	outcomes := o.OCRPool.ProcessPages(ctx, pages.Paths)
	results, failedPages := ocr.Succeeded(outcomes)
	if len(results) == 0 {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageOCR, model.StatusFailed)
		return errs.New(errs.Upstream, "every page failed vision OCR")
	}
	if len(failedPages) > 0 {
		o.Logger.Warn("some pages failed OCR", zap.Int64("contract_id", c.ID), zap.Ints("failed_pages", failedPages))
		metrics.OCRPageFailuresTotal.Add(float64(len(failedPages)))
	}

	for i := range results {
		results[i].HTML = o.Cleaner.Clean(results[i].HTML)
	}
	merged := ocr.Merge(results)
	text := ocr.ExtractText(merged)

	htmlPath, textPath, err := writeContentArtifacts(o.UploadDir, c.ID, c.OriginalFilename, merged, text)
	if err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageOCR, model.StatusFailed)
		return err
	}

	if err := o.Store.Contracts.SetHTMLAndTextPaths(ctx, c.ID, htmlPath, textPath); err != nil {
		return err
	}
	if err := o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageOCR, model.StatusCompleted); err != nil {
		return err
	}

	c.HTMLContentPath = htmlPath
	c.TextContentPath = textPath
	c.OCRStatus = model.StatusCompleted
	return nil
}

func (o *Orchestrator) runChunk(ctx context.Context, c *model.Contract) (err error) {
	start := time.Now()
	defer func() { observeStage("chunk", start, err) }()

	if err := o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageContent, model.StatusProcessing); err != nil {
		return err
	}

	text, err := readContentArtifact(c.TextContentPath)
	if err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageContent, model.StatusFailed)
		return err
	}

	split := chunker.Split(text, o.Chunker)
	chunks := make([]model.Chunk, len(split))
	for i, s := range split {
		chunks[i] = model.Chunk{
			ChunkIndex:   s.ChunkIndex,
			ContentText:  s.ContentText,
			ChunkType:    model.ChunkParagraph,
			ChunkSize:    s.ChunkSize,
			StartChar:    s.StartChar,
			EndChar:      s.EndChar,
			HasChinese:   s.HasChinese,
			Keywords:     s.Keywords,
			VectorStatus: model.StatusPending,
		}
	}

	if _, err := o.Store.Chunks.BulkInsert(ctx, c.ID, chunks); err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageContent, model.StatusFailed)
		return err
	}

	if err := o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageContent, model.StatusCompleted); err != nil {
		return err
	}
	c.ContentStatus = model.StatusCompleted
	return nil
}

func (o *Orchestrator) runFTSync(ctx context.Context, c *model.Contract) (err error) {
	start := time.Now()
	defer func() { observeStage("ft_sync", start, err) }()

	if err := o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageElasticsearch, model.StatusProcessing); err != nil {
		return err
	}

	if err := o.FTIndex.EnsureIndices(ctx); err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageElasticsearch, model.StatusFailed)
		return err
	}

	contractText := strings.TrimSpace(c.ContractName + " " + c.Summary)
	keywords := strings.Join(o.Chunker.Keywords.Extract(contractText, 10), " ")
	if err := o.Store.Contracts.SetSummaryAndKeywords(ctx, c.ID, c.Summary, keywords); err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageElasticsearch, model.StatusFailed)
		return err
	}
	c.Keywords = keywords

	if err := o.FTIndex.IndexContract(ctx, ftindex.ContractDoc{
		ContractID:     c.ID,
		ContractNumber: c.ContractNumber,
		ContractName:   c.ContractName,
		ContractType:   c.ContractType,
		Keywords:       c.Keywords,
		Summary:        c.Summary,
		FileName:       c.OriginalFilename,
		UploadTime:     c.UploadTime.Format(time.RFC3339),
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}); err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageElasticsearch, model.StatusFailed)
		return err
	}

	chunks, err := o.Store.Chunks.ListByContract(ctx, c.ID)
	if err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageElasticsearch, model.StatusFailed)
		return err
	}
	for _, ch := range chunks {
		err := o.FTIndex.IndexChunk(ctx, ftindex.ContentDoc{
			ChunkID:        ch.ID,
			ContractID:     c.ID,
			ContractNumber: c.ContractNumber,
			ContractName:   c.ContractName,
			FileName:       c.OriginalFilename,
			FileFormat:     c.FileFormat,
			UploadTime:     c.UploadTime.Format(time.RFC3339),
			ContractType:   c.ContractType,
			ChunkIndex:     ch.ChunkIndex,
			ContentText:    ch.ContentText,
			ChunkType:      string(ch.ChunkType),
			ChunkSize:      ch.ChunkSize,
			CreatedAt:      ch.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageElasticsearch, model.StatusFailed)
			return err
		}
	}

	if err := o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageElasticsearch, model.StatusCompleted); err != nil {
		return err
	}
	c.ElasticsearchSyncStatus = model.StatusCompleted
	return nil
}

func (o *Orchestrator) runVector(ctx context.Context, c *model.Contract) (err error) {
	start := time.Now()
	defer func() {
		observeStage("vector", start, err)
		outcome := "completed"
		if err != nil {
			outcome = "failed"
		}
		metrics.ContractsProcessedTotal.WithLabelValues(outcome).Inc()
	}()

	if err := o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageVector, model.StatusProcessing); err != nil {
		return err
	}

	chunks, err := o.Store.Chunks.ListByContract(ctx, c.ID)
	if err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageVector, model.StatusFailed)
		return err
	}
	if len(chunks) == 0 {
		return o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageVector, model.StatusCompleted)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.ContentText
	}

	vectors, err := o.Embedding.Embed(ctx, texts)
	if err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageVector, model.StatusFailed)
		return err
	}

	mappings := make([]vectorindex.Mapping, len(chunks))
	for i, ch := range chunks {
		mappings[i] = vectorindex.Mapping{ContractID: c.ID, ChunkID: ch.ID, ChunkIndex: ch.ChunkIndex}
	}

	ids, err := o.VectorIndex.AddVectors(vectors, mappings)
	if err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageVector, model.StatusFailed)
		return err
	}

	for i, ch := range chunks {
		if err := o.Store.Chunks.MarkVectorized(ctx, ch.ID, strconv.Itoa(ids[i])); err != nil {
			return err
		}
	}

	if err := o.VectorIndex.Save(ctx); err != nil {
		o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageVector, model.StatusFailed)
		return err
	}

	if err := o.Store.Contracts.UpdateStage(ctx, c.ID, store.StageVector, model.StatusCompleted); err != nil {
		return err
	}
	c.VectorStatus = model.StatusCompleted
	return nil
}
