package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"contractarchive/internal/errs"
	"contractarchive/internal/ftindex"
	"contractarchive/internal/model"
	"contractarchive/internal/store"
)

type uploadResponse struct {
	ContractID     int64  `json:"contract_id"`
	ContractNumber string `json:"contract_number"`
	FileName       string `json:"file_name"`
	FileSize       int64  `json:"file_size"`
	UploadTime     string `json:"upload_time"`
	OCRStatus      string `json:"ocr_status"`
}

// uploadContract saves the multipart file, derives
// (contract_number, contract_name) from its filename, rejects
// duplicate numbers, creates the contract row, and enqueues the full
// pipeline, mirroring original_source/.../contracts.py's upload_contract.
func (s *Server) uploadContract(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		failWith(c, http.StatusBadRequest, "missing file")
		return
	}

	if s.MaxFileSize > 0 && fileHeader.Size > s.MaxFileSize {
		failWith(c, http.StatusRequestEntityTooLarge, "file exceeds maximum allowed size")
		return
	}
	if len(s.SupportedExt) > 0 && !isSupportedFormat(fileHeader.Filename, s.SupportedExt) {
		failWith(c, http.StatusBadRequest, "unsupported file format")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		failWith(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	defer src.Close()

	relativePath, size, err := s.Blobs.Save(c.Request.Context(), fileHeader.Filename, src)
	if err != nil {
		fail(c, err)
		return
	}

	contractNumber, contractName := extractContractInfo(fileHeader.Filename)

	if _, err := s.Store.Contracts.GetByNumber(c.Request.Context(), contractNumber); err == nil {
		s.Blobs.Delete(relativePath)
		failWith(c, http.StatusBadRequest, fmt.Sprintf("合同编号 %s 已存在", contractNumber))
		return
	} else if errs.KindOf(err) != errs.NotFound {
		s.Blobs.Delete(relativePath)
		fail(c, err)
		return
	}

	contract := model.Contract{
		ContractNumber:   contractNumber,
		ContractName:     contractName,
		ContractType:     c.Query("contract_type"),
		OriginalFilename: fileHeader.Filename,
		StoredBlobPath:   relativePath,
		FileFormat:       fileFormat(fileHeader.Filename),
		FileSizeBytes:    size,
	}

	id, err := s.Store.Contracts.Create(c.Request.Context(), contract)
	if err != nil {
		s.Blobs.Delete(relativePath)
		fail(c, err)
		return
	}

	if err := s.Orchestrator.Enqueue(c.Request.Context(), id, false); err != nil {
		s.Logger.Warn("failed to enqueue pipeline job", zapField("contract_id", id), zapErr(err))
	}

	ok(c, "文件上传成功，自动化处理已开始（OCR识别 → 文档切块 → Elasticsearch同步）", uploadResponse{
		ContractID:     id,
		ContractNumber: contractNumber,
		FileName:       fileHeader.Filename,
		FileSize:       size,
		UploadTime:     time.Now().Format(time.RFC3339),
		OCRStatus:      string(model.StatusPending),
	})
}

type contractListResponse struct {
	Total     int               `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
	Contracts []model.Contract  `json:"contracts"`
}

func (s *Server) listContracts(c *gin.Context) {
	page, pageSize, limit, offset := pagination(c)

	contracts, err := s.Store.Contracts.List(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	total, err := s.Store.Contracts.Count(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, "获取合同列表成功", contractListResponse{Total: total, Page: page, PageSize: pageSize, Contracts: contracts})
}

func (s *Server) getContract(c *gin.Context) {
	id, found := pathInt64(c, "id")
	if !found {
		failWith(c, http.StatusBadRequest, "invalid contract id")
		return
	}
	contract, err := s.Store.Contracts.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "获取合同详情成功", contract)
}

func (s *Server) downloadContract(c *gin.Context) {
	id, found := pathInt64(c, "id")
	if !found {
		failWith(c, http.StatusBadRequest, "invalid contract id")
		return
	}
	contract, err := s.Store.Contracts.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	f, err := s.Blobs.Open(c.Request.Context(), contract.StoredBlobPath)
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	encoded := url.QueryEscape(contract.OriginalFilename)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", encoded))
	c.Header("Cache-Control", "no-cache")
	c.DataFromReader(http.StatusOK, contract.FileSizeBytes, "application/octet-stream", f, nil)
}

// deleteContract cascades the contract row (and its chunks, via the FK
// cascade), its blob, its full-text index entries, and its vector
// mapping entries.
func (s *Server) deleteContract(c *gin.Context) {
	id, found := pathInt64(c, "id")
	if !found {
		failWith(c, http.StatusBadRequest, "invalid contract id")
		return
	}
	contract, err := s.Store.Contracts.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	if err := s.Store.Contracts.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	s.Blobs.Delete(contract.StoredBlobPath)
	if err := s.Orchestrator.FTIndex.DeleteContract(c.Request.Context(), id); err != nil {
		s.Logger.Warn("ft index delete on contract delete failed", zapErr(err))
	}
	s.VectorIndex.RemoveByContract(id)
	if err := s.VectorIndex.Save(c.Request.Context()); err != nil {
		s.Logger.Warn("vector index save on contract delete failed", zapErr(err))
	}

	ok(c, "合同已删除", nil)
}

type statusResponse struct {
	ContractID       int64  `json:"contract_id"`
	OCRStatus        string `json:"ocr_status"`
	ContentStatus    string `json:"content_status"`
	VectorStatus     string `json:"vector_status"`
	HTMLContentPath  string `json:"html_content_path,omitempty"`
	TextContentPath  string `json:"text_content_path,omitempty"`
}

func (s *Server) ocrStatus(c *gin.Context) {
	s.statusFor(c, "获取OCR状态成功")
}

func (s *Server) contentStatus(c *gin.Context) {
	s.statusFor(c, "获取内容处理状态成功")
}

func (s *Server) automatedStatus(c *gin.Context) {
	s.statusFor(c, "获取自动化处理状态成功")
}

func (s *Server) statusFor(c *gin.Context, message string) {
	id, found := pathInt64(c, "id")
	if !found {
		failWith(c, http.StatusBadRequest, "invalid contract id")
		return
	}
	contract, err := s.Store.Contracts.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, message, statusResponse{
		ContractID:      contract.ID,
		OCRStatus:       string(contract.OCRStatus),
		ContentStatus:   string(contract.ContentStatus),
		VectorStatus:    string(contract.VectorStatus),
		HTMLContentPath: contract.HTMLContentPath,
		TextContentPath: contract.TextContentPath,
	})
}

func (s *Server) processOCR(c *gin.Context) {
	s.triggerProcessing(c, false, "OCR处理已开始")
}

func (s *Server) processContent(c *gin.Context) {
	s.triggerProcessing(c, false, "文档切块处理已开始")
}

func (s *Server) processAutomated(c *gin.Context) {
	force := c.Query("force_reprocess") == "true"
	s.triggerProcessing(c, force, "自动化处理已开始")
}

func (s *Server) triggerProcessing(c *gin.Context, force bool, message string) {
	id, found := pathInt64(c, "id")
	if !found {
		failWith(c, http.StatusBadRequest, "invalid contract id")
		return
	}
	if _, err := s.Store.Contracts.GetByID(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	if err := s.Orchestrator.Enqueue(c.Request.Context(), id, force); err != nil {
		fail(c, err)
		return
	}
	ok(c, message, gin.H{"contract_id": id})
}

func (s *Server) htmlContent(c *gin.Context) {
	id, found := pathInt64(c, "id")
	if !found {
		failWith(c, http.StatusBadRequest, "invalid contract id")
		return
	}
	contract, err := s.Store.Contracts.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if contract.HTMLContentPath == "" {
		failWith(c, http.StatusNotFound, "html content not available")
		return
	}
	data, err := os.ReadFile(contract.HTMLContentPath)
	if err != nil {
		failWith(c, http.StatusNotFound, "html content file missing")
		return
	}
	ok(c, "获取HTML内容成功", gin.H{"html_content": string(data)})
}

type chunkListResponse struct {
	Total  int           `json:"total"`
	Page   int           `json:"page"`
	Size   int           `json:"size"`
	Chunks []model.Chunk `json:"chunks"`
}

func (s *Server) listChunks(c *gin.Context) {
	id, found := pathInt64(c, "id")
	if !found {
		failWith(c, http.StatusBadRequest, "invalid contract id")
		return
	}
	page, size, limit, offset := pagination(c)
	chunkType := c.Query("chunk_type")

	chunks, total, err := s.Store.Chunks.ListByContractPaged(c.Request.Context(), id, chunkType, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "获取分块列表成功", chunkListResponse{Total: total, Page: page, Size: size, Chunks: chunks})
}

type searchHitResponse struct {
	ChunkID   int64   `json:"chunk_id"`
	Highlight string  `json:"highlight"`
	Score     float64 `json:"score"`
}

func (s *Server) searchContractChunks(c *gin.Context) {
	id, found := pathInt64(c, "id")
	if !found {
		failWith(c, http.StatusBadRequest, "invalid contract id")
		return
	}
	q := c.Query("q")
	if q == "" {
		failWith(c, http.StatusBadRequest, "missing query parameter q")
		return
	}
	_, size, limit, _ := pagination(c)

	hits, err := s.Orchestrator.FTIndex.SearchContents(c.Request.Context(), q, []int64{id}, limit)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]searchHitResponse, 0, len(hits))
	for _, h := range hits {
		out = append(out, searchHitResponse{ChunkID: h.ChunkID, Highlight: h.Highlight, Score: h.Score})
	}
	ok(c, "合同内搜索成功", gin.H{"size": size, "results": out})
}

func (s *Server) esStatus(c *gin.Context) {
	if err := s.Orchestrator.FTIndex.Health(c.Request.Context()); err != nil {
		ok(c, "elasticsearch不可用", gin.H{"healthy": false})
		return
	}
	ok(c, "elasticsearch状态正常", gin.H{"healthy": true})
}

func (s *Server) esInit(c *gin.Context) {
	if err := s.Orchestrator.FTIndex.EnsureIndices(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	ok(c, "索引初始化成功", nil)
}

func (s *Server) esSearch(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		failWith(c, http.StatusBadRequest, "missing query parameter q")
		return
	}
	_, _, limit, _ := pagination(c)
	hits, err := s.Orchestrator.FTIndex.SearchContents(c.Request.Context(), q, nil, limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "搜索成功", gin.H{"results": hits})
}

// esSyncOne re-indexes one contract's header and chunks, the manual
// counterpart to the pipeline's FT_SYNC stage.
func (s *Server) esSyncOne(c *gin.Context) {
	id, found := pathInt64(c, "id")
	if !found {
		failWith(c, http.StatusBadRequest, "invalid contract id")
		return
	}
	contract, err := s.Store.Contracts.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.syncContractToFTIndex(c.Request.Context(), contract); err != nil {
		fail(c, err)
		return
	}
	ok(c, "同步成功", nil)
}

// esSyncAll re-indexes every contract in the background.
func (s *Server) esSyncAll(c *gin.Context) {
	go func() {
		// The request context ends when the handler returns, so the
		// background sync runs on its own context.
		ctx := context.Background()
		contracts, err := s.Store.Contracts.List(ctx, 10000, 0)
		if err != nil {
			s.Logger.Error("sync-all: list contracts failed", zapErr(err))
			return
		}
		for _, contract := range contracts {
			if err := s.syncContractToFTIndex(ctx, contract); err != nil {
				s.Logger.Warn("sync-all: contract sync failed", zapField("contract_id", contract.ID), zapErr(err))
			}
		}
	}()
	ok(c, "全量同步已在后台开始", nil)
}

func (s *Server) esSyncStatus(c *gin.Context) {
	contracts, err := s.Store.Contracts.List(c.Request.Context(), 10000, 0)
	if err != nil {
		fail(c, err)
		return
	}
	synced := 0
	for _, contract := range contracts {
		if contract.ElasticsearchSyncStatus == model.StatusCompleted {
			synced++
		}
	}
	ok(c, "获取同步状态成功", gin.H{"total": len(contracts), "synced": synced})
}

func (s *Server) syncContractToFTIndex(ctx context.Context, contract model.Contract) error {
	if err := s.Orchestrator.FTIndex.EnsureIndices(ctx); err != nil {
		return err
	}

	contractText := strings.TrimSpace(contract.ContractName + " " + contract.Summary)
	keywords := strings.Join(s.Orchestrator.Chunker.Keywords.Extract(contractText, 10), " ")
	if err := s.Store.Contracts.SetSummaryAndKeywords(ctx, contract.ID, contract.Summary, keywords); err != nil {
		return err
	}
	contract.Keywords = keywords

	if err := s.Orchestrator.FTIndex.IndexContract(ctx, ftindex.ContractDoc{
		ContractID:     contract.ID,
		ContractNumber: contract.ContractNumber,
		ContractName:   contract.ContractName,
		ContractType:   contract.ContractType,
		Keywords:       contract.Keywords,
		Summary:        contract.Summary,
		FileName:       contract.OriginalFilename,
		UploadTime:     contract.UploadTime.Format(time.RFC3339),
		CreatedAt:      contract.CreatedAt.Format(time.RFC3339),
	}); err != nil {
		return err
	}

	chunks, err := s.Store.Chunks.ListByContract(ctx, contract.ID)
	if err != nil {
		return err
	}
	for _, ch := range chunks {
		if err := s.Orchestrator.FTIndex.IndexChunk(ctx, ftindex.ContentDoc{
			ChunkID:        ch.ID,
			ContractID:     contract.ID,
			ContractNumber: contract.ContractNumber,
			ContractName:   contract.ContractName,
			FileName:       contract.OriginalFilename,
			FileFormat:     contract.FileFormat,
			UploadTime:     contract.UploadTime.Format(time.RFC3339),
			ContractType:   contract.ContractType,
			ChunkIndex:     ch.ChunkIndex,
			ContentText:    ch.ContentText,
			ChunkType:      string(ch.ChunkType),
			ChunkSize:      ch.ChunkSize,
			CreatedAt:      ch.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	return s.Store.Contracts.UpdateStage(ctx, contract.ID, store.StageElasticsearch, model.StatusCompleted)
}
