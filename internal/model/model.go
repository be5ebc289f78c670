// Package model defines the data types persisted and exchanged across
// the contract archive pipeline.
package model

import "time"

// StageStatus tracks one stage of a Contract's processing pipeline.
type StageStatus string

const (
	StatusPending    StageStatus = "pending"
	StatusProcessing StageStatus = "processing"
	StatusCompleted  StageStatus = "completed"
	StatusFailed     StageStatus = "failed"
)

// Contract is one uploaded document.
type Contract struct {
	ID             int64  `json:"id"`
	ContractNumber string `json:"contract_number"`
	ContractName   string `json:"contract_name"`
	ContractType   string `json:"contract_type,omitempty"`

	OriginalFilename string `json:"file_name"`
	StoredBlobPath   string `json:"-"`
	FileFormat       string `json:"file_format,omitempty"`
	FileSizeBytes    int64  `json:"file_size"`

	HTMLContentPath string `json:"html_content_path,omitempty"`
	TextContentPath string `json:"text_content_path,omitempty"`

	OCRStatus               StageStatus `json:"ocr_status"`
	ContentStatus           StageStatus `json:"content_status"`
	VectorStatus            StageStatus `json:"vector_status"`
	ElasticsearchSyncStatus StageStatus `json:"elasticsearch_sync_status"`

	Summary  string `json:"summary,omitempty"`
	Keywords string `json:"keywords,omitempty"`

	UploadTime time.Time `json:"upload_time"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ChunkType classifies the structural origin of a Chunk.
type ChunkType string

const (
	ChunkParagraph ChunkType = "paragraph"
	ChunkTable     ChunkType = "table"
	ChunkList      ChunkType = "list"
	ChunkTitle     ChunkType = "title"
)

// Chunk is one contiguous text segment of a Contract.
type Chunk struct {
	ID         int64 `json:"id"`
	ContractID int64 `json:"contract_id"`

	ChunkIndex  int       `json:"chunk_index"`
	ContentText string    `json:"content_text"`
	ChunkType   ChunkType `json:"chunk_type"`
	ChunkSize   int       `json:"chunk_size"`

	StartChar int `json:"start_char"`
	EndChar   int `json:"end_char"`

	HasChinese bool     `json:"has_chinese"`
	Keywords   []string `json:"keywords,omitempty"`

	VectorID     string      `json:"vector_id,omitempty"`
	VectorStatus StageStatus `json:"vector_status"`

	CreatedAt time.Time `json:"created_at"`
}

// VectorRef is the payload a vector-index slot resolves to.
type VectorRef struct {
	ContractID int64 `json:"contract_id"`
	ChunkID    int64 `json:"chunk_id"`
	ChunkIndex int   `json:"chunk_index"`
}

// SearchMethod records which retrieval paths contributed to a QA turn.
type SearchMethod string

const (
	SearchKeyword  SearchMethod = "keyword"
	SearchSemantic SearchMethod = "semantic"
	SearchHybrid   SearchMethod = "hybrid"
	SearchNone     SearchMethod = ""
)

// Feedback is the user's judgement on a QA turn's answer.
type Feedback string

const (
	FeedbackHelpful    Feedback = "helpful"
	FeedbackNotHelpful Feedback = "not_helpful"
)

// QASession is the header row for a sequence of QASessionTurns, carrying
// the session-wide title rather than duplicating it onto every turn.
type QASession struct {
	SessionID    string    `json:"session_id"`
	SessionTitle string    `json:"session_title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// QASessionTurn is one question/answer exchange within a QASession.
type QASessionTurn struct {
	ID              int64         `json:"id"`
	SessionID       string        `json:"session_id"`
	MessageOrder    int           `json:"message_order"`
	Question        string        `json:"question"`
	Answer          string        `json:"answer"`
	SourceContracts []int64       `json:"source_contracts"`
	SourceChunks    []int64       `json:"source_chunks"`
	PipelineTrace   PipelineTrace `json:"pipeline_trace"`
	SearchMethod    SearchMethod  `json:"search_method"`
	ResponseTimeMS  int64         `json:"response_time_ms"`
	UserFeedback    *Feedback     `json:"user_feedback,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// PipelineTrace is the structured, JSON-serializable record of every
// stage of one hybrid query pipeline run.
type PipelineTrace struct {
	Lexical  StageTrace     `json:"lexical"`
	Semantic StageTrace     `json:"semantic"`
	Rerank   StageTrace     `json:"rerank"`
	LLM      LLMTrace       `json:"llm"`
	TotalMS  int64          `json:"total_ms"`
}

// StageTrace captures counts/scores/timing for one retrieval stage.
type StageTrace struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	DurationMS int64   `json:"duration_ms"`
	TopScore   float64 `json:"top_score,omitempty"`
}

// LLMTrace captures the chat-completion stage's outcome and token usage.
type LLMTrace struct {
	Status       string `json:"status"`
	DurationMS   int64  `json:"duration_ms"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// SearchLogEntry records one full-text or semantic query for later
// analysis, the persistence-layer counterpart of PipelineTrace.
type SearchLogEntry struct {
	ID         int64
	Query      string
	Method     SearchMethod
	ResultCount int
	DurationMS int64
	CreatedAt  time.Time
}
