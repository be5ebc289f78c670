// Package store implements the pgx-backed persistence layer (C10),
// grounded on document-chunker/main.go's pgxpool setup and raw-SQL
// schema/RETURNING idiom, with the exact column set taken from
// original_source/.../models.py.
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"contractarchive/internal/errs"
)

const schema = `
CREATE TABLE IF NOT EXISTS contracts (
	id BIGSERIAL PRIMARY KEY,
	contract_number TEXT NOT NULL UNIQUE,
	contract_name TEXT NOT NULL,
	contract_type TEXT,
	original_filename TEXT NOT NULL,
	stored_blob_path TEXT NOT NULL,
	file_format TEXT,
	file_size_bytes BIGINT NOT NULL DEFAULT 0,
	html_content_path TEXT,
	text_content_path TEXT,
	ocr_status TEXT NOT NULL DEFAULT 'pending',
	content_status TEXT NOT NULL DEFAULT 'pending',
	vector_status TEXT NOT NULL DEFAULT 'pending',
	elasticsearch_sync_status TEXT NOT NULL DEFAULT 'pending',
	summary TEXT,
	keywords TEXT,
	upload_time TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_contracts_created_at ON contracts(created_at DESC);

CREATE TABLE IF NOT EXISTS chunks (
	id BIGSERIAL PRIMARY KEY,
	contract_id BIGINT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
	chunk_index INTEGER NOT NULL,
	content_text TEXT NOT NULL,
	chunk_type TEXT NOT NULL DEFAULT 'paragraph',
	chunk_size INTEGER NOT NULL DEFAULT 0,
	start_char INTEGER NOT NULL DEFAULT 0,
	end_char INTEGER NOT NULL DEFAULT 0,
	has_chinese BOOLEAN NOT NULL DEFAULT false,
	keywords TEXT[] NOT NULL DEFAULT '{}',
	vector_id TEXT,
	vector_status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(contract_id, chunk_index)
);
CREATE INDEX IF NOT EXISTS idx_chunks_contract_index ON chunks(contract_id, chunk_index);

CREATE TABLE IF NOT EXISTS qa_sessions (
	session_id TEXT PRIMARY KEY,
	session_title TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS qa_session_turns (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES qa_sessions(session_id) ON DELETE CASCADE,
	message_order INTEGER NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	source_contracts BIGINT[] NOT NULL DEFAULT '{}',
	source_chunks BIGINT[] NOT NULL DEFAULT '{}',
	pipeline_trace JSONB,
	search_method TEXT NOT NULL DEFAULT '',
	response_time_ms BIGINT NOT NULL DEFAULT 0,
	user_feedback TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(session_id, message_order)
);
CREATE INDEX IF NOT EXISTS idx_qa_turns_session_order ON qa_session_turns(session_id, message_order);
CREATE INDEX IF NOT EXISTS idx_qa_turns_created_at ON qa_session_turns(created_at DESC);

CREATE TABLE IF NOT EXISTS search_log (
	id BIGSERIAL PRIMARY KEY,
	query TEXT NOT NULL,
	method TEXT NOT NULL DEFAULT '',
	result_count INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_search_log_created_at ON search_log(created_at DESC);
`

// Store bundles every repository over a single pgx connection pool.
type Store struct {
	pool *pgxpool.Pool

	Contracts *ContractRepo
	Chunks    *ChunkRepo
	QA        *QARepo
	SearchLog *SearchLogRepo
}

// Open connects to dsn and runs the schema migration.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "connect to postgres", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errs.Wrap(errs.Internal, "apply schema", err)
	}

	return &Store{
		pool:      pool,
		Contracts: &ContractRepo{pool: pool},
		Chunks:    &ChunkRepo{pool: pool},
		QA:        &QARepo{pool: pool},
		SearchLog: &SearchLogRepo{pool: pool},
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies connectivity for health checks.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return errs.Wrap(errs.Unavailable, "ping postgres", err)
	}
	return nil
}
