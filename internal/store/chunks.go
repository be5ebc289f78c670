package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"contractarchive/internal/errs"
	"contractarchive/internal/model"
)

// ChunkRepo persists and queries Chunk rows.
type ChunkRepo struct {
	pool *pgxpool.Pool
}

// BulkInsert inserts every chunk for one contract inside a single
// transaction, ascending by ChunkIndex, and fills in each chunk's
// assigned ID.
func (r *ChunkRepo) BulkInsert(ctx context.Context, contractID int64, chunks []model.Chunk) ([]model.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "begin chunk insert transaction", err)
	}
	defer tx.Rollback(ctx)

	out := make([]model.Chunk, len(chunks))
	for i, c := range chunks {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO chunks (
				contract_id, chunk_index, content_text, chunk_type, chunk_size,
				start_char, end_char, has_chinese, keywords
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, contractID, c.ChunkIndex, c.ContentText, string(c.ChunkType), c.ChunkSize,
			c.StartChar, c.EndChar, c.HasChinese, c.Keywords).Scan(&id)
		if err != nil {
			return nil, errs.Wrap(errs.Internal, "insert chunk", err)
		}
		c.ID = id
		c.ContractID = contractID
		out[i] = c
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errs.Wrap(errs.Internal, "commit chunk insert transaction", err)
	}
	return out, nil
}

// ListByContract returns every chunk for a contract, ascending by
// ChunkIndex.
func (r *ChunkRepo) ListByContract(ctx context.Context, contractID int64) ([]model.Chunk, error) {
	rows, err := r.pool.Query(ctx, chunkSelectColumns+` WHERE contract_id = $1 ORDER BY chunk_index ASC`, contractID)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list chunks", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ListByIDs loads chunks for a batch of chunk ids in one round trip,
// used by the query pipeline's semantic-retrieve step to hydrate
// vector-search hits. Only chunk columns are loaded; the parent
// contract's name and number are not included.
func (r *ChunkRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, chunkSelectColumns+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list chunks by id", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ListByContractPaged returns one page of chunks for a contract,
// optionally restricted to chunkType, ascending by ChunkIndex, plus the
// total row count matching the filter.
func (r *ChunkRepo) ListByContractPaged(ctx context.Context, contractID int64, chunkType string, limit, offset int) ([]model.Chunk, int, error) {
	where := `WHERE contract_id = $1`
	args := []any{contractID}
	if chunkType != "" {
		where += ` AND chunk_type = $2`
		args = append(args, chunkType)
	}

	var total int
	countSQL := `SELECT count(*) FROM chunks ` + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, errs.Wrap(errs.Internal, "count chunks", err)
	}

	args = append(args, limit, offset)
	sql := chunkSelectColumns + ` ` + where + ` ORDER BY chunk_index ASC LIMIT $` +
		strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, errs.Wrap(errs.Internal, "list chunks page", err)
	}
	defer rows.Close()
	out, err := scanChunks(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// DeleteByContract removes all chunks for a contract (used by
// Reprocess before re-chunking).
func (r *ChunkRepo) DeleteByContract(ctx context.Context, contractID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM chunks WHERE contract_id = $1`, contractID); err != nil {
		return errs.Wrap(errs.Internal, "delete chunks", err)
	}
	return nil
}

// MarkVectorized records a chunk's assigned vector id once embedding
// succeeds.
func (r *ChunkRepo) MarkVectorized(ctx context.Context, chunkID int64, vectorID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE chunks SET vector_id = $1, vector_status = 'completed' WHERE id = $2
	`, vectorID, chunkID)
	if err != nil {
		return errs.Wrap(errs.Internal, "mark chunk vectorized", err)
	}
	return nil
}

const chunkSelectColumns = `
	SELECT id, contract_id, chunk_index, content_text, chunk_type, chunk_size,
		start_char, end_char, has_chinese, keywords, vector_id, vector_status, created_at
	FROM chunks`

func scanChunks(rows pgx.Rows) ([]model.Chunk, error) {
	var out []model.Chunk
	for rows.Next() {
		var c model.Chunk
		var vectorID *string
		if err := rows.Scan(
			&c.ID, &c.ContractID, &c.ChunkIndex, &c.ContentText, &c.ChunkType, &c.ChunkSize,
			&c.StartChar, &c.EndChar, &c.HasChinese, &c.Keywords, &vectorID, &c.VectorStatus, &c.CreatedAt,
		); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, errs.Wrap(errs.Internal, "scan chunk row", err)
		}
		c.VectorID = derefString(vectorID)
		out = append(out, c)
	}
	return out, rows.Err()
}
