package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"contractarchive/internal/errs"
	"contractarchive/internal/model"
)

// SearchLogRepo records one row per full-text or semantic query, the
// supplemented analytics feature noted in DESIGN.md.
type SearchLogRepo struct {
	pool *pgxpool.Pool
}

// Insert records one search invocation.
func (r *SearchLogRepo) Insert(ctx context.Context, entry model.SearchLogEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO search_log (query, method, result_count, duration_ms)
		VALUES ($1, $2, $3, $4)
	`, entry.Query, string(entry.Method), entry.ResultCount, entry.DurationMS)
	if err != nil {
		return errs.Wrap(errs.Internal, "insert search log entry", err)
	}
	return nil
}

// Recent returns the most recent search log entries, newest first.
func (r *SearchLogRepo) Recent(ctx context.Context, limit int) ([]model.SearchLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, query, method, result_count, duration_ms, created_at
		FROM search_log ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list search log", err)
	}
	defer rows.Close()

	var out []model.SearchLogEntry
	for rows.Next() {
		var e model.SearchLogEntry
		if err := rows.Scan(&e.ID, &e.Query, &e.Method, &e.ResultCount, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, errs.Wrap(errs.Internal, "scan search log row", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
