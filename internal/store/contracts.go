package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"contractarchive/internal/errs"
	"contractarchive/internal/model"
)

// ContractRepo persists and queries Contract rows.
type ContractRepo struct {
	pool *pgxpool.Pool
}

// Create inserts a new contract row and returns its assigned id.
func (r *ContractRepo) Create(ctx context.Context, c model.Contract) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contracts (
			contract_number, contract_name, contract_type, original_filename,
			stored_blob_path, file_format, file_size_bytes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, c.ContractNumber, c.ContractName, c.ContractType, c.OriginalFilename,
		c.StoredBlobPath, c.FileFormat, c.FileSizeBytes).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errs.Wrap(errs.Conflict, "contract number already exists", err)
		}
		return 0, errs.Wrap(errs.Internal, "insert contract", err)
	}
	return id, nil
}

// GetByID loads one contract by id.
func (r *ContractRepo) GetByID(ctx context.Context, id int64) (model.Contract, error) {
	row := r.pool.QueryRow(ctx, contractSelectColumns+` WHERE id = $1`, id)
	return scanContract(row)
}

// GetByNumber loads one contract by its business contract number.
func (r *ContractRepo) GetByNumber(ctx context.Context, number string) (model.Contract, error) {
	row := r.pool.QueryRow(ctx, contractSelectColumns+` WHERE contract_number = $1`, number)
	return scanContract(row)
}

// List returns contracts ordered newest-first, paginated by
// limit/offset.
func (r *ContractRepo) List(ctx context.Context, limit, offset int) ([]model.Contract, error) {
	rows, err := r.pool.Query(ctx, contractSelectColumns+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list contracts", err)
	}
	defer rows.Close()

	var out []model.Contract
	for rows.Next() {
		c, err := scanContractRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Stage names one pipeline stage status column of the contracts table.
type Stage string

const (
	StageOCR            Stage = "ocr_status"
	StageContent        Stage = "content_status"
	StageVector         Stage = "vector_status"
	StageElasticsearch  Stage = "elasticsearch_sync_status"
)

// UpdateStage sets one pipeline stage column, matching spec.md §4.8's
// rule of persisting *_RUNNING before heavy work begins.
func (r *ContractRepo) UpdateStage(ctx context.Context, id int64, stage Stage, status model.StageStatus) error {
	sql := `UPDATE contracts SET ` + string(stage) + ` = $1, updated_at = now() WHERE id = $2`
	tag, err := r.pool.Exec(ctx, sql, string(status), id)
	if err != nil {
		return errs.Wrap(errs.Internal, "update contract stage", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.New(errs.NotFound, "contract not found")
	}
	return nil
}

// SetHTMLAndTextPaths records the OCR stage's persisted artifacts.
func (r *ContractRepo) SetHTMLAndTextPaths(ctx context.Context, id int64, htmlPath, textPath string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE contracts SET html_content_path = $1, text_content_path = $2, updated_at = now()
		WHERE id = $3
	`, htmlPath, textPath, id)
	if err != nil {
		return errs.Wrap(errs.Internal, "set contract content paths", err)
	}
	return nil
}

// SetSummaryAndKeywords records the contract's summary and its keyword
// string (derived by the full-text sync from the name and summary).
func (r *ContractRepo) SetSummaryAndKeywords(ctx context.Context, id int64, summary, keywords string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE contracts SET summary = $1, keywords = $2, updated_at = now()
		WHERE id = $3
	`, summary, keywords, id)
	if err != nil {
		return errs.Wrap(errs.Internal, "set contract summary", err)
	}
	return nil
}

// Delete removes a contract and cascades to its chunks.
func (r *ContractRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return errs.Wrap(errs.Internal, "delete contract", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.New(errs.NotFound, "contract not found")
	}
	return nil
}

// Count returns the total number of contract rows, for list pagination.
func (r *ContractRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM contracts`).Scan(&n); err != nil {
		return 0, errs.Wrap(errs.Internal, "count contracts", err)
	}
	return n, nil
}

// ListPending returns contracts whose stage is still pending/processing
// for the given stage column, used by the orchestrator's resume sweep.
func (r *ContractRepo) ListPending(ctx context.Context, stage Stage) ([]model.Contract, error) {
	sql := contractSelectColumns + ` WHERE ` + string(stage) + ` IN ('pending', 'processing') ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list pending contracts", err)
	}
	defer rows.Close()

	var out []model.Contract
	for rows.Next() {
		c, err := scanContractRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const contractSelectColumns = `
	SELECT id, contract_number, contract_name, contract_type, original_filename,
		stored_blob_path, file_format, file_size_bytes, html_content_path, text_content_path,
		ocr_status, content_status, vector_status, elasticsearch_sync_status,
		summary, keywords, upload_time, created_at, updated_at
	FROM contracts`

type scannable interface {
	Scan(dest ...any) error
}

func scanContract(row pgx.Row) (model.Contract, error) {
	return scanContractRow(row)
}

func scanContractRow(row scannable) (model.Contract, error) {
	var c model.Contract
	var contractType, fileFormat, htmlPath, textPath, summary, keywords *string
	err := row.Scan(
		&c.ID, &c.ContractNumber, &c.ContractName, &contractType, &c.OriginalFilename,
		&c.StoredBlobPath, &fileFormat, &c.FileSizeBytes, &htmlPath, &textPath,
		&c.OCRStatus, &c.ContentStatus, &c.VectorStatus, &c.ElasticsearchSyncStatus,
		&summary, &keywords, &c.UploadTime, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Contract{}, errs.Wrap(errs.NotFound, "contract not found", err)
		}
		return model.Contract{}, errs.Wrap(errs.Internal, "scan contract row", err)
	}
	c.ContractType = derefString(contractType)
	c.FileFormat = derefString(fileFormat)
	c.HTMLContentPath = derefString(htmlPath)
	c.TextContentPath = derefString(textPath)
	c.Summary = derefString(summary)
	c.Keywords = derefString(keywords)
	return c, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isUniqueViolation(err error) bool {
	return containsCode(err, "23505")
}

func containsCode(err error, code string) bool {
	type sqlStateGetter interface{ SQLState() string }
	var g sqlStateGetter
	if errors.As(err, &g) {
		return g.SQLState() == code
	}
	return false
}
