package store

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"contractarchive/internal/errs"
	"contractarchive/internal/model"
)

// QARepo persists QASession headers and their QASessionTurn rows, per
// spec.md §9's redesign note splitting the session title out of the
// per-turn row.
type QARepo struct {
	pool *pgxpool.Pool
}

// EnsureSession inserts a session header row if it does not already
// exist, and otherwise advances its updated_at to now.
func (r *QARepo) EnsureSession(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO qa_sessions (session_id) VALUES ($1)
		ON CONFLICT (session_id) DO UPDATE SET updated_at = now()
	`, sessionID)
	if err != nil {
		return errs.Wrap(errs.Internal, "ensure qa session", err)
	}
	return nil
}

// NextMessageOrder returns count(turns for sessionID) + 1, per spec.md
// §4.9 step 1.
func (r *QARepo) NextMessageOrder(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM qa_session_turns WHERE session_id = $1`, sessionID).Scan(&count)
	if err != nil {
		return 0, errs.Wrap(errs.Internal, "count session turns", err)
	}
	return count + 1, nil
}

// InsertTurn records one QA exchange.
func (r *QARepo) InsertTurn(ctx context.Context, turn model.QASessionTurn) (int64, error) {
	traceJSON, err := sonic.Marshal(turn.PipelineTrace)
	if err != nil {
		return 0, errs.Wrap(errs.Internal, "marshal pipeline trace", err)
	}

	var feedback *string
	if turn.UserFeedback != nil {
		s := string(*turn.UserFeedback)
		feedback = &s
	}

	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO qa_session_turns (
			session_id, message_order, question, answer, source_contracts,
			source_chunks, pipeline_trace, search_method, response_time_ms, user_feedback
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, turn.SessionID, turn.MessageOrder, turn.Question, turn.Answer, turn.SourceContracts,
		turn.SourceChunks, traceJSON, string(turn.SearchMethod), turn.ResponseTimeMS, feedback).Scan(&id)
	if err != nil {
		return 0, errs.Wrap(errs.Internal, "insert qa session turn", err)
	}
	return id, nil
}

// SetSessionTitle backfills session_title once message_order=1's
// question is known, per spec.md §4.9 step 9.
func (r *QARepo) SetSessionTitle(ctx context.Context, sessionID, title string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE qa_sessions SET session_title = $1, updated_at = now() WHERE session_id = $2
	`, title, sessionID)
	if err != nil {
		return errs.Wrap(errs.Internal, "set session title", err)
	}
	return nil
}

// ListTurns returns every turn for a session, ascending by
// message_order (callers must sort by this field, not created_at, per
// spec.md §5).
func (r *QARepo) ListTurns(ctx context.Context, sessionID string) ([]model.QASessionTurn, error) {
	rows, err := r.pool.Query(ctx, turnSelectColumns+` WHERE session_id = $1 ORDER BY message_order ASC`, sessionID)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list session turns", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

// GetSession loads one session header.
func (r *QARepo) GetSession(ctx context.Context, sessionID string) (model.QASession, error) {
	var s model.QASession
	var title *string
	err := r.pool.QueryRow(ctx, `
		SELECT session_id, session_title, created_at, updated_at FROM qa_sessions WHERE session_id = $1
	`, sessionID).Scan(&s.SessionID, &title, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.QASession{}, errs.Wrap(errs.NotFound, "qa session not found", err)
		}
		return model.QASession{}, errs.Wrap(errs.Internal, "get qa session", err)
	}
	s.SessionTitle = derefString(title)
	return s, nil
}

// ListSessions returns one page of session headers, most-recently
// updated first (a session's updated_at advances on every new turn, so
// this also orders by most recent turn).
func (r *QARepo) ListSessions(ctx context.Context, limit, offset int) ([]model.QASession, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM qa_sessions`).Scan(&total); err != nil {
		return nil, 0, errs.Wrap(errs.Internal, "count qa sessions", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT session_id, session_title, created_at, updated_at
		FROM qa_sessions ORDER BY updated_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, errs.Wrap(errs.Internal, "list qa sessions", err)
	}
	defer rows.Close()

	var out []model.QASession
	for rows.Next() {
		var s model.QASession
		var title *string
		if err := rows.Scan(&s.SessionID, &title, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, errs.Wrap(errs.Internal, "scan qa session row", err)
		}
		s.SessionTitle = derefString(title)
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// DeleteSession removes a session header and cascades to its turns.
func (r *QARepo) DeleteSession(ctx context.Context, sessionID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM qa_sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return errs.Wrap(errs.Internal, "delete qa session", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.New(errs.NotFound, "qa session not found")
	}
	return nil
}

// SetFeedback records a user's judgement on one turn's answer.
func (r *QARepo) SetFeedback(ctx context.Context, turnID int64, feedback model.Feedback) error {
	tag, err := r.pool.Exec(ctx, `UPDATE qa_session_turns SET user_feedback = $1 WHERE id = $2`, string(feedback), turnID)
	if err != nil {
		return errs.Wrap(errs.Internal, "set turn feedback", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.New(errs.NotFound, "qa session turn not found")
	}
	return nil
}

const turnSelectColumns = `
	SELECT id, session_id, message_order, question, answer, source_contracts,
		source_chunks, pipeline_trace, search_method, response_time_ms, user_feedback, created_at
	FROM qa_session_turns`

func scanTurns(rows pgx.Rows) ([]model.QASessionTurn, error) {
	var out []model.QASessionTurn
	for rows.Next() {
		var t model.QASessionTurn
		var traceJSON []byte
		var feedback *string
		if err := rows.Scan(
			&t.ID, &t.SessionID, &t.MessageOrder, &t.Question, &t.Answer, &t.SourceContracts,
			&t.SourceChunks, &traceJSON, &t.SearchMethod, &t.ResponseTimeMS, &feedback, &t.CreatedAt,
		); err != nil {
			return nil, errs.Wrap(errs.Internal, "scan qa session turn", err)
		}
		if len(traceJSON) > 0 {
			if err := sonic.Unmarshal(traceJSON, &t.PipelineTrace); err != nil {
				return nil, errs.Wrap(errs.Internal, "unmarshal pipeline trace", err)
			}
		}
		if feedback != nil {
			f := model.Feedback(*feedback)
			t.UserFeedback = &f
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
