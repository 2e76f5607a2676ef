package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/common/database"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// PostgresQARepository 问答Repository实现
type PostgresQARepository struct {
	db *sql.DB
}

func NewPostgresQARepository(db *sql.DB) *PostgresQARepository {
	return &PostgresQARepository{db: db}
}

var _ QARepository = (*PostgresQARepository)(nil)

const (
	qaSessionColumns = `uid::text, user_uid::text, title, transcription, created_at, updated_at`
	qaColumns        = `uid::text, qa_session_uid::text, question, answer, created_at, updated_at`
)

func scanSession(row interface{ Scan(...any) error }) (*domain.QASession, error) {
	var s domain.QASession
	if err := row.Scan(&s.UID, &s.UserUID, &s.Title, &s.Transcription, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanQA(row interface{ Scan(...any) error }) (*domain.QuestionAnswer, error) {
	var qa domain.QuestionAnswer
	if err := row.Scan(&qa.UID, &qa.QASessionUID, &qa.Question, &qa.Answer, &qa.CreatedAt, &qa.UpdatedAt); err != nil {
		return nil, err
	}
	return &qa, nil
}

func (r *PostgresQARepository) GetSession(ctx context.Context, uid string) (*domain.QASession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+qaSessionColumns+` FROM qa_sessions WHERE uid = $1`, uid))
	if err != nil {
		return nil, notFound(err, "qa session")
	}
	return s, nil
}

func (r *PostgresQARepository) ListSessions(ctx context.Context, userUID string) ([]*domain.QASession, int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+qaSessionColumns+` FROM qa_sessions WHERE user_uid = $1 ORDER BY created_at DESC`, userUID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list qa sessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.QASession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan qa session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, len(out), nil
}

func (r *PostgresQARepository) CreateSession(ctx context.Context, s *domain.QASession) error {
	if s.UID == "" {
		s.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO qa_sessions (uid, user_uid, title, transcription, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.UID, s.UserUID, s.Title, s.Transcription, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create qa session: %w", err)
	}
	return nil
}

func (r *PostgresQARepository) DeleteSession(ctx context.Context, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM qa_sessions WHERE uid = $1`, uid)
	if err != nil {
		return execErr(err, "failed to delete qa session")
	}
	return checkAffected(res, "qa session")
}

func (r *PostgresQARepository) SetSessionTranscription(ctx context.Context, uid string, text *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE qa_sessions SET transcription = $2, updated_at = $3 WHERE uid = $1`, uid, text, time.Now().UTC())
	if err != nil {
		return execErr(err, "failed to set qa session transcription")
	}
	return checkAffected(res, "qa session")
}

func (r *PostgresQARepository) ListQuestionAnswers(ctx context.Context, sessionUID string) ([]*domain.QuestionAnswer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+qaColumns+` FROM question_answers WHERE qa_session_uid = $1 ORDER BY created_at ASC`, sessionUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list question answers: %w", err)
	}
	defer rows.Close()

	var out []*domain.QuestionAnswer
	for rows.Next() {
		qa, err := scanQA(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question answer: %w", err)
		}
		out = append(out, qa)
	}
	return out, rows.Err()
}

func (r *PostgresQARepository) GetQuestionAnswer(ctx context.Context, uid string) (*domain.QuestionAnswer, error) {
	qa, err := scanQA(r.db.QueryRowContext(ctx, `SELECT `+qaColumns+` FROM question_answers WHERE uid = $1`, uid))
	if err != nil {
		return nil, notFound(err, "question answer")
	}
	return qa, nil
}

func insertQA(ctx context.Context, db DBTX, qa *domain.QuestionAnswer) error {
	if qa.UID == "" {
		qa.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	qa.CreatedAt, qa.UpdatedAt = now, now
	_, err := db.ExecContext(ctx,
		`INSERT INTO question_answers (uid, qa_session_uid, question, answer, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		qa.UID, qa.QASessionUID, qa.Question, qa.Answer, qa.CreatedAt, qa.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create question answer: %w", err)
	}
	return nil
}

func (r *PostgresQARepository) CreateQuestionAnswer(ctx context.Context, qa *domain.QuestionAnswer) error {
	return insertQA(ctx, r.db, qa)
}

func (r *PostgresQARepository) UpdateQuestionAnswer(ctx context.Context, qa *domain.QuestionAnswer) error {
	qa.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE question_answers SET question = $2, answer = $3, updated_at = $4 WHERE uid = $1`,
		qa.UID, qa.Question, qa.Answer, qa.UpdatedAt)
	if err != nil {
		return execErr(err, "failed to update question answer")
	}
	return checkAffected(res, "question answer")
}

func (r *PostgresQARepository) DeleteQuestionAnswer(ctx context.Context, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM question_answers WHERE uid = $1`, uid)
	if err != nil {
		return execErr(err, "failed to delete question answer")
	}
	return checkAffected(res, "question answer")
}

func (r *PostgresQARepository) ReplaceQuestionAnswers(ctx context.Context, sessionUID string, qas []*domain.QuestionAnswer) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM question_answers WHERE qa_session_uid = $1`, sessionUID); err != nil {
			return fmt.Errorf("failed to clear question answers: %w", err)
		}
		for _, qa := range qas {
			qa.QASessionUID = sessionUID
			if err := insertQA(ctx, tx, qa); err != nil {
				return err
			}
		}
		return nil
	})
}
