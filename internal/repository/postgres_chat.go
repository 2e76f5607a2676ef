package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// PostgresChatRepository 聊天Repository实现
type PostgresChatRepository struct {
	db *sql.DB
}

func NewPostgresChatRepository(db *sql.DB) *PostgresChatRepository {
	return &PostgresChatRepository{db: db}
}

var _ ChatRepository = (*PostgresChatRepository)(nil)

const threadColumns = `uid::text, title, created_by_uid::text, created_at, updated_at`

func scanThread(row interface{ Scan(...any) error }) (*domain.Thread, error) {
	var t domain.Thread
	if err := row.Scan(&t.UID, &t.Title, &t.CreatedByUID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresChatRepository) GetThread(ctx context.Context, uid string) (*domain.Thread, error) {
	t, err := scanThread(r.db.QueryRowContext(ctx, `SELECT `+threadColumns+` FROM threads WHERE uid = $1`, uid))
	if err != nil {
		return nil, notFound(err, "thread")
	}
	return t, nil
}

func (r *PostgresChatRepository) ListThreads(ctx context.Context, userUID string) ([]*domain.Thread, int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+threadColumns+` FROM threads WHERE created_by_uid = $1 ORDER BY updated_at DESC`, userUID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var out []*domain.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan thread: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, len(out), nil
}

func (r *PostgresChatRepository) CreateThread(ctx context.Context, t *domain.Thread) error {
	if t.UID == "" {
		t.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO threads (uid, title, created_by_uid, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		t.UID, t.Title, t.CreatedByUID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}
	return nil
}

func (r *PostgresChatRepository) UpdateThread(ctx context.Context, t *domain.Thread) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE threads SET title = $2, updated_at = $3 WHERE uid = $1`,
		t.UID, t.Title, t.UpdatedAt)
	if err != nil {
		return execErr(err, "failed to update thread")
	}
	return checkAffected(res, "thread")
}

// DeleteThread relies on ON DELETE CASCADE for messages.
func (r *PostgresChatRepository) DeleteThread(ctx context.Context, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM threads WHERE uid = $1`, uid)
	if err != nil {
		return execErr(err, "failed to delete thread")
	}
	return checkAffected(res, "thread")
}

func (r *PostgresChatRepository) ListMessages(ctx context.Context, threadUID string) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT uid::text, thread_uid::text, role, content, created_at FROM messages
		 WHERE thread_uid = $1 ORDER BY created_at ASC`, threadUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.UID, &m.ThreadUID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *PostgresChatRepository) CreateMessage(ctx context.Context, m *domain.Message) error {
	if m.UID == "" {
		m.UID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (uid, thread_uid, role, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.UID, m.ThreadUID, string(m.Role), m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}
