package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// PostgresRecordRepository 观察记录Repository实现（按 recordTable 参数化）
type PostgresRecordRepository[T domain.Record] struct {
	db    *sql.DB
	table recordTable[T]

	selectSQL string
	insertSQL string
	updateSQL string
}

const recordBaseColumns = `uid::text, tenant_uid::text, resident_uid::text, caregiver_uid::text, recorded_at,
	notes, transcription, created_at, updated_at`

func newPostgresRecordRepo[T domain.Record](db *sql.DB, t recordTable[T]) *PostgresRecordRepository[T] {
	kindCols := strings.Join(t.columns, ", ")

	// INSERT: 9 base columns followed by the kind columns.
	ph := make([]string, 0, 9+len(t.columns))
	for i := 1; i <= 9+len(t.columns); i++ {
		ph = append(ph, fmt.Sprintf("$%d", i))
	}

	// UPDATE: $1 uid, $2 recorded_at, $3 notes, $4 updated_at, then kind columns.
	sets := []string{"recorded_at = $2", "notes = $3", "updated_at = $4"}
	for i, c := range t.columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+5))
	}

	return &PostgresRecordRepository[T]{
		db:        db,
		table:     t,
		selectSQL: `SELECT ` + recordBaseColumns + `, ` + kindCols + ` FROM ` + t.name,
		insertSQL: `INSERT INTO ` + t.name + ` (uid, tenant_uid, resident_uid, caregiver_uid, recorded_at, notes, transcription, created_at, updated_at, ` +
			kindCols + `) VALUES (` + strings.Join(ph, ", ") + `)`,
		updateSQL: `UPDATE ` + t.name + ` SET ` + strings.Join(sets, ", ") + ` WHERE uid = $1`,
	}
}

func (r *PostgresRecordRepository[T]) scan(row interface{ Scan(...any) error }) (T, error) {
	rec := r.table.newRec()
	b := rec.Base()
	dest := []any{&b.UID, &b.TenantUID, &b.ResidentUID, &b.CaregiverUID, &b.RecordedAt,
		&b.Notes, &b.Transcription, &b.CreatedAt, &b.UpdatedAt}
	dest = append(dest, r.table.fields(rec)...)
	if err := row.Scan(dest...); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

func (r *PostgresRecordRepository[T]) Get(ctx context.Context, uid string) (T, error) {
	rec, err := r.scan(r.db.QueryRowContext(ctx, r.selectSQL+` WHERE uid = $1`, uid))
	if err != nil {
		var zero T
		return zero, notFound(err, r.table.name)
	}
	return rec, nil
}

func (r *PostgresRecordRepository[T]) ListByResident(ctx context.Context, residentUID string, f RecordFilter) ([]T, int, error) {
	query := r.selectSQL + ` WHERE resident_uid = $1`
	args := []any{residentUID}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += fmt.Sprintf(" AND recorded_at >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += fmt.Sprintf(" AND recorded_at < $%d", len(args))
	}
	query += ` ORDER BY recorded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", r.table.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan %s: %w", r.table.name, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, len(out), nil
}

func (r *PostgresRecordRepository[T]) Create(ctx context.Context, rec T) error {
	b := rec.Base()
	if b.UID == "" {
		b.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	if b.RecordedAt.IsZero() {
		b.RecordedAt = now
	}
	b.CreatedAt, b.UpdatedAt = now, now

	args := []any{b.UID, b.TenantUID, b.ResidentUID, b.CaregiverUID, b.RecordedAt,
		b.Notes, b.Transcription, b.CreatedAt, b.UpdatedAt}
	args = append(args, r.table.values(rec)...)
	if _, err := r.db.ExecContext(ctx, r.insertSQL, args...); err != nil {
		return fmt.Errorf("failed to create %s: %w", r.table.name, err)
	}
	return nil
}

func (r *PostgresRecordRepository[T]) Update(ctx context.Context, rec T) error {
	b := rec.Base()
	b.UpdatedAt = time.Now().UTC()
	args := []any{b.UID, b.RecordedAt, b.Notes, b.UpdatedAt}
	args = append(args, r.table.values(rec)...)
	res, err := r.db.ExecContext(ctx, r.updateSQL, args...)
	if err != nil {
		return execErr(err, fmt.Sprintf("failed to update %s", r.table.name))
	}
	return checkAffected(res, r.table.name)
}

func (r *PostgresRecordRepository[T]) Delete(ctx context.Context, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table.name+` WHERE uid = $1`, uid)
	if err != nil {
		return execErr(err, fmt.Sprintf("failed to delete %s", r.table.name))
	}
	return checkAffected(res, r.table.name)
}

func (r *PostgresRecordRepository[T]) SetTranscription(ctx context.Context, uid string, text *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE `+r.table.name+` SET transcription = $2, updated_at = $3 WHERE uid = $1`,
		uid, text, time.Now().UTC())
	if err != nil {
		return execErr(err, fmt.Sprintf("failed to set %s transcription", r.table.name))
	}
	return checkAffected(res, r.table.name)
}
