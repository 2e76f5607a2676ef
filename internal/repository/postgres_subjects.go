package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// PostgresSubjectsRepository 评估对象Repository实现
type PostgresSubjectsRepository struct {
	db *sql.DB
}

func NewPostgresSubjectsRepository(db *sql.DB) *PostgresSubjectsRepository {
	return &PostgresSubjectsRepository{db: db}
}

var _ SubjectsRepository = (*PostgresSubjectsRepository)(nil)

const subjectColumns = `uid::text, tenant_uid::text, family_name, given_name, family_name_furigana,
	given_name_furigana, date_of_birth, gender, created_at, updated_at`

func scanSubject(row interface{ Scan(...any) error }) (*domain.Subject, error) {
	var s domain.Subject
	if err := row.Scan(
		&s.UID, &s.TenantUID, &s.FamilyName, &s.GivenName, &s.FamilyNameFurigana, &s.GivenNameFurigana,
		&s.DateOfBirth, &s.Gender, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *PostgresSubjectsRepository) GetSubject(ctx context.Context, uid string) (*domain.Subject, error) {
	s, err := scanSubject(p.db.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE uid = $1`, uid))
	if err != nil {
		return nil, notFound(err, "subject")
	}
	return s, nil
}

func (p *PostgresSubjectsRepository) ListSubjects(ctx context.Context, tenantUID string) ([]*domain.Subject, int, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+subjectColumns+` FROM subjects WHERE tenant_uid = $1 ORDER BY family_name_furigana, given_name_furigana`,
		tenantUID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	var out []*domain.Subject
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan subject: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, len(out), nil
}

func (p *PostgresSubjectsRepository) CreateSubject(ctx context.Context, s *domain.Subject) error {
	if s.UID == "" {
		s.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO subjects (uid, tenant_uid, family_name, given_name, family_name_furigana, given_name_furigana,
			date_of_birth, gender, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.UID, s.TenantUID, s.FamilyName, s.GivenName, s.FamilyNameFurigana, s.GivenNameFurigana,
		s.DateOfBirth, string(s.Gender), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

func (p *PostgresSubjectsRepository) UpdateSubject(ctx context.Context, s *domain.Subject) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := p.db.ExecContext(ctx, `
		UPDATE subjects SET family_name = $2, given_name = $3, family_name_furigana = $4, given_name_furigana = $5,
			date_of_birth = $6, gender = $7, updated_at = $8
		WHERE uid = $1`,
		s.UID, s.FamilyName, s.GivenName, s.FamilyNameFurigana, s.GivenNameFurigana,
		s.DateOfBirth, string(s.Gender), s.UpdatedAt,
	)
	if err != nil {
		return execErr(err, "failed to update subject")
	}
	return checkAffected(res, "subject")
}

func (p *PostgresSubjectsRepository) DeleteSubject(ctx context.Context, uid string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subjects WHERE uid = $1`, uid)
	if err != nil {
		return execErr(err, "failed to delete subject")
	}
	return checkAffected(res, "subject")
}
