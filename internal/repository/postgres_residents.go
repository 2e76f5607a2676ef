package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// PostgresResidentsRepository 入住者Repository实现
type PostgresResidentsRepository struct {
	db *sql.DB
}

func NewPostgresResidentsRepository(db *sql.DB) *PostgresResidentsRepository {
	return &PostgresResidentsRepository{db: db}
}

var _ ResidentsRepository = (*PostgresResidentsRepository)(nil)

const residentColumns = `uid::text, tenant_uid::text, family_name, given_name, family_name_furigana,
	given_name_furigana, date_of_birth, gender, admission_date, created_at, updated_at`

func scanResident(row interface{ Scan(...any) error }) (*domain.Resident, error) {
	var r domain.Resident
	if err := row.Scan(
		&r.UID, &r.TenantUID, &r.FamilyName, &r.GivenName, &r.FamilyNameFurigana, &r.GivenNameFurigana,
		&r.DateOfBirth, &r.Gender, &r.AdmissionDate, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *PostgresResidentsRepository) GetResident(ctx context.Context, uid string) (*domain.Resident, error) {
	r, err := scanResident(p.db.QueryRowContext(ctx, `SELECT `+residentColumns+` FROM residents WHERE uid = $1`, uid))
	if err != nil {
		return nil, notFound(err, "resident")
	}
	return r, nil
}

func (p *PostgresResidentsRepository) ListResidents(ctx context.Context, tenantUID string) ([]*domain.Resident, int, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+residentColumns+` FROM residents WHERE tenant_uid = $1 ORDER BY family_name_furigana, given_name_furigana`,
		tenantUID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list residents: %w", err)
	}
	defer rows.Close()

	var out []*domain.Resident
	for rows.Next() {
		r, err := scanResident(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan resident: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, len(out), nil
}

func (p *PostgresResidentsRepository) CreateResident(ctx context.Context, r *domain.Resident) error {
	if r.UID == "" {
		r.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO residents (uid, tenant_uid, family_name, given_name, family_name_furigana, given_name_furigana,
			date_of_birth, gender, admission_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.UID, r.TenantUID, r.FamilyName, r.GivenName, r.FamilyNameFurigana, r.GivenNameFurigana,
		r.DateOfBirth, string(r.Gender), r.AdmissionDate, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create resident: %w", err)
	}
	return nil
}

func (p *PostgresResidentsRepository) UpdateResident(ctx context.Context, r *domain.Resident) error {
	r.UpdatedAt = time.Now().UTC()
	res, err := p.db.ExecContext(ctx, `
		UPDATE residents SET family_name = $2, given_name = $3, family_name_furigana = $4, given_name_furigana = $5,
			date_of_birth = $6, gender = $7, admission_date = $8, updated_at = $9
		WHERE uid = $1`,
		r.UID, r.FamilyName, r.GivenName, r.FamilyNameFurigana, r.GivenNameFurigana,
		r.DateOfBirth, string(r.Gender), r.AdmissionDate, r.UpdatedAt,
	)
	if err != nil {
		return execErr(err, "failed to update resident")
	}
	return checkAffected(res, "resident")
}

func (p *PostgresResidentsRepository) DeleteResident(ctx context.Context, uid string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM residents WHERE uid = $1`, uid)
	if err != nil {
		return execErr(err, "failed to delete resident")
	}
	return checkAffected(res, "resident")
}
