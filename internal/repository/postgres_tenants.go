package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// PostgresTenantsRepository 租户Repository实现
type PostgresTenantsRepository struct {
	db *sql.DB
}

func NewPostgresTenantsRepository(db *sql.DB) *PostgresTenantsRepository {
	return &PostgresTenantsRepository{db: db}
}

// 确保实现了接口
var _ TenantsRepository = (*PostgresTenantsRepository)(nil)

const tenantColumns = `uid::text, name, created_at, updated_at`

func scanTenant(row interface{ Scan(...any) error }) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := row.Scan(&t.UID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresTenantsRepository) GetTenant(ctx context.Context, uid string) (*domain.Tenant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE uid = $1`, uid)
	t, err := scanTenant(row)
	if err != nil {
		return nil, notFound(err, "tenant")
	}
	return t, nil
}

func (r *PostgresTenantsRepository) ListTenants(ctx context.Context) ([]*domain.Tenant, int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY name, created_at`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var out []*domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan tenant: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, len(out), nil
}

func (r *PostgresTenantsRepository) CreateTenant(ctx context.Context, t *domain.Tenant) error {
	if t.UID == "" {
		t.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (uid, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		t.UID, t.Name, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

func (r *PostgresTenantsRepository) UpdateTenant(ctx context.Context, t *domain.Tenant) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET name = $2, updated_at = $3 WHERE uid = $1`,
		t.UID, t.Name, t.UpdatedAt,
	)
	if err != nil {
		return execErr(err, "failed to update tenant")
	}
	return checkAffected(res, "tenant")
}

func (r *PostgresTenantsRepository) DeleteTenant(ctx context.Context, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE uid = $1`, uid)
	if err != nil {
		return execErr(err, "failed to delete tenant")
	}
	return checkAffected(res, "tenant")
}
