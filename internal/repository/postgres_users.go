package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// PostgresUsersRepository 用户Repository实现
type PostgresUsersRepository struct {
	db *sql.DB
}

func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `uid::text, login_id, family_name, given_name, family_name_furigana, given_name_furigana,
	role, tenant_uid::text, password_digest, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	var tenant sql.NullString
	if err := row.Scan(
		&u.UID, &u.LoginID, &u.FamilyName, &u.GivenName, &u.FamilyNameFurigana, &u.GivenNameFurigana,
		&u.Role, &tenant, &u.PasswordDigest, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if tenant.Valid {
		u.TenantUID = &tenant.String
	}
	return &u, nil
}

func (r *PostgresUsersRepository) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (r *PostgresUsersRepository) GetUserByLoginID(ctx context.Context, loginID string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE login_id = $1`, loginID))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (r *PostgresUsersRepository) ListUsersByTenant(ctx context.Context, tenantUID string) ([]*domain.User, int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_uid = $1 ORDER BY family_name_furigana, given_name_furigana`,
		tenantUID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, len(out), nil
}

func (r *PostgresUsersRepository) CreateUser(ctx context.Context, u *domain.User) error {
	if u.UID == "" {
		u.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (uid, login_id, family_name, given_name, family_name_furigana, given_name_furigana,
			role, tenant_uid, password_digest, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.UID, u.LoginID, u.FamilyName, u.GivenName, u.FamilyNameFurigana, u.GivenNameFurigana,
		string(u.Role), u.TenantUID, u.PasswordDigest, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("login_id %q: %w", u.LoginID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresUsersRepository) UpdateUser(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET login_id = $2, family_name = $3, given_name = $4, family_name_furigana = $5,
			given_name_furigana = $6, role = $7, tenant_uid = $8, password_digest = $9, updated_at = $10
		WHERE uid = $1`,
		u.UID, u.LoginID, u.FamilyName, u.GivenName, u.FamilyNameFurigana, u.GivenNameFurigana,
		string(u.Role), u.TenantUID, u.PasswordDigest, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("login_id %q: %w", u.LoginID, domain.ErrAlreadyExists)
		}
		return execErr(err, "failed to update user")
	}
	return checkAffected(res, "user")
}

func (r *PostgresUsersRepository) DeleteUser(ctx context.Context, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, uid)
	if err != nil {
		return execErr(err, "failed to delete user")
	}
	return checkAffected(res, "user")
}

func (r *PostgresUsersRepository) DeleteUsersByTenant(ctx context.Context, tenantUID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE tenant_uid = $1`, tenantUID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tenant users: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *PostgresUsersRepository) UpsertUserByLoginID(ctx context.Context, u *domain.User) error {
	if u.UID == "" {
		u.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (uid, login_id, family_name, given_name, family_name_furigana, given_name_furigana,
			role, tenant_uid, password_digest, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (login_id) DO UPDATE SET
			family_name = EXCLUDED.family_name,
			given_name = EXCLUDED.given_name,
			family_name_furigana = EXCLUDED.family_name_furigana,
			given_name_furigana = EXCLUDED.given_name_furigana,
			role = EXCLUDED.role,
			tenant_uid = EXCLUDED.tenant_uid,
			password_digest = EXCLUDED.password_digest,
			updated_at = EXCLUDED.updated_at
		RETURNING uid::text, created_at, updated_at`,
		u.UID, u.LoginID, u.FamilyName, u.GivenName, u.FamilyNameFurigana, u.GivenNameFurigana,
		string(u.Role), u.TenantUID, u.PasswordDigest, now,
	)
	if err := row.Scan(&u.UID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
