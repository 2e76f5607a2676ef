package repository

import (
	"context"

	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// UsersRepository 用户Repository接口
type UsersRepository interface {
	GetUser(ctx context.Context, uid string) (*domain.User, error)
	GetUserByLoginID(ctx context.Context, loginID string) (*domain.User, error)
	ListUsersByTenant(ctx context.Context, tenantUID string) ([]*domain.User, int, error)

	// CreateUser returns ErrAlreadyExists when login_id is taken.
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, uid string) error
	DeleteUsersByTenant(ctx context.Context, tenantUID string) (int, error)

	// UpsertUserByLoginID inserts or overwrites the user owning u.LoginID (seed).
	UpsertUserByLoginID(ctx context.Context, u *domain.User) error
}
