package repository

import (
	"context"

	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// TenantsRepository 租户Repository接口
type TenantsRepository interface {
	GetTenant(ctx context.Context, uid string) (*domain.Tenant, error)
	// ListTenants 按名称排序
	ListTenants(ctx context.Context) ([]*domain.Tenant, int, error)
	// CreateTenant fills UID/CreatedAt/UpdatedAt on t.
	CreateTenant(ctx context.Context, t *domain.Tenant) error
	UpdateTenant(ctx context.Context, t *domain.Tenant) error
	// DeleteTenant 删除租户；Postgres 通过 ON DELETE CASCADE 连带删除租户数据
	DeleteTenant(ctx context.Context, uid string) error
}
