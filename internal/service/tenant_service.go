package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

// TenantService 租户（施設）管理
type TenantService struct {
	tenants repository.TenantsRepository
	users   repository.UsersRepository
	logger  *zap.Logger
}

func NewTenantService(tenants repository.TenantsRepository, users repository.UsersRepository, logger *zap.Logger) *TenantService {
	return &TenantService{tenants: tenants, users: users, logger: logger}
}

// TenantRequest create / update 共用
type TenantRequest struct {
	Name string `json:"name"`
}

func (s *TenantService) ListTenants(ctx context.Context, caller policy.Caller) (*ListResponse[*domain.Tenant], error) {
	if err := policy.RequireRole(caller, domain.RoleGlobalAdmin); err != nil {
		return nil, err
	}
	items, total, err := s.tenants.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return newList(items, total), nil
}

func (s *TenantService) CreateTenant(ctx context.Context, caller policy.Caller, req TenantRequest) (*domain.Tenant, error) {
	if err := policy.RequireRole(caller, domain.RoleGlobalAdmin); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	t := &domain.Tenant{Name: name}
	if err := s.tenants.CreateTenant(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("Tenant created", zap.String("tenant_id", t.UID), zap.String("user_id", caller.UserID))
	return t, nil
}

// UpdateTenant GLOBAL_ADMIN or the TENANT_ADMIN of that tenant.
func (s *TenantService) UpdateTenant(ctx context.Context, caller policy.Caller, uid string, req TenantRequest) (*domain.Tenant, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	t, err := s.tenants.GetTenant(ctx, uid)
	if err != nil {
		return nil, notFoundOr(err, "tenant")
	}
	if err := policy.CheckTenantAccess(caller, t.UID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	t.Name = name
	if err := s.tenants.UpdateTenant(ctx, t); err != nil {
		return nil, notFoundOr(err, "tenant")
	}
	return t, nil
}

// DeleteTenant removes the tenant and its users. Records follow by ON DELETE CASCADE.
func (s *TenantService) DeleteTenant(ctx context.Context, caller policy.Caller, uid string) error {
	if err := policy.RequireRole(caller, domain.RoleGlobalAdmin); err != nil {
		return err
	}
	if _, err := s.tenants.GetTenant(ctx, uid); err != nil {
		return notFoundOr(err, "tenant")
	}
	n, err := s.users.DeleteUsersByTenant(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to delete tenant users: %w", err)
	}
	if err := s.tenants.DeleteTenant(ctx, uid); err != nil {
		return notFoundOr(err, "tenant")
	}
	s.logger.Info("Tenant deleted",
		zap.String("tenant_id", uid),
		zap.String("user_id", caller.UserID),
		zap.Int("users_removed", n),
	)
	return nil
}
