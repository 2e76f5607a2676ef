package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuta0709/nagara-care-api/internal/auth"
	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

// UserService 用户管理
type UserService struct {
	users   repository.UsersRepository
	tenants repository.TenantsRepository
	logger  *zap.Logger
}

func NewUserService(users repository.UsersRepository, tenants repository.TenantsRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, tenants: tenants, logger: logger}
}

// CreateUserRequest 创建租户用户请求
type CreateUserRequest struct {
	LoginID            string      `json:"loginId"`
	Password           string      `json:"password"`
	FamilyName         string      `json:"familyName"`
	GivenName          string      `json:"givenName"`
	FamilyNameFurigana string      `json:"familyNameFurigana"`
	GivenNameFurigana  string      `json:"givenNameFurigana"`
	Role               domain.Role `json:"role"`
}

// UpdateUserRequest 更新用户请求（nil 字段不变）
type UpdateUserRequest struct {
	LoginID            *string      `json:"loginId"`
	Password           *string      `json:"password"`
	FamilyName         *string      `json:"familyName"`
	GivenName          *string      `json:"givenName"`
	FamilyNameFurigana *string      `json:"familyNameFurigana"`
	GivenNameFurigana  *string      `json:"givenNameFurigana"`
	Role               *domain.Role `json:"role"`
}

// manageTenant is the guard for every tenant user operation.
func manageTenant(caller policy.Caller, tenantUID string) error {
	if err := policy.RequireAdmin(caller); err != nil {
		return err
	}
	return policy.CheckTenantAccess(caller, tenantUID)
}

func (s *UserService) ListTenantUsers(ctx context.Context, caller policy.Caller, tenantUID string) (*ListResponse[*domain.User], error) {
	if err := manageTenant(caller, tenantUID); err != nil {
		return nil, err
	}
	items, total, err := s.users.ListUsersByTenant(ctx, tenantUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return newList(items, total), nil
}

func (s *UserService) CreateTenantUser(ctx context.Context, caller policy.Caller, tenantUID string, req CreateUserRequest) (*domain.User, error) {
	if err := manageTenant(caller, tenantUID); err != nil {
		return nil, err
	}
	if req.Role == domain.RoleGlobalAdmin {
		return nil, policy.ErrForbidden("GLOBAL_ADMIN cannot be created as a tenant user")
	}
	if req.Role != domain.RoleTenantAdmin && req.Role != domain.RoleCaregiver {
		return nil, policy.ErrBadRequest("role must be TENANT_ADMIN or CAREGIVER")
	}
	if err := firstErr(
		required("loginId", req.LoginID),
		required("password", req.Password),
		required("familyName", req.FamilyName),
		required("givenName", req.GivenName),
		required("familyNameFurigana", req.FamilyNameFurigana),
		required("givenNameFurigana", req.GivenNameFurigana),
	); err != nil {
		return nil, err
	}
	if _, err := s.tenants.GetTenant(ctx, tenantUID); err != nil {
		return nil, notFoundOr(err, "tenant")
	}

	digest, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	tenant := tenantUID
	u := &domain.User{
		LoginID:            strings.TrimSpace(req.LoginID),
		FamilyName:         req.FamilyName,
		GivenName:          req.GivenName,
		FamilyNameFurigana: req.FamilyNameFurigana,
		GivenNameFurigana:  req.GivenNameFurigana,
		Role:               req.Role,
		TenantUID:          &tenant,
		PasswordDigest:     digest,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, policy.ErrBadRequest("loginId already exists")
		}
		return nil, err
	}
	s.logger.Info("User created",
		zap.String("tenant_id", tenantUID),
		zap.String("user_id", u.UID),
		zap.String("role", string(u.Role)),
	)
	return u, nil
}

// guardTarget loads uid and checks caller may modify it.
// Only GLOBAL_ADMIN touches a GLOBAL_ADMIN.
func (s *UserService) guardTarget(ctx context.Context, caller policy.Caller, uid string) (*domain.User, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	target, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	if target.Role == domain.RoleGlobalAdmin && !caller.IsGlobalAdmin() {
		return nil, policy.ErrForbidden("only GLOBAL_ADMIN may modify a GLOBAL_ADMIN")
	}
	if target.TenantUID != nil {
		if err := policy.CheckTenantAccess(caller, *target.TenantUID); err != nil {
			return nil, err
		}
	}
	return target, nil
}

func (s *UserService) UpdateUser(ctx context.Context, caller policy.Caller, uid string, req UpdateUserRequest) (*domain.User, error) {
	u, err := s.guardTarget(ctx, caller, uid)
	if err != nil {
		return nil, err
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, policy.ErrBadRequest("invalid role")
		}
		if *req.Role == domain.RoleGlobalAdmin && !caller.IsGlobalAdmin() {
			return nil, policy.ErrForbidden("only GLOBAL_ADMIN may grant GLOBAL_ADMIN")
		}
		if (*req.Role == domain.RoleGlobalAdmin) != (u.TenantUID == nil) {
			return nil, policy.ErrBadRequest("GLOBAL_ADMIN has no tenant and tenant users cannot be GLOBAL_ADMIN")
		}
		u.Role = *req.Role
	}
	for _, f := range []struct {
		name string
		in   *string
		dst  *string
	}{
		{"loginId", req.LoginID, &u.LoginID},
		{"familyName", req.FamilyName, &u.FamilyName},
		{"givenName", req.GivenName, &u.GivenName},
		{"familyNameFurigana", req.FamilyNameFurigana, &u.FamilyNameFurigana},
		{"givenNameFurigana", req.GivenNameFurigana, &u.GivenNameFurigana},
	} {
		if f.in == nil {
			continue
		}
		if err := required(f.name, *f.in); err != nil {
			return nil, err
		}
		*f.dst = strings.TrimSpace(*f.in)
	}
	if req.Password != nil {
		if err := required("password", *req.Password); err != nil {
			return nil, err
		}
		digest, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordDigest = digest
	}

	if err := s.users.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, policy.ErrBadRequest("loginId already exists")
		}
		return nil, notFoundOr(err, "user")
	}
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, caller policy.Caller, uid string) error {
	if uid == caller.UserID {
		return policy.ErrBadRequest("users cannot delete themselves")
	}
	if _, err := s.guardTarget(ctx, caller, uid); err != nil {
		return err
	}
	if err := s.users.DeleteUser(ctx, uid); err != nil {
		return notFoundOr(err, "user")
	}
	s.logger.Info("User deleted", zap.String("user_id", uid), zap.String("deleted_by", caller.UserID))
	return nil
}

// GlobalAdminRequest seed 用
type GlobalAdminRequest struct {
	LoginID            string
	Password           string
	FamilyName         string
	GivenName          string
	FamilyNameFurigana string
	GivenNameFurigana  string
}

// UpsertGlobalAdmin creates or resets the GLOBAL_ADMIN owning req.LoginID. Used by the seed command.
func (s *UserService) UpsertGlobalAdmin(ctx context.Context, req GlobalAdminRequest) (*domain.User, error) {
	if err := firstErr(required("loginId", req.LoginID), required("password", req.Password)); err != nil {
		return nil, err
	}
	digest, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		LoginID:            req.LoginID,
		FamilyName:         req.FamilyName,
		GivenName:          req.GivenName,
		FamilyNameFurigana: req.FamilyNameFurigana,
		GivenNameFurigana:  req.GivenNameFurigana,
		Role:               domain.RoleGlobalAdmin,
		PasswordDigest:     digest,
	}
	if err := s.users.UpsertUserByLoginID(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("Global admin upserted", zap.String("user_id", u.UID), zap.String("login_id", u.LoginID))
	return u, nil
}
