package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

// PersonRequest 入住者 / 评估对象的公共输入（nil 字段不变）
type PersonRequest struct {
	FamilyName         *string        `json:"familyName"`
	GivenName          *string        `json:"givenName"`
	FamilyNameFurigana *string        `json:"familyNameFurigana"`
	GivenNameFurigana  *string        `json:"givenNameFurigana"`
	DateOfBirth        *time.Time     `json:"dateOfBirth"`
	Gender             *domain.Gender `json:"gender"`
}

// apply writes the set fields onto p. On create every field is required.
func (r PersonRequest) apply(p *domain.Person, create bool) error {
	for _, f := range []struct {
		name string
		in   *string
		dst  *string
	}{
		{"familyName", r.FamilyName, &p.FamilyName},
		{"givenName", r.GivenName, &p.GivenName},
		{"familyNameFurigana", r.FamilyNameFurigana, &p.FamilyNameFurigana},
		{"givenNameFurigana", r.GivenNameFurigana, &p.GivenNameFurigana},
	} {
		if f.in == nil {
			if create {
				return policy.ErrBadRequest(f.name + " is required")
			}
			continue
		}
		if err := required(f.name, *f.in); err != nil {
			return err
		}
		*f.dst = strings.TrimSpace(*f.in)
	}
	switch {
	case r.DateOfBirth != nil:
		p.DateOfBirth = *r.DateOfBirth
	case create:
		return policy.ErrBadRequest("dateOfBirth is required")
	}
	switch {
	case r.Gender != nil:
		if !r.Gender.Valid() {
			return policy.ErrBadRequest("gender must be MALE, FEMALE or OTHER")
		}
		p.Gender = *r.Gender
	case create:
		return policy.ErrBadRequest("gender is required")
	}
	return nil
}

// ResidentRequest 入住者 create / update
type ResidentRequest struct {
	PersonRequest
	AdmissionDate *time.Time `json:"admissionDate"`
}

// ResidentService 入住者管理。读取：租户内全员；写入：管理员
type ResidentService struct {
	residents repository.ResidentsRepository
	tenants   repository.TenantsRepository
	logger    *zap.Logger
}

func NewResidentService(residents repository.ResidentsRepository, tenants repository.TenantsRepository, logger *zap.Logger) *ResidentService {
	return &ResidentService{residents: residents, tenants: tenants, logger: logger}
}

func (s *ResidentService) ListResidents(ctx context.Context, caller policy.Caller, tenantUID string) (*ListResponse[*domain.Resident], error) {
	if err := policy.CheckTenantAccess(caller, tenantUID); err != nil {
		return nil, err
	}
	items, total, err := s.residents.ListResidents(ctx, tenantUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}
	return newList(items, total), nil
}

// load fetches uid and requires it to belong to tenantUID, so a uid from another
// tenant under the wrong path is NotFound rather than a leak of its existence.
func (s *ResidentService) load(ctx context.Context, caller policy.Caller, tenantUID, uid string) (*domain.Resident, error) {
	r, err := s.residents.GetResident(ctx, uid)
	if err != nil {
		return nil, notFoundOr(err, "resident")
	}
	if r.TenantUID != tenantUID {
		return nil, policy.ErrNotFound("resident not found")
	}
	if err := policy.CheckTenantAccess(caller, r.TenantUID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ResidentService) GetResident(ctx context.Context, caller policy.Caller, tenantUID, uid string) (*domain.Resident, error) {
	return s.load(ctx, caller, tenantUID, uid)
}

func (s *ResidentService) CreateResident(ctx context.Context, caller policy.Caller, tenantUID string, req ResidentRequest) (*domain.Resident, error) {
	if err := manageTenant(caller, tenantUID); err != nil {
		return nil, err
	}
	if _, err := s.tenants.GetTenant(ctx, tenantUID); err != nil {
		return nil, notFoundOr(err, "tenant")
	}
	r := &domain.Resident{TenantUID: tenantUID}
	if err := req.apply(&r.Person, true); err != nil {
		return nil, err
	}
	if req.AdmissionDate == nil {
		return nil, policy.ErrBadRequest("admissionDate is required")
	}
	r.AdmissionDate = *req.AdmissionDate
	if err := s.residents.CreateResident(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info("Resident created", zap.String("tenant_id", tenantUID), zap.String("resident_id", r.UID))
	return r, nil
}

func (s *ResidentService) UpdateResident(ctx context.Context, caller policy.Caller, tenantUID, uid string, req ResidentRequest) (*domain.Resident, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, caller, tenantUID, uid)
	if err != nil {
		return nil, err
	}
	if err := req.apply(&r.Person, false); err != nil {
		return nil, err
	}
	if req.AdmissionDate != nil {
		r.AdmissionDate = *req.AdmissionDate
	}
	if err := s.residents.UpdateResident(ctx, r); err != nil {
		return nil, notFoundOr(err, "resident")
	}
	return r, nil
}

func (s *ResidentService) DeleteResident(ctx context.Context, caller policy.Caller, tenantUID, uid string) error {
	if err := policy.RequireAdmin(caller); err != nil {
		return err
	}
	if _, err := s.load(ctx, caller, tenantUID, uid); err != nil {
		return err
	}
	if err := s.residents.DeleteResident(ctx, uid); err != nil {
		return notFoundOr(err, "resident")
	}
	s.logger.Info("Resident deleted", zap.String("tenant_id", tenantUID), zap.String("resident_id", uid))
	return nil
}
