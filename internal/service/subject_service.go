package service

import (
	"context"
	"fmt"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

// SubjectService 评估对象管理（规则同入住者）
type SubjectService struct {
	subjects repository.SubjectsRepository
	tenants  repository.TenantsRepository
	logger   *zap.Logger
}

func NewSubjectService(subjects repository.SubjectsRepository, tenants repository.TenantsRepository, logger *zap.Logger) *SubjectService {
	return &SubjectService{subjects: subjects, tenants: tenants, logger: logger}
}

func (s *SubjectService) ListSubjects(ctx context.Context, caller policy.Caller, tenantUID string) (*ListResponse[*domain.Subject], error) {
	if err := policy.CheckTenantAccess(caller, tenantUID); err != nil {
		return nil, err
	}
	items, total, err := s.subjects.ListSubjects(ctx, tenantUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return newList(items, total), nil
}

func (s *SubjectService) load(ctx context.Context, caller policy.Caller, tenantUID, uid string) (*domain.Subject, error) {
	sub, err := s.subjects.GetSubject(ctx, uid)
	if err != nil {
		return nil, notFoundOr(err, "subject")
	}
	if sub.TenantUID != tenantUID {
		return nil, policy.ErrNotFound("subject not found")
	}
	if err := policy.CheckTenantAccess(caller, sub.TenantUID); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubjectService) GetSubject(ctx context.Context, caller policy.Caller, tenantUID, uid string) (*domain.Subject, error) {
	return s.load(ctx, caller, tenantUID, uid)
}

func (s *SubjectService) CreateSubject(ctx context.Context, caller policy.Caller, tenantUID string, req PersonRequest) (*domain.Subject, error) {
	if err := manageTenant(caller, tenantUID); err != nil {
		return nil, err
	}
	if _, err := s.tenants.GetTenant(ctx, tenantUID); err != nil {
		return nil, notFoundOr(err, "tenant")
	}
	sub := &domain.Subject{TenantUID: tenantUID}
	if err := req.apply(&sub.Person, true); err != nil {
		return nil, err
	}
	if err := s.subjects.CreateSubject(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("Subject created", zap.String("tenant_id", tenantUID), zap.String("subject_id", sub.UID))
	return sub, nil
}

func (s *SubjectService) UpdateSubject(ctx context.Context, caller policy.Caller, tenantUID, uid string, req PersonRequest) (*domain.Subject, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	sub, err := s.load(ctx, caller, tenantUID, uid)
	if err != nil {
		return nil, err
	}
	if err := req.apply(&sub.Person, false); err != nil {
		return nil, err
	}
	if err := s.subjects.UpdateSubject(ctx, sub); err != nil {
		return nil, notFoundOr(err, "subject")
	}
	return sub, nil
}

func (s *SubjectService) DeleteSubject(ctx context.Context, caller policy.Caller, tenantUID, uid string) error {
	if err := policy.RequireAdmin(caller); err != nil {
		return err
	}
	if _, err := s.load(ctx, caller, tenantUID, uid); err != nil {
		return err
	}
	if err := s.subjects.DeleteSubject(ctx, uid); err != nil {
		return notFoundOr(err, "subject")
	}
	return nil
}
