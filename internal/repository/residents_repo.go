package repository

import (
	"context"

	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// ResidentsRepository 入住者Repository接口
type ResidentsRepository interface {
	GetResident(ctx context.Context, uid string) (*domain.Resident, error)
	ListResidents(ctx context.Context, tenantUID string) ([]*domain.Resident, int, error)
	CreateResident(ctx context.Context, r *domain.Resident) error
	UpdateResident(ctx context.Context, r *domain.Resident) error
	DeleteResident(ctx context.Context, uid string) error
}

// SubjectsRepository 评估对象Repository接口
type SubjectsRepository interface {
	GetSubject(ctx context.Context, uid string) (*domain.Subject, error)
	ListSubjects(ctx context.Context, tenantUID string) ([]*domain.Subject, int, error)
	CreateSubject(ctx context.Context, s *domain.Subject) error
	UpdateSubject(ctx context.Context, s *domain.Subject) error
	DeleteSubject(ctx context.Context, uid string) error
}
