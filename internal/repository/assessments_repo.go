package repository

import (
	"context"

	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// AssessmentsRepository 评估Repository接口
type AssessmentsRepository interface {
	GetAssessment(ctx context.Context, uid string) (*domain.Assessment, error)
	GetAssessmentBySubject(ctx context.Context, subjectUID string) (*domain.Assessment, error)
	ListAssessments(ctx context.Context, tenantUID string) ([]*domain.Assessment, int, error)

	// CreateAssessment returns ErrAlreadyExists when the subject already has one.
	CreateAssessment(ctx context.Context, a *domain.Assessment) error
	UpdateAssessment(ctx context.Context, a *domain.Assessment) error
	DeleteAssessment(ctx context.Context, uid string) error
	SetAssessmentTranscription(ctx context.Context, uid string, text *string) error
}
