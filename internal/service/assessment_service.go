package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/llm"
	"github.com/yuta0709/nagara-care-api/internal/metrics"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

// Summarizer produces a free-text summary of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// AssessmentRequest 创建/更新评估，nil 字段不变更
type AssessmentRequest struct {
	SubjectUID            string                        `json:"subjectUid"`
	CareLevel             *domain.CareLevel             `json:"careLevel"`
	PhysicalIndependence  *domain.PhysicalIndependence  `json:"physicalIndependence"`
	CognitiveIndependence *domain.CognitiveIndependence `json:"cognitiveIndependence"`
	domain.AssessmentText
}

func (req *AssessmentRequest) apply(a *domain.Assessment) error {
	if req.CareLevel != nil {
		if !req.CareLevel.Valid() {
			return policy.ErrBadRequest("careLevel must be NEEDS_CARE_1 to NEEDS_CARE_5")
		}
		a.CareLevel = *req.CareLevel
	}
	if req.PhysicalIndependence != nil {
		if !req.PhysicalIndependence.Valid() {
			return policy.ErrBadRequest("invalid physicalIndependence")
		}
		a.PhysicalIndependence = *req.PhysicalIndependence
	}
	if req.CognitiveIndependence != nil {
		if !req.CognitiveIndependence.Valid() {
			return policy.ErrBadRequest("invalid cognitiveIndependence")
		}
		a.CognitiveIndependence = *req.CognitiveIndependence
	}
	src := req.AssessmentText.Fields()
	dst := a.AssessmentText.Fields()
	for i := range src {
		if *src[i].Ptr != nil {
			v := **src[i].Ptr
			*dst[i].Ptr = &v
		}
	}
	return nil
}

// SummaryResponse 要約
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// AssessmentService 评估管理，权限走能力表（KindAssessment），无时间窗口
type AssessmentService struct {
	coord       *policy.Coordinator
	assessments repository.AssessmentsRepository
	subjects    repository.SubjectsRepository
	extractor   policy.Extractor[*domain.Assessment, llm.AssessmentExtraction]
	summarizer  Summarizer
	metrics     *metrics.Registry
	logger      *zap.Logger
}

func NewAssessmentService(coord *policy.Coordinator, assessments repository.AssessmentsRepository,
	subjects repository.SubjectsRepository, ex policy.Extractor[*domain.Assessment, llm.AssessmentExtraction],
	summarizer Summarizer, m *metrics.Registry, logger *zap.Logger) *AssessmentService {
	return &AssessmentService{
		coord:       coord,
		assessments: assessments,
		subjects:    subjects,
		extractor:   ex,
		summarizer:  summarizer,
		metrics:     m,
		logger:      logger,
	}
}

func (s *AssessmentService) loader(uid string) func(context.Context) (*domain.Assessment, error) {
	return func(ctx context.Context) (*domain.Assessment, error) {
		return s.assessments.GetAssessment(ctx, uid)
	}
}

// ListAssessments lists one tenant's assessments. tenantUID defaults to the caller's tenant.
func (s *AssessmentService) ListAssessments(ctx context.Context, caller policy.Caller, tenantUID string) (*ListResponse[*domain.Assessment], error) {
	if tenantUID == "" {
		tenantUID = caller.Tenant()
	}
	if tenantUID == "" {
		return nil, policy.ErrBadRequest("tenantUid is required")
	}
	if err := s.coord.AuthorizeTenant(caller, policy.ActionRead, policy.KindAssessment, tenantUID); err != nil {
		return nil, err
	}
	items, total, err := s.assessments.ListAssessments(ctx, tenantUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return newList(items, total), nil
}

func (s *AssessmentService) GetAssessment(ctx context.Context, caller policy.Caller, uid string) (*domain.Assessment, error) {
	return policy.Load(ctx, s.coord, caller, policy.ActionRead, policy.KindAssessment, s.loader(uid))
}

// CreateAssessment opens the single assessment of a subject.
func (s *AssessmentService) CreateAssessment(ctx context.Context, caller policy.Caller, req AssessmentRequest) (*domain.Assessment, error) {
	if err := required("subjectUid", req.SubjectUID); err != nil {
		return nil, err
	}
	sub, err := s.subjects.GetSubject(ctx, req.SubjectUID)
	if err != nil {
		return nil, notFoundOr(err, "subject")
	}
	if err := s.coord.AuthorizeTenant(caller, policy.ActionCreate, policy.KindAssessment, sub.TenantUID); err != nil {
		return nil, err
	}

	a := &domain.Assessment{
		TenantUID:             sub.TenantUID,
		SubjectUID:            sub.UID,
		UserUID:               caller.UserID,
		CareLevel:             domain.NeedsCare1,
		PhysicalIndependence:  "INDEPENDENT",
		CognitiveIndependence: "INDEPENDENT",
	}
	if err := req.apply(a); err != nil {
		return nil, err
	}
	if err := s.assessments.CreateAssessment(ctx, a); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, policy.ErrBadRequest("assessment already exists for this subject")
		}
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}
	s.logger.Info("Assessment created",
		zap.String("tenant_id", a.TenantUID),
		zap.String("user_id", caller.UserID),
		zap.String("record_id", a.UID),
	)
	return a, nil
}

// UpdateAssessment applies req and records the caller as last editor.
func (s *AssessmentService) UpdateAssessment(ctx context.Context, caller policy.Caller, uid string, req AssessmentRequest) (*domain.Assessment, error) {
	return policy.Run(ctx, s.coord, caller, policy.ActionUpdate, policy.KindAssessment, s.loader(uid),
		func(ctx context.Context, a *domain.Assessment) (*domain.Assessment, error) {
			if err := req.apply(a); err != nil {
				return nil, err
			}
			a.UserUID = caller.UserID
			if err := s.assessments.UpdateAssessment(ctx, a); err != nil {
				return nil, notFoundOr(err, "assessment")
			}
			return a, nil
		})
}

func (s *AssessmentService) DeleteAssessment(ctx context.Context, caller policy.Caller, uid string) error {
	_, err := policy.Run(ctx, s.coord, caller, policy.ActionDelete, policy.KindAssessment, s.loader(uid),
		func(ctx context.Context, a *domain.Assessment) (struct{}, error) {
			if err := s.assessments.DeleteAssessment(ctx, uid); err != nil {
				return struct{}{}, notFoundOr(err, "assessment")
			}
			s.logger.Info("Assessment deleted", zap.String("user_id", caller.UserID), zap.String("record_id", uid))
			return struct{}{}, nil
		})
	return err
}

func (s *AssessmentService) GetTranscription(ctx context.Context, caller policy.Caller, uid string) (*TranscriptionResponse, error) {
	a, err := policy.Load(ctx, s.coord, caller, policy.ActionTranscriptionRead, policy.KindAssessment, s.loader(uid))
	if err != nil {
		return nil, err
	}
	return &TranscriptionResponse{Transcription: a.Transcription}, nil
}

func (s *AssessmentService) AppendTranscription(ctx context.Context, caller policy.Caller, uid, text string) (*TranscriptionResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, policy.ErrBadRequest("transcription is required")
	}
	return s.setTranscription(ctx, caller, uid, policy.ActionTranscriptionAppend, func(cur *string) *string {
		return policy.AppendTranscription(cur, text)
	})
}

func (s *AssessmentService) ReplaceTranscription(ctx context.Context, caller policy.Caller, uid, text string) (*TranscriptionResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, policy.ErrBadRequest("transcription is required")
	}
	return s.setTranscription(ctx, caller, uid, policy.ActionTranscriptionReplace, func(*string) *string {
		return policy.ReplaceTranscription(text)
	})
}

func (s *AssessmentService) ClearTranscription(ctx context.Context, caller policy.Caller, uid string) (*TranscriptionResponse, error) {
	return s.setTranscription(ctx, caller, uid, policy.ActionTranscriptionClear, func(*string) *string {
		return policy.ClearTranscription()
	})
}

func (s *AssessmentService) setTranscription(ctx context.Context, caller policy.Caller, uid string,
	action policy.Action, next func(*string) *string) (*TranscriptionResponse, error) {
	return policy.Run(ctx, s.coord, caller, action, policy.KindAssessment, s.loader(uid),
		func(ctx context.Context, a *domain.Assessment) (*TranscriptionResponse, error) {
			text := next(a.Transcription)
			if err := s.assessments.SetAssessmentTranscription(ctx, uid, text); err != nil {
				return nil, notFoundOr(err, "assessment")
			}
			return &TranscriptionResponse{Transcription: text}, nil
		})
}

func transcriptOfAssessment(a *domain.Assessment) *string { return a.Transcription }

// Extract suggests assessment fields from the transcription. Nothing is saved.
func (s *AssessmentService) Extract(ctx context.Context, caller policy.Caller, uid string) (*llm.AssessmentExtraction, error) {
	if s.extractor == nil {
		return nil, policy.ErrUpstream("extraction is unavailable", errExtractorMissing)
	}
	out, err := policy.Extract(ctx, s.coord, caller, policy.KindAssessment, s.loader(uid), transcriptOfAssessment, s.extractor)
	s.observe("extract_assessment", err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Summarize returns a Markdown summary of the assessment conversation. Nothing is saved.
func (s *AssessmentService) Summarize(ctx context.Context, caller policy.Caller, uid string) (*SummaryResponse, error) {
	if s.summarizer == nil {
		return nil, policy.ErrUpstream("summarization is unavailable", errExtractorMissing)
	}
	a, err := policy.Load(ctx, s.coord, caller, policy.ActionSummarize, policy.KindAssessment, s.loader(uid))
	if err != nil {
		return nil, err
	}
	if a.Transcription == nil || strings.TrimSpace(*a.Transcription) == "" {
		return nil, policy.ErrBadRequest("no transcription to summarize")
	}
	summary, err := s.summarizer.Summarize(ctx, *a.Transcription)
	if err != nil {
		err = policy.ErrUpstream("summarization failed", err)
	}
	s.observe("summarize_assessment", err)
	if err != nil {
		s.logger.Warn("Summarization failed", zap.String("record_id", uid), zap.Error(err))
		return nil, err
	}
	return &SummaryResponse{Summary: summary}, nil
}

// observe counts upstream outcomes only; authorization and validation failures never reach the model.
func (s *AssessmentService) observe(op string, err error) {
	if s.metrics == nil {
		return
	}
	if err == nil || policy.CodeOf(err) == policy.CodeUpstream {
		s.metrics.ObserveUpstream(op, err)
	}
}
