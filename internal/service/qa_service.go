package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/llm"
	"github.com/yuta0709/nagara-care-api/internal/metrics"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

// PairExtractor pulls question/answer pairs out of a transcript.
type PairExtractor interface {
	ExtractPairs(ctx context.Context, transcript string) ([]llm.QAPair, error)
}

// SessionRequest 创建会话
type SessionRequest struct {
	Title string `json:"title"`
}

// QuestionAnswerRequest 添加问答
type QuestionAnswerRequest struct {
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
}

// UpdateQuestionAnswerRequest 部分更新（nil 字段不变）
type UpdateQuestionAnswerRequest struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
}

// UpsertQuestionAnswersRequest replaces every Q/A of a session.
type UpsertQuestionAnswersRequest struct {
	QuestionAnswers []QuestionAnswerRequest `json:"questionAnswers"`
}

// QAPairsResponse 抽取结果（未保存）
type QAPairsResponse struct {
	QuestionAnswers []llm.QAPair `json:"questionAnswers"`
}

// QAService 问答会话，仅创建者可操作
type QAService struct {
	qa        repository.QARepository
	extractor PairExtractor
	metrics   *metrics.Registry
	logger    *zap.Logger
}

func NewQAService(qa repository.QARepository, extractor PairExtractor, m *metrics.Registry, logger *zap.Logger) *QAService {
	return &QAService{qa: qa, extractor: extractor, metrics: m, logger: logger}
}

func (s *QAService) ownSession(ctx context.Context, caller policy.Caller, uid string) (*domain.QASession, error) {
	sess, err := s.qa.GetSession(ctx, uid)
	if err != nil {
		return nil, notFoundOr(err, "session")
	}
	if sess.UserUID != caller.UserID {
		return nil, policy.ErrForbidden("session belongs to another user")
	}
	return sess, nil
}

// ownQuestionAnswer loads a Q/A and checks the caller owns its session.
func (s *QAService) ownQuestionAnswer(ctx context.Context, caller policy.Caller, uid string) (*domain.QuestionAnswer, error) {
	qa, err := s.qa.GetQuestionAnswer(ctx, uid)
	if err != nil {
		return nil, notFoundOr(err, "question answer")
	}
	if _, err := s.ownSession(ctx, caller, qa.QASessionUID); err != nil {
		return nil, err
	}
	return qa, nil
}

func (s *QAService) ListSessions(ctx context.Context, caller policy.Caller) (*ListResponse[*domain.QASession], error) {
	items, total, err := s.qa.ListSessions(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return newList(items, total), nil
}

func (s *QAService) CreateSession(ctx context.Context, caller policy.Caller, req SessionRequest) (*domain.QASession, error) {
	if err := required("title", req.Title); err != nil {
		return nil, err
	}
	sess := &domain.QASession{UserUID: caller.UserID, Title: strings.TrimSpace(req.Title)}
	if err := s.qa.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.QuestionAnswers = []*domain.QuestionAnswer{}
	return sess, nil
}

// GetSession returns the session with its Q/As in insertion order.
func (s *QAService) GetSession(ctx context.Context, caller policy.Caller, uid string) (*domain.QASession, error) {
	sess, err := s.ownSession(ctx, caller, uid)
	if err != nil {
		return nil, err
	}
	qas, err := s.qa.ListQuestionAnswers(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list question answers: %w", err)
	}
	if qas == nil {
		qas = []*domain.QuestionAnswer{}
	}
	sess.QuestionAnswers = qas
	return sess, nil
}

func (s *QAService) DeleteSession(ctx context.Context, caller policy.Caller, uid string) error {
	if _, err := s.ownSession(ctx, caller, uid); err != nil {
		return err
	}
	if err := s.qa.DeleteSession(ctx, uid); err != nil {
		return notFoundOr(err, "session")
	}
	return nil
}

func (s *QAService) AddQuestionAnswer(ctx context.Context, caller policy.Caller, sessionUID string, req QuestionAnswerRequest) (*domain.QuestionAnswer, error) {
	if err := required("question", req.Question); err != nil {
		return nil, err
	}
	if _, err := s.ownSession(ctx, caller, sessionUID); err != nil {
		return nil, err
	}
	qa := &domain.QuestionAnswer{QASessionUID: sessionUID, Question: req.Question, Answer: req.Answer}
	if err := s.qa.CreateQuestionAnswer(ctx, qa); err != nil {
		return nil, notFoundOr(err, "session")
	}
	return qa, nil
}

func (s *QAService) UpdateQuestionAnswer(ctx context.Context, caller policy.Caller, uid string, req UpdateQuestionAnswerRequest) (*domain.QuestionAnswer, error) {
	if req.Question != nil {
		if err := required("question", *req.Question); err != nil {
			return nil, err
		}
	}
	qa, err := s.ownQuestionAnswer(ctx, caller, uid)
	if err != nil {
		return nil, err
	}
	if req.Question != nil {
		qa.Question = *req.Question
	}
	if req.Answer != nil {
		qa.Answer = req.Answer
	}
	if err := s.qa.UpdateQuestionAnswer(ctx, qa); err != nil {
		return nil, notFoundOr(err, "question answer")
	}
	return qa, nil
}

func (s *QAService) DeleteQuestionAnswer(ctx context.Context, caller policy.Caller, uid string) error {
	if _, err := s.ownQuestionAnswer(ctx, caller, uid); err != nil {
		return err
	}
	if err := s.qa.DeleteQuestionAnswer(ctx, uid); err != nil {
		return notFoundOr(err, "question answer")
	}
	return nil
}

// UpsertQuestionAnswers swaps the session's Q/As for req in one step.
func (s *QAService) UpsertQuestionAnswers(ctx context.Context, caller policy.Caller, sessionUID string, req UpsertQuestionAnswersRequest) (*ListResponse[*domain.QuestionAnswer], error) {
	qas := make([]*domain.QuestionAnswer, 0, len(req.QuestionAnswers))
	for i, in := range req.QuestionAnswers {
		if err := required(fmt.Sprintf("questionAnswers[%d].question", i), in.Question); err != nil {
			return nil, err
		}
		qas = append(qas, &domain.QuestionAnswer{QASessionUID: sessionUID, Question: in.Question, Answer: in.Answer})
	}
	if _, err := s.ownSession(ctx, caller, sessionUID); err != nil {
		return nil, err
	}
	if err := s.qa.ReplaceQuestionAnswers(ctx, sessionUID, qas); err != nil {
		return nil, notFoundOr(err, "session")
	}
	return newList(qas, len(qas)), nil
}

// UpdateTranscription overwrites the session transcript; an empty text clears it.
func (s *QAService) UpdateTranscription(ctx context.Context, caller policy.Caller, uid, text string) (*TranscriptionResponse, error) {
	if _, err := s.ownSession(ctx, caller, uid); err != nil {
		return nil, err
	}
	next := policy.ReplaceTranscription(text)
	if strings.TrimSpace(text) == "" {
		next = policy.ClearTranscription()
	}
	if err := s.qa.SetSessionTranscription(ctx, uid, next); err != nil {
		return nil, notFoundOr(err, "session")
	}
	return &TranscriptionResponse{Transcription: next}, nil
}

// ExtractQAPairs suggests Q/A pairs from the session transcript. Nothing is saved.
func (s *QAService) ExtractQAPairs(ctx context.Context, caller policy.Caller, uid string) (*QAPairsResponse, error) {
	sess, err := s.ownSession(ctx, caller, uid)
	if err != nil {
		return nil, err
	}
	if sess.Transcription == nil || strings.TrimSpace(*sess.Transcription) == "" {
		return nil, policy.ErrBadRequest("no transcription to extract from")
	}
	if s.extractor == nil {
		return nil, policy.ErrUpstream("extraction is unavailable", errExtractorMissing)
	}
	pairs, err := s.extractor.ExtractPairs(ctx, *sess.Transcription)
	if s.metrics != nil {
		s.metrics.ObserveUpstream("extract_qa", err)
	}
	if err != nil {
		s.logger.Warn("QA extraction failed", zap.String("session_id", uid), zap.Error(err))
		return nil, policy.ErrUpstream("extraction failed", err)
	}
	if pairs == nil {
		pairs = []llm.QAPair{}
	}
	return &QAPairsResponse{QuestionAnswers: pairs}, nil
}
