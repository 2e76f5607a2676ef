package repository

import (
	"context"

	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// ChatRepository 聊天线程/消息Repository接口
type ChatRepository interface {
	GetThread(ctx context.Context, uid string) (*domain.Thread, error)
	ListThreads(ctx context.Context, userUID string) ([]*domain.Thread, int, error)
	CreateThread(ctx context.Context, t *domain.Thread) error
	UpdateThread(ctx context.Context, t *domain.Thread) error
	DeleteThread(ctx context.Context, uid string) error

	// ListMessages returns a thread's messages oldest first.
	ListMessages(ctx context.Context, threadUID string) ([]*domain.Message, error)
	CreateMessage(ctx context.Context, m *domain.Message) error
}

// QARepository 问答会话Repository接口
type QARepository interface {
	GetSession(ctx context.Context, uid string) (*domain.QASession, error)
	ListSessions(ctx context.Context, userUID string) ([]*domain.QASession, int, error)
	CreateSession(ctx context.Context, s *domain.QASession) error
	DeleteSession(ctx context.Context, uid string) error
	SetSessionTranscription(ctx context.Context, uid string, text *string) error

	ListQuestionAnswers(ctx context.Context, sessionUID string) ([]*domain.QuestionAnswer, error)
	GetQuestionAnswer(ctx context.Context, uid string) (*domain.QuestionAnswer, error)
	CreateQuestionAnswer(ctx context.Context, qa *domain.QuestionAnswer) error
	UpdateQuestionAnswer(ctx context.Context, qa *domain.QuestionAnswer) error
	DeleteQuestionAnswer(ctx context.Context, uid string) error

	// ReplaceQuestionAnswers deletes every Q/A of the session and inserts qas atomically.
	ReplaceQuestionAnswers(ctx context.Context, sessionUID string, qas []*domain.QuestionAnswer) error
}
