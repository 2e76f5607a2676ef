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
	"github.com/yuta0709/nagara-care-api/internal/vectorstore"
	"go.uber.org/zap"
)

// ChatModel answers a conversation.
type ChatModel interface {
	Chat(ctx context.Context, messages []llm.ChatMessage) (string, error)
}

const (
	retrievalK        = 5
	threadTitleLayout = "2006/01/02"
)

const chatSystemPrompt = `あなたは介護施設のスタッフを支援するアシスタントです。
以下は施設の記録から検索された参考情報です。質問に関係する情報があれば根拠として使い、記録にないことは推測せず「記録が見つかりません」と答えてください。

参考情報:
%s`

// ThreadRequest 线程重命名
type ThreadRequest struct {
	Title string `json:"title"`
}

// MessageRequest 投稿
type MessageRequest struct {
	Content string `json:"content"`
}

// PostMessageResponse is the persisted user message and the assistant's reply.
type PostMessageResponse struct {
	UserMessage      *domain.Message `json:"userMessage"`
	AssistantMessage *domain.Message `json:"assistantMessage"`
}

// ChatService 带记录检索的对话，线程仅创建者可访问
type ChatService struct {
	coord    *policy.Coordinator
	chats    repository.ChatRepository
	searcher vectorstore.Searcher
	model    ChatModel
	metrics  *metrics.Registry
	logger   *zap.Logger
}

func NewChatService(coord *policy.Coordinator, chats repository.ChatRepository, searcher vectorstore.Searcher,
	model ChatModel, m *metrics.Registry, logger *zap.Logger) *ChatService {
	return &ChatService{coord: coord, chats: chats, searcher: searcher, model: model, metrics: m, logger: logger}
}

func (s *ChatService) ownThread(ctx context.Context, caller policy.Caller, uid string) (*domain.Thread, error) {
	t, err := s.chats.GetThread(ctx, uid)
	if err != nil {
		return nil, notFoundOr(err, "thread")
	}
	if t.CreatedByUID != caller.UserID {
		return nil, policy.ErrForbidden("thread belongs to another user")
	}
	return t, nil
}

func (s *ChatService) ListThreads(ctx context.Context, caller policy.Caller) (*ListResponse[*domain.Thread], error) {
	items, total, err := s.chats.ListThreads(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return newList(items, total), nil
}

// CreateThread opens a thread titled with today's date.
func (s *ChatService) CreateThread(ctx context.Context, caller policy.Caller) (*domain.Thread, error) {
	t := &domain.Thread{
		Title:        s.coord.Now().In(jst).Format(threadTitleLayout),
		CreatedByUID: caller.UserID,
	}
	if err := s.chats.CreateThread(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return t, nil
}

// GetThread returns the thread with its messages oldest first.
func (s *ChatService) GetThread(ctx context.Context, caller policy.Caller, uid string) (*domain.Thread, error) {
	t, err := s.ownThread(ctx, caller, uid)
	if err != nil {
		return nil, err
	}
	msgs, err := s.chats.ListMessages(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	t.Messages = msgs
	return t, nil
}

func (s *ChatService) UpdateThread(ctx context.Context, caller policy.Caller, uid string, req ThreadRequest) (*domain.Thread, error) {
	if err := required("title", req.Title); err != nil {
		return nil, err
	}
	t, err := s.ownThread(ctx, caller, uid)
	if err != nil {
		return nil, err
	}
	t.Title = strings.TrimSpace(req.Title)
	if err := s.chats.UpdateThread(ctx, t); err != nil {
		return nil, notFoundOr(err, "thread")
	}
	return t, nil
}

func (s *ChatService) DeleteThread(ctx context.Context, caller policy.Caller, uid string) error {
	if _, err := s.ownThread(ctx, caller, uid); err != nil {
		return err
	}
	if err := s.chats.DeleteThread(ctx, uid); err != nil {
		return notFoundOr(err, "thread")
	}
	return nil
}

// searchFilter limits retrieval to the caller's tenant; GLOBAL_ADMIN searches everything.
func searchFilter(caller policy.Caller) map[string]any {
	if caller.IsGlobalAdmin() {
		return nil
	}
	return map[string]any{"tenantUid": map[string]any{"$eq": caller.Tenant()}}
}

// PostMessage stores the user's message, answers it from retrieved records and
// stores the reply. The user message is kept even when the model call fails.
func (s *ChatService) PostMessage(ctx context.Context, caller policy.Caller, threadUID string, req MessageRequest) (*PostMessageResponse, error) {
	if err := required("content", req.Content); err != nil {
		return nil, err
	}
	if _, err := s.ownThread(ctx, caller, threadUID); err != nil {
		return nil, err
	}
	if s.model == nil || s.searcher == nil {
		return nil, policy.ErrUpstream("chat is unavailable", errExtractorMissing)
	}

	history, err := s.chats.ListMessages(ctx, threadUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	userMsg := &domain.Message{ThreadUID: threadUID, Role: domain.MessageRoleUser, Content: req.Content}
	if err := s.chats.CreateMessage(ctx, userMsg); err != nil {
		return nil, notFoundOr(err, "thread")
	}

	docs, err := s.searcher.SimilaritySearch(ctx, req.Content, retrievalK, searchFilter(caller))
	s.observe("retrieve", err)
	if err != nil {
		s.logger.Warn("Retrieval failed", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, policy.ErrUpstream("retrieval failed", err)
	}

	msgs := make([]llm.ChatMessage, 0, len(history)+2)
	msgs = append(msgs, llm.ChatMessage{Role: llm.RoleSystem, Content: fmt.Sprintf(chatSystemPrompt, joinDocuments(docs))})
	for _, m := range history {
		switch m.Role {
		case domain.MessageRoleUser:
			msgs = append(msgs, llm.ChatMessage{Role: llm.RoleUser, Content: m.Content})
		case domain.MessageRoleAssistant:
			msgs = append(msgs, llm.ChatMessage{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	msgs = append(msgs, llm.ChatMessage{Role: llm.RoleUser, Content: req.Content})

	answer, err := s.model.Chat(ctx, msgs)
	s.observe("chat", err)
	if err != nil {
		s.logger.Warn("Chat completion failed", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, policy.ErrUpstream("chat completion failed", err)
	}

	reply := &domain.Message{ThreadUID: threadUID, Role: domain.MessageRoleAssistant, Content: answer}
	if err := s.chats.CreateMessage(ctx, reply); err != nil {
		return nil, notFoundOr(err, "thread")
	}
	return &PostMessageResponse{UserMessage: userMsg, AssistantMessage: reply}, nil
}

func joinDocuments(docs []vectorstore.Document) string {
	if len(docs) == 0 {
		return "（該当する記録はありません）"
	}
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.PageContent
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func (s *ChatService) observe(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveUpstream(op, err)
	}
}
