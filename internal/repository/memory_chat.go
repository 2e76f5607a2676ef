package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// MemoryChatRepo 内存聊天库
type MemoryChatRepo struct {
	mu       sync.RWMutex
	threads  map[string]domain.Thread
	messages map[string][]domain.Message // thread uid -> messages (append order)
}

func NewMemoryChatRepo() *MemoryChatRepo {
	return &MemoryChatRepo{threads: map[string]domain.Thread{}, messages: map[string][]domain.Message{}}
}

var _ ChatRepository = (*MemoryChatRepo)(nil)

func (m *MemoryChatRepo) GetThread(_ context.Context, uid string) (*domain.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.threads[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (m *MemoryChatRepo) ListThreads(_ context.Context, userUID string) ([]*domain.Thread, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Thread
	for _, t := range m.threads {
		if t.CreatedByUID == userUID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, len(out), nil
}

func (m *MemoryChatRepo) CreateThread(_ context.Context, t *domain.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.UID == "" {
		t.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	stored := *t
	stored.Messages = nil
	m.threads[t.UID] = stored
	return nil
}

func (m *MemoryChatRepo) UpdateThread(_ context.Context, t *domain.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.threads[t.UID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Title = t.Title
	cur.UpdatedAt = time.Now().UTC()
	m.threads[t.UID] = cur
	*t = cur
	return nil
}

func (m *MemoryChatRepo) DeleteThread(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.threads[uid]; !ok {
		return domain.ErrNotFound
	}
	delete(m.threads, uid)
	delete(m.messages, uid)
	return nil
}

func (m *MemoryChatRepo) DeleteByUser(_ context.Context, userUID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for uid, t := range m.threads {
		if t.CreatedByUID == userUID {
			delete(m.threads, uid)
			delete(m.messages, uid)
			n++
		}
	}
	return n, nil
}

func (m *MemoryChatRepo) ListMessages(_ context.Context, threadUID string) ([]*domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.messages[threadUID]
	out := make([]*domain.Message, 0, len(src))
	for _, msg := range src {
		msg := msg
		out = append(out, &msg)
	}
	return out, nil
}

func (m *MemoryChatRepo) CreateMessage(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[msg.ThreadUID]
	if !ok {
		return domain.ErrNotFound
	}
	if msg.UID == "" {
		msg.UID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	m.messages[msg.ThreadUID] = append(m.messages[msg.ThreadUID], *msg)
	t.UpdatedAt = msg.CreatedAt
	m.threads[t.UID] = t
	return nil
}

// MemoryQARepo 内存问答库
type MemoryQARepo struct {
	mu       sync.RWMutex
	sessions map[string]domain.QASession
	qas      map[string]domain.QuestionAnswer
	seq      int64 // keeps insertion order stable when timestamps collide
	order    map[string]int64
}

func NewMemoryQARepo() *MemoryQARepo {
	return &MemoryQARepo{
		sessions: map[string]domain.QASession{},
		qas:      map[string]domain.QuestionAnswer{},
		order:    map[string]int64{},
	}
}

var _ QARepository = (*MemoryQARepo)(nil)

func (m *MemoryQARepo) GetSession(_ context.Context, uid string) (*domain.QASession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.Transcription = cloneStr(s.Transcription)
	return &s, nil
}

func (m *MemoryQARepo) ListSessions(_ context.Context, userUID string) ([]*domain.QASession, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.QASession
	for _, s := range m.sessions {
		if s.UserUID == userUID {
			s := s
			s.Transcription = cloneStr(s.Transcription)
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return m.order[out[i].UID] > m.order[out[j].UID]
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, len(out), nil
}

func (m *MemoryQARepo) CreateSession(_ context.Context, s *domain.QASession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.UID == "" {
		s.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	stored := *s
	stored.QuestionAnswers = nil
	stored.Transcription = cloneStr(s.Transcription)
	m.sessions[s.UID] = stored
	m.seq++
	m.order[s.UID] = m.seq
	return nil
}

func (m *MemoryQARepo) DeleteSession(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[uid]; !ok {
		return domain.ErrNotFound
	}
	delete(m.sessions, uid)
	for id, qa := range m.qas {
		if qa.QASessionUID == uid {
			delete(m.qas, id)
		}
	}
	return nil
}

func (m *MemoryQARepo) DeleteByUser(_ context.Context, userUID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gone := map[string]bool{}
	for uid, s := range m.sessions {
		if s.UserUID == userUID {
			delete(m.sessions, uid)
			delete(m.order, uid)
			gone[uid] = true
		}
	}
	for id, qa := range m.qas {
		if gone[qa.QASessionUID] {
			delete(m.qas, id)
		}
	}
	return len(gone), nil
}

func (m *MemoryQARepo) SetSessionTranscription(_ context.Context, uid string, text *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[uid]
	if !ok {
		return domain.ErrNotFound
	}
	s.Transcription = cloneStr(text)
	s.UpdatedAt = time.Now().UTC()
	m.sessions[uid] = s
	return nil
}

func (m *MemoryQARepo) ListQuestionAnswers(_ context.Context, sessionUID string) ([]*domain.QuestionAnswer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.QuestionAnswer
	for _, qa := range m.qas {
		if qa.QASessionUID == sessionUID {
			qa := qa
			qa.Answer = cloneStr(qa.Answer)
			out = append(out, &qa)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].UID] < m.order[out[j].UID] })
	return out, nil
}

func (m *MemoryQARepo) GetQuestionAnswer(_ context.Context, uid string) (*domain.QuestionAnswer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qa, ok := m.qas[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	qa.Answer = cloneStr(qa.Answer)
	return &qa, nil
}

func (m *MemoryQARepo) insertLocked(qa *domain.QuestionAnswer) {
	if qa.UID == "" {
		qa.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	qa.CreatedAt, qa.UpdatedAt = now, now
	stored := *qa
	stored.Answer = cloneStr(qa.Answer)
	m.qas[qa.UID] = stored
	m.seq++
	m.order[qa.UID] = m.seq
}

func (m *MemoryQARepo) CreateQuestionAnswer(_ context.Context, qa *domain.QuestionAnswer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[qa.QASessionUID]; !ok {
		return domain.ErrNotFound
	}
	m.insertLocked(qa)
	return nil
}

func (m *MemoryQARepo) UpdateQuestionAnswer(_ context.Context, qa *domain.QuestionAnswer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.qas[qa.UID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Question = qa.Question
	cur.Answer = cloneStr(qa.Answer)
	cur.UpdatedAt = time.Now().UTC()
	m.qas[qa.UID] = cur
	*qa = cur
	return nil
}

func (m *MemoryQARepo) DeleteQuestionAnswer(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.qas[uid]; !ok {
		return domain.ErrNotFound
	}
	delete(m.qas, uid)
	return nil
}

func (m *MemoryQARepo) ReplaceQuestionAnswers(_ context.Context, sessionUID string, qas []*domain.QuestionAnswer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionUID]; !ok {
		return domain.ErrNotFound
	}
	for id, qa := range m.qas {
		if qa.QASessionUID == sessionUID {
			delete(m.qas, id)
		}
	}
	for _, qa := range qas {
		qa.QASessionUID = sessionUID
		m.insertLocked(qa)
	}
	return nil
}
