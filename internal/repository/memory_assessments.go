package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// MemoryAssessmentsRepo 内存评估库
type MemoryAssessmentsRepo struct {
	mu    sync.RWMutex
	items map[string]*domain.Assessment
}

func NewMemoryAssessmentsRepo() *MemoryAssessmentsRepo {
	return &MemoryAssessmentsRepo{items: map[string]*domain.Assessment{}}
}

var _ AssessmentsRepository = (*MemoryAssessmentsRepo)(nil)

func cloneAssessment(a *domain.Assessment) *domain.Assessment {
	c := *a
	for _, f := range c.AssessmentText.Fields() {
		*f.Ptr = cloneStr(*f.Ptr)
	}
	c.Transcription = cloneStr(a.Transcription)
	return &c
}

func (m *MemoryAssessmentsRepo) GetAssessment(_ context.Context, uid string) (*domain.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.items[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneAssessment(a), nil
}

func (m *MemoryAssessmentsRepo) GetAssessmentBySubject(_ context.Context, subjectUID string) (*domain.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.items {
		if a.SubjectUID == subjectUID {
			return cloneAssessment(a), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MemoryAssessmentsRepo) ListAssessments(_ context.Context, tenantUID string) ([]*domain.Assessment, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Assessment
	for _, a := range m.items {
		if a.TenantUID == tenantUID {
			out = append(out, cloneAssessment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (m *MemoryAssessmentsRepo) CreateAssessment(_ context.Context, a *domain.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.items {
		if cur.SubjectUID == a.SubjectUID {
			return fmt.Errorf("assessment for subject %s: %w", a.SubjectUID, domain.ErrAlreadyExists)
		}
	}
	if a.UID == "" {
		a.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	m.items[a.UID] = cloneAssessment(a)
	return nil
}

func (m *MemoryAssessmentsRepo) UpdateAssessment(_ context.Context, a *domain.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[a.UID]
	if !ok {
		return domain.ErrNotFound
	}
	a.TenantUID, a.SubjectUID, a.CreatedAt = cur.TenantUID, cur.SubjectUID, cur.CreatedAt
	a.Transcription = cloneStr(cur.Transcription)
	a.UpdatedAt = time.Now().UTC()
	m.items[a.UID] = cloneAssessment(a)
	return nil
}

func (m *MemoryAssessmentsRepo) DeleteAssessment(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[uid]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, uid)
	return nil
}

func (m *MemoryAssessmentsRepo) deleteWhere(match func(a *domain.Assessment) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for uid, a := range m.items {
		if match(a) {
			delete(m.items, uid)
			n++
		}
	}
	return n
}

func (m *MemoryAssessmentsRepo) DeleteByTenant(_ context.Context, tenantUID string) (int, error) {
	return m.deleteWhere(func(a *domain.Assessment) bool { return a.TenantUID == tenantUID }), nil
}

func (m *MemoryAssessmentsRepo) DeleteBySubject(_ context.Context, subjectUID string) (int, error) {
	return m.deleteWhere(func(a *domain.Assessment) bool { return a.SubjectUID == subjectUID }), nil
}

func (m *MemoryAssessmentsRepo) SetAssessmentTranscription(_ context.Context, uid string, text *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[uid]
	if !ok {
		return domain.ErrNotFound
	}
	a.Transcription = cloneStr(text)
	a.UpdatedAt = time.Now().UTC()
	return nil
}
