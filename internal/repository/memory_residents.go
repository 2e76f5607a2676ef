package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// MemoryResidentsRepo 内存入住者库
type MemoryResidentsRepo struct {
	cascade
	mu        sync.RWMutex
	residents map[string]domain.Resident
}

func NewMemoryResidentsRepo() *MemoryResidentsRepo {
	return &MemoryResidentsRepo{residents: map[string]domain.Resident{}}
}

var _ ResidentsRepository = (*MemoryResidentsRepo)(nil)

func byFurigana(a, b domain.Person) bool {
	if a.FamilyNameFurigana == b.FamilyNameFurigana {
		return a.GivenNameFurigana < b.GivenNameFurigana
	}
	return a.FamilyNameFurigana < b.FamilyNameFurigana
}

func (m *MemoryResidentsRepo) GetResident(_ context.Context, uid string) (*domain.Resident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.residents[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *MemoryResidentsRepo) ListResidents(_ context.Context, tenantUID string) ([]*domain.Resident, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Resident
	for _, r := range m.residents {
		if r.TenantUID == tenantUID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return byFurigana(out[i].Person, out[j].Person) })
	return out, len(out), nil
}

func (m *MemoryResidentsRepo) CreateResident(_ context.Context, r *domain.Resident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.UID == "" {
		r.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	m.residents[r.UID] = *r
	return nil
}

func (m *MemoryResidentsRepo) UpdateResident(_ context.Context, r *domain.Resident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.residents[r.UID]
	if !ok {
		return domain.ErrNotFound
	}
	r.TenantUID = cur.TenantUID
	r.CreatedAt = cur.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	m.residents[r.UID] = *r
	return nil
}

func (m *MemoryResidentsRepo) DeleteResident(ctx context.Context, uid string) error {
	m.mu.Lock()
	if _, ok := m.residents[uid]; !ok {
		m.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(m.residents, uid)
	m.mu.Unlock()
	return m.run(ctx, uid)
}

func (m *MemoryResidentsRepo) DeleteByTenant(ctx context.Context, tenantUID string) (int, error) {
	m.mu.Lock()
	var removed []string
	for uid, r := range m.residents {
		if r.TenantUID == tenantUID {
			delete(m.residents, uid)
			removed = append(removed, uid)
		}
	}
	m.mu.Unlock()
	return len(removed), m.run(ctx, removed...)
}

// MemorySubjectsRepo 内存对象者库
type MemorySubjectsRepo struct {
	cascade
	mu       sync.RWMutex
	subjects map[string]domain.Subject
}

func NewMemorySubjectsRepo() *MemorySubjectsRepo {
	return &MemorySubjectsRepo{subjects: map[string]domain.Subject{}}
}

var _ SubjectsRepository = (*MemorySubjectsRepo)(nil)

func (m *MemorySubjectsRepo) GetSubject(_ context.Context, uid string) (*domain.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subjects[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *MemorySubjectsRepo) ListSubjects(_ context.Context, tenantUID string) ([]*domain.Subject, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Subject
	for _, s := range m.subjects {
		if s.TenantUID == tenantUID {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return byFurigana(out[i].Person, out[j].Person) })
	return out, len(out), nil
}

func (m *MemorySubjectsRepo) CreateSubject(_ context.Context, s *domain.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.UID == "" {
		s.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	m.subjects[s.UID] = *s
	return nil
}

func (m *MemorySubjectsRepo) UpdateSubject(_ context.Context, s *domain.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.subjects[s.UID]
	if !ok {
		return domain.ErrNotFound
	}
	s.TenantUID = cur.TenantUID
	s.CreatedAt = cur.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	m.subjects[s.UID] = *s
	return nil
}

func (m *MemorySubjectsRepo) DeleteSubject(ctx context.Context, uid string) error {
	m.mu.Lock()
	if _, ok := m.subjects[uid]; !ok {
		m.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(m.subjects, uid)
	m.mu.Unlock()
	return m.run(ctx, uid)
}

func (m *MemorySubjectsRepo) DeleteByTenant(ctx context.Context, tenantUID string) (int, error) {
	m.mu.Lock()
	var removed []string
	for uid, s := range m.subjects {
		if s.TenantUID == tenantUID {
			delete(m.subjects, uid)
			removed = append(removed, uid)
		}
	}
	m.mu.Unlock()
	return len(removed), m.run(ctx, removed...)
}
