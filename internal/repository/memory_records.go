package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// MemoryRecordRepo 内存观察记录库；所有读写都经过 clone，调用方拿到的是副本
type MemoryRecordRepo[T domain.Record] struct {
	mu      sync.RWMutex
	records map[string]T
	clone   func(T) T
}

func newMemoryRecordRepo[T domain.Record](clone func(T) T) *MemoryRecordRepo[T] {
	return &MemoryRecordRepo[T]{records: map[string]T{}, clone: clone}
}

func (m *MemoryRecordRepo[T]) Get(_ context.Context, uid string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[uid]
	if !ok {
		var zero T
		return zero, domain.ErrNotFound
	}
	return m.clone(rec), nil
}

func (m *MemoryRecordRepo[T]) ListByResident(_ context.Context, residentUID string, f RecordFilter) ([]T, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []T
	for _, rec := range m.records {
		b := rec.Base()
		if b.ResidentUID == residentUID && f.match(b.RecordedAt) {
			out = append(out, m.clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Base().RecordedAt.After(out[j].Base().RecordedAt)
	})
	return out, len(out), nil
}

func (m *MemoryRecordRepo[T]) Create(_ context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := rec.Base()
	if b.UID == "" {
		b.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	if b.RecordedAt.IsZero() {
		b.RecordedAt = now
	}
	b.CreatedAt, b.UpdatedAt = now, now
	m.records[b.UID] = m.clone(rec)
	return nil
}

func (m *MemoryRecordRepo[T]) Update(_ context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := rec.Base()
	cur, ok := m.records[b.UID]
	if !ok {
		return domain.ErrNotFound
	}
	cb := cur.Base()
	b.TenantUID, b.ResidentUID, b.CaregiverUID = cb.TenantUID, cb.ResidentUID, cb.CaregiverUID
	b.Transcription = cloneStr(cb.Transcription)
	b.CreatedAt = cb.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	m.records[b.UID] = m.clone(rec)
	return nil
}

func (m *MemoryRecordRepo[T]) Delete(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[uid]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, uid)
	return nil
}

func (m *MemoryRecordRepo[T]) deleteWhere(match func(b *domain.RecordBase) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for uid, rec := range m.records {
		if match(rec.Base()) {
			delete(m.records, uid)
			n++
		}
	}
	return n
}

func (m *MemoryRecordRepo[T]) DeleteByTenant(_ context.Context, tenantUID string) (int, error) {
	return m.deleteWhere(func(b *domain.RecordBase) bool { return b.TenantUID == tenantUID }), nil
}

func (m *MemoryRecordRepo[T]) DeleteByResident(_ context.Context, residentUID string) (int, error) {
	return m.deleteWhere(func(b *domain.RecordBase) bool { return b.ResidentUID == residentUID }), nil
}

func (m *MemoryRecordRepo[T]) DeleteByCaregiver(_ context.Context, userUID string) (int, error) {
	return m.deleteWhere(func(b *domain.RecordBase) bool { return b.CaregiverUID == userUID }), nil
}

func (m *MemoryRecordRepo[T]) SetTranscription(_ context.Context, uid string, text *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[uid]
	if !ok {
		return domain.ErrNotFound
	}
	b := rec.Base()
	b.Transcription = cloneStr(text)
	b.UpdatedAt = time.Now().UTC()
	return nil
}
