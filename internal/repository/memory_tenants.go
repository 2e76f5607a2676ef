package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// MemoryTenantsRepo supports tenant management when DB is disabled.
type MemoryTenantsRepo struct {
	cascade
	mu      sync.RWMutex
	tenants map[string]domain.Tenant // uid -> Tenant
}

func NewMemoryTenantsRepo() *MemoryTenantsRepo {
	return &MemoryTenantsRepo{tenants: map[string]domain.Tenant{}}
}

var _ TenantsRepository = (*MemoryTenantsRepo)(nil)

func (r *MemoryTenantsRepo) GetTenant(_ context.Context, uid string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *MemoryTenantsRepo) ListTenants(_ context.Context) ([]*domain.Tenant, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		t := t
		all = append(all, &t)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name == all[j].Name {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].Name < all[j].Name
	})
	return all, len(all), nil
}

func (r *MemoryTenantsRepo) CreateTenant(_ context.Context, t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.UID == "" {
		t.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	r.tenants[t.UID] = *t
	return nil
}

func (r *MemoryTenantsRepo) UpdateTenant(_ context.Context, t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.tenants[t.UID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Name = t.Name
	cur.UpdatedAt = time.Now().UTC()
	r.tenants[t.UID] = cur
	*t = cur
	return nil
}

// DeleteTenant removes the tenant, then everything registered through OnDelete.
func (r *MemoryTenantsRepo) DeleteTenant(ctx context.Context, uid string) error {
	r.mu.Lock()
	if _, ok := r.tenants[uid]; !ok {
		r.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(r.tenants, uid)
	r.mu.Unlock()
	return r.run(ctx, uid)
}
