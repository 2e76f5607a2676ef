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

// MemoryUsersRepo 内存用户库（DB 未就绪时使用）
type MemoryUsersRepo struct {
	cascade
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewMemoryUsersRepo() *MemoryUsersRepo {
	return &MemoryUsersRepo{users: map[string]domain.User{}}
}

var _ UsersRepository = (*MemoryUsersRepo)(nil)

func copyUser(u domain.User) *domain.User {
	u.TenantUID = cloneStr(u.TenantUID)
	return &u
}

func (r *MemoryUsersRepo) GetUser(_ context.Context, uid string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryUsersRepo) GetUserByLoginID(_ context.Context, loginID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.LoginID == loginID {
			return copyUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryUsersRepo) ListUsersByTenant(_ context.Context, tenantUID string) ([]*domain.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.User
	for _, u := range r.users {
		if u.TenantUID != nil && *u.TenantUID == tenantUID {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FamilyNameFurigana == out[j].FamilyNameFurigana {
			return out[i].GivenNameFurigana < out[j].GivenNameFurigana
		}
		return out[i].FamilyNameFurigana < out[j].FamilyNameFurigana
	})
	return out, len(out), nil
}

func (r *MemoryUsersRepo) loginTaken(loginID, exceptUID string) bool {
	for _, u := range r.users {
		if u.LoginID == loginID && u.UID != exceptUID {
			return true
		}
	}
	return false
}

func (r *MemoryUsersRepo) CreateUser(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loginTaken(u.LoginID, "") {
		return fmt.Errorf("login_id %q: %w", u.LoginID, domain.ErrAlreadyExists)
	}
	if u.UID == "" {
		u.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.UID] = *copyUser(*u)
	return nil
}

func (r *MemoryUsersRepo) UpdateUser(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.UID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.loginTaken(u.LoginID, u.UID) {
		return fmt.Errorf("login_id %q: %w", u.LoginID, domain.ErrAlreadyExists)
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	r.users[u.UID] = *copyUser(*u)
	return nil
}

func (r *MemoryUsersRepo) DeleteUser(ctx context.Context, uid string) error {
	r.mu.Lock()
	if _, ok := r.users[uid]; !ok {
		r.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(r.users, uid)
	r.mu.Unlock()
	return r.run(ctx, uid)
}

func (r *MemoryUsersRepo) DeleteUsersByTenant(ctx context.Context, tenantUID string) (int, error) {
	r.mu.Lock()
	var removed []string
	for uid, u := range r.users {
		if u.TenantUID != nil && *u.TenantUID == tenantUID {
			delete(r.users, uid)
			removed = append(removed, uid)
		}
	}
	r.mu.Unlock()
	return len(removed), r.run(ctx, removed...)
}

func (r *MemoryUsersRepo) UpsertUserByLoginID(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for uid, cur := range r.users {
		if cur.LoginID == u.LoginID {
			u.UID = uid
			u.CreatedAt = cur.CreatedAt
			u.UpdatedAt = now
			r.users[uid] = *copyUser(*u)
			return nil
		}
	}
	if u.UID == "" {
		u.UID = uuid.NewString()
	}
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.UID] = *copyUser(*u)
	return nil
}
