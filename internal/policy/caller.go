// Package policy holds the tenant-scoped authorization and record-mutability rules.
// Everything here is pure: callers load records and pass them in.
package policy

import "github.com/yuta0709/nagara-care-api/internal/domain"

// Caller is the authenticated actor of one request.
type Caller struct {
	UserID   string
	TenantID *string // nil for GLOBAL_ADMIN
	Role     domain.Role
}

// CallerFromUser builds the caller for a loaded user row.
func CallerFromUser(u *domain.User) Caller {
	c := Caller{UserID: u.UID, Role: u.Role}
	if u.TenantUID != nil {
		t := *u.TenantUID
		c.TenantID = &t
	}
	return c
}

func (c Caller) IsGlobalAdmin() bool { return c.Role == domain.RoleGlobalAdmin }

func (c Caller) IsAdmin() bool { return c.Role.IsAdmin() }

// Tenant returns the caller's home tenant or "" for a tenant-less caller.
func (c Caller) Tenant() string {
	if c.TenantID == nil {
		return ""
	}
	return *c.TenantID
}
