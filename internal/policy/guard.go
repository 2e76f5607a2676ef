package policy

import "github.com/yuta0709/nagara-care-api/internal/domain"

// CheckTenantAccess allows GLOBAL_ADMIN everywhere and everyone else only inside their own tenant.
func CheckTenantAccess(caller Caller, resourceTenantID string) error {
	if caller.IsGlobalAdmin() {
		return nil
	}
	if caller.TenantID == nil || *caller.TenantID != resourceTenantID {
		return ErrForbidden("access to another tenant's data is not allowed")
	}
	return nil
}

// RequireRole fails with Forbidden unless the caller holds one of roles.
// It is the route-level allow-list for endpoints outside the record capability table.
func RequireRole(caller Caller, roles ...domain.Role) error {
	for _, r := range roles {
		if r == caller.Role {
			return nil
		}
	}
	return ErrForbidden("role not permitted")
}

// RequireAdmin is RequireRole(GLOBAL_ADMIN, TENANT_ADMIN).
func RequireAdmin(caller Caller) error {
	return RequireRole(caller, domain.RoleGlobalAdmin, domain.RoleTenantAdmin)
}
