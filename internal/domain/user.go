package domain

import "time"

// Role 用户角色
type Role string

const (
	RoleGlobalAdmin Role = "GLOBAL_ADMIN"
	RoleTenantAdmin Role = "TENANT_ADMIN"
	RoleCaregiver   Role = "CAREGIVER"
)

// Roles lists every role in privilege order.
var Roles = []Role{RoleGlobalAdmin, RoleTenantAdmin, RoleCaregiver}

func (r Role) Valid() bool {
	switch r {
	case RoleGlobalAdmin, RoleTenantAdmin, RoleCaregiver:
		return true
	}
	return false
}

// IsAdmin reports whether the role administers a tenant (or all tenants).
func (r Role) IsAdmin() bool {
	return r == RoleGlobalAdmin || r == RoleTenantAdmin
}

// User 用户领域模型（对应 users 表）
type User struct {
	UID                string  `json:"uid" db:"uid"`
	LoginID            string  `json:"loginId" db:"login_id"` // UNIQUE
	FamilyName         string  `json:"familyName" db:"family_name"`
	GivenName          string  `json:"givenName" db:"given_name"`
	FamilyNameFurigana string  `json:"familyNameFurigana" db:"family_name_furigana"`
	GivenNameFurigana  string  `json:"givenNameFurigana" db:"given_name_furigana"`
	Role               Role    `json:"role" db:"role"`
	TenantUID          *string `json:"tenantUid" db:"tenant_uid"` // nil for GLOBAL_ADMIN

	PasswordDigest string `json:"-" db:"password_digest"` // bcrypt

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
