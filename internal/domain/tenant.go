package domain

import "time"

// Tenant 租户（介护施設）领域模型（对应 tenants 表）
type Tenant struct {
	UID       string    `json:"uid" db:"uid"`   // UUID, PRIMARY KEY
	Name      string    `json:"name" db:"name"` // VARCHAR(255), NOT NULL
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
