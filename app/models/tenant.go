package models

import "time"

const (
	TENANT_STATUS_ACTIVE    = "active"
	TENANT_STATUS_SUSPENDED = "suspended"
)

// Tenant is an independent customer organization. All automation data,
// quotas and logs are scoped to it.
type Tenant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Status    string    `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active suspended"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
