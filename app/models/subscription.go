package models

import (
	"strings"
	"time"
)

const (
	SUB_STATUS_ACTIVE    = "ACTIVE"
	SUB_STATUS_TRIALING  = "TRIALING"
	SUB_STATUS_PAST_DUE  = "PAST_DUE"
	SUB_STATUS_CANCELLED = "CANCELLED"
)

// Subscription mirrors the billing collaborator's state for a tenant.
// The core only reads it to resolve plan limits; absence of an entitling
// subscription implies the free tier.
type Subscription struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	TenantID         uint       `gorm:"not null;index" json:"tenant_id"`
	PlanID           string     `gorm:"type:varchar(50);not null" json:"plan_id"`
	Status           string     `gorm:"type:varchar(20);not null;index" json:"status"`
	CurrentPeriodEnd *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsEntitling reports whether this subscription grants its plan's limits.
func (s *Subscription) IsEntitling() bool {
	switch strings.ToUpper(strings.TrimSpace(s.Status)) {
	case SUB_STATUS_ACTIVE, SUB_STATUS_TRIALING:
		return true
	default:
		return false
	}
}
