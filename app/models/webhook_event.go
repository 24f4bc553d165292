package models

import "time"

// WebhookEvent stores every accepted inbound change as an immutable record.
// It is created by the ingestion endpoint before any job is enqueued and its
// Processed flag is flipped only after the dispatched job reached a terminal
// state, so a crash between dispatch and completion leaves it eligible for
// re-dispatch via the retry endpoint.
type WebhookEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	Type      string    `gorm:"type:varchar(50);not null;index" json:"type"`
	Payload   string    `gorm:"type:longtext;not null" json:"payload"`
	Processed bool      `gorm:"default:false;index" json:"processed"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
