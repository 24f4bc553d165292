package models

import "time"

const (
	LOG_STATUS_PENDING = "PENDING"
	LOG_STATUS_SUCCESS = "SUCCESS"
	LOG_STATUS_FAILED  = "FAILED"
	LOG_STATUS_SKIPPED = "SKIPPED"
)

// ReplyLog records the terminal result of one public-reply attempt.
// Rows are append-only; exactly one row is written per terminal attempt.
type ReplyLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	CommentID string    `gorm:"type:varchar(64);not null;index" json:"comment_id"`
	MediaID   string    `gorm:"type:varchar(64)" json:"media_id"`
	Username  string    `gorm:"type:varchar(150)" json:"username"`
	ReplyText string    `gorm:"type:text" json:"reply_text"`
	Status    string    `gorm:"type:varchar(20);not null;index" json:"status"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
