package models

import "time"

// DMLog records the terminal result of one direct-message attempt.
type DMLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TenantID    uint      `gorm:"not null;index" json:"tenant_id"`
	RecipientID string    `gorm:"type:varchar(64)" json:"recipient_id"`
	Username    string    `gorm:"type:varchar(150)" json:"username"`
	MessageText string    `gorm:"type:text" json:"message_text"`
	Status      string    `gorm:"type:varchar(20);not null;index" json:"status"`
	Error       string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
