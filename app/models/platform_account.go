package models

import "time"

// PlatformAccount is a connected social-media business account, identified
// by the platform-assigned id carried in webhook payloads. The pipeline
// treats it as read-only configuration; the management API owns mutations.
type PlatformAccount struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	TenantID        uint       `gorm:"not null;index" json:"tenant_id"`
	PlatformID      string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"platform_id" validate:"required"`
	Username        string     `gorm:"type:varchar(150)" json:"username"`
	AccessToken     string     `gorm:"type:text;not null" json:"-" validate:"required"`
	EnableAutoReply bool       `gorm:"default:true" json:"enable_auto_reply"`
	ReplyTemplateID *uint      `gorm:"default:null" json:"reply_template_id,omitempty"`
	DMTemplateID    *uint      `gorm:"default:null" json:"dm_template_id,omitempty"`
	ConnectedAt     *time.Time `gorm:"type:timestamp;default:null" json:"connected_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
