package models

import "time"

const (
	AUTOMATION_ACTION_COMMENT_REPLY = "COMMENT_REPLY"
	AUTOMATION_ACTION_SEND_DM       = "SEND_DM"
)

// AutomationLog is the coarse-grained activity record consumed by the
// tenant-facing dashboard. Rows in the current billing month also drive
// quota accounting, so it is written once per successful automation.
type AutomationLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index:idx_automation_logs_tenant_created,priority:1" json:"tenant_id"`
	Action    string    `gorm:"type:varchar(50);not null;index" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	Status    string    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_automation_logs_tenant_created,priority:2" json:"created_at"`
}
