package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/models"
)

// logRepository implements the LogRepository interface
type logRepository struct {
	db *gorm.DB
}

// NewLogRepository creates a new outcome log repository instance
func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

// CreateReplyLog appends a reply outcome row
func (r *logRepository) CreateReplyLog(log *models.ReplyLog) error {
	return r.db.Create(log).Error
}

// CreateDMLog appends a DM outcome row
func (r *logRepository) CreateDMLog(log *models.DMLog) error {
	return r.db.Create(log).Error
}

// CreateAutomationLog appends an activity row
func (r *logRepository) CreateAutomationLog(log *models.AutomationLog) error {
	return r.db.Create(log).Error
}

// CountAutomationsSince counts a tenant's automation rows created at or after
// the given time. Quota accounting reads this against the start of the
// current calendar month.
func (r *logRepository) CountAutomationsSince(tenantID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.AutomationLog{}).
		Where("tenant_id = ? AND created_at >= ?", tenantID, since).
		Count(&count).Error
	return count, err
}
