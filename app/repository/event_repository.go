package repository

import (
	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/models"
)

// eventRepository implements the EventRepository interface
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new webhook event repository instance
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create persists a new webhook event row
func (r *eventRepository) Create(event *models.WebhookEvent) error {
	return r.db.Create(event).Error
}

// GetByID retrieves a webhook event by id
func (r *eventRepository) GetByID(id uint) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetByTenantID retrieves a webhook event scoped to a tenant
func (r *eventRepository) GetByTenantID(tenantID uint, id uint) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns a page of events for a tenant, newest first, optionally
// filtered by processed flag and event type.
func (r *eventRepository) List(tenantID uint, processed *bool, eventType string, offset, limit int) ([]models.WebhookEvent, int64, error) {
	query := r.db.Model(&models.WebhookEvent{}).Where("tenant_id = ?", tenantID)
	if processed != nil {
		query = query.Where("processed = ?", *processed)
	}
	if eventType != "" {
		query = query.Where("type = ?", eventType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.WebhookEvent
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// MarkProcessed flips the processed flag on an event
func (r *eventRepository) MarkProcessed(id uint, processed bool) error {
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).
		Update("processed", processed).Error
}
