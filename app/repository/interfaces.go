package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/models"
)

// AccountRepository defines the interface for platform account operations
type AccountRepository interface {
	Create(account *models.PlatformAccount) error
	GetByID(id uint) (*models.PlatformAccount, error)
	GetByPlatformID(platformID string) (*models.PlatformAccount, error)
	GetLatestByTenantID(tenantID uint) (*models.PlatformAccount, error)
	Update(account *models.PlatformAccount) error
	CountByTenantID(tenantID uint) (int64, error)
}

// TemplateRepository defines the interface for template operations
type TemplateRepository interface {
	Create(template *models.Template) error
	GetByID(tenantID, id uint, kind string) (*models.Template, error)
	GetDefault(tenantID uint, kind string) (*models.Template, error)
	CountByTenantID(tenantID uint) (int64, error)
}

// EventRepository defines the interface for webhook event operations
type EventRepository interface {
	Create(event *models.WebhookEvent) error
	GetByID(id uint) (*models.WebhookEvent, error)
	GetByTenantID(tenantID uint, id uint) (*models.WebhookEvent, error)
	List(tenantID uint, processed *bool, eventType string, offset, limit int) ([]models.WebhookEvent, int64, error)
	MarkProcessed(id uint, processed bool) error
}

// LogRepository defines the interface for outcome log operations.
// All writes are append-only.
type LogRepository interface {
	CreateReplyLog(log *models.ReplyLog) error
	CreateDMLog(log *models.DMLog) error
	CreateAutomationLog(log *models.AutomationLog) error
	CountAutomationsSince(tenantID uint, since time.Time) (int64, error)
}

// SubscriptionRepository defines the interface for subscription lookups
type SubscriptionRepository interface {
	GetEntitling(tenantID uint) (*models.Subscription, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Account      AccountRepository
	Template     TemplateRepository
	Event        EventRepository
	Log          LogRepository
	Subscription SubscriptionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Account:      NewAccountRepository(db),
		Template:     NewTemplateRepository(db),
		Event:        NewEventRepository(db),
		Log:          NewLogRepository(db),
		Subscription: NewSubscriptionRepository(db),
	}
}
