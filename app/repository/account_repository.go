package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/models"
)

// accountRepository implements the AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new platform account repository instance
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new platform account in the database
func (r *accountRepository) Create(account *models.PlatformAccount) error {
	return r.db.Create(account).Error
}

// GetByID retrieves a platform account by its primary key
func (r *accountRepository) GetByID(id uint) (*models.PlatformAccount, error) {
	var account models.PlatformAccount
	err := r.db.First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByPlatformID resolves the platform-assigned account id carried in
// webhook payloads to the locally connected account.
func (r *accountRepository) GetByPlatformID(platformID string) (*models.PlatformAccount, error) {
	trimmed := strings.TrimSpace(platformID)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var account models.PlatformAccount
	err := r.db.Where("platform_id = ?", trimmed).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetLatestByTenantID returns the most recently connected account for a tenant
func (r *accountRepository) GetLatestByTenantID(tenantID uint) (*models.PlatformAccount, error) {
	var account models.PlatformAccount
	err := r.db.Where("tenant_id = ?", tenantID).
		Order("connected_at DESC").
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Update saves an existing platform account
func (r *accountRepository) Update(account *models.PlatformAccount) error {
	return r.db.Save(account).Error
}

// CountByTenantID counts connected accounts for quota checks
func (r *accountRepository) CountByTenantID(tenantID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PlatformAccount{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}
