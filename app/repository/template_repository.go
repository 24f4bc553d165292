package repository

import (
	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/models"
)

// templateRepository implements the TemplateRepository interface
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository instance
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// Create creates a new template in the database
func (r *templateRepository) Create(template *models.Template) error {
	return r.db.Create(template).Error
}

// GetByID retrieves a tenant's template by id, constrained to the given kind
// so a DM template id can never resolve to a reply template.
func (r *templateRepository) GetByID(tenantID, id uint, kind string) (*models.Template, error) {
	var template models.Template
	err := r.db.Where("tenant_id = ? AND id = ? AND kind = ?", tenantID, id, kind).
		First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// GetDefault retrieves the tenant's default template of the given kind
func (r *templateRepository) GetDefault(tenantID uint, kind string) (*models.Template, error) {
	var template models.Template
	err := r.db.Where("tenant_id = ? AND kind = ? AND is_default = ?", tenantID, kind, true).
		Order("created_at ASC").
		First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// CountByTenantID counts templates for quota checks
func (r *templateRepository) CountByTenantID(tenantID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Template{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}
