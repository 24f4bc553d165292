package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	TEMPLATE_KIND_REPLY = "REPLY"
	TEMPLATE_KIND_DM    = "DM"
)

// Template is tenant-authored text with {{variable}} placeholders used to
// generate reply and DM content. Read-only from the pipeline's perspective.
type Template struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	Name      string    `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	Kind      string    `gorm:"type:varchar(20);not null;index" json:"kind" validate:"oneof=REPLY DM"`
	Body      string    `gorm:"type:text;not null" json:"body" validate:"required"`
	IsDefault bool      `gorm:"default:false;index" json:"is_default"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Template) Validate() error {
	v := validator.New()

	return v.Struct(t)
}
