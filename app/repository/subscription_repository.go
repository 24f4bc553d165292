package repository

import (
	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/models"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetEntitling returns the tenant's newest ACTIVE or TRIALING subscription.
// gorm.ErrRecordNotFound means the tenant is on the free tier.
func (r *subscriptionRepository) GetEntitling(tenantID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("tenant_id = ? AND status IN ?", tenantID,
		[]string{models.SUB_STATUS_ACTIVE, models.SUB_STATUS_TRIALING}).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
