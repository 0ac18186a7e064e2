package billing

import (
	"context"

	"github.com/freshfields/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles billing persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.BillingRecord) error
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.BillingRecord, error)
	Update(ctx context.Context, record *models.BillingRecord) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.BillingRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.BillingRecord, error) {
	var record models.BillingRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) Update(ctx context.Context, record *models.BillingRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.BillingRecord{}, "user_id = ?", userID)
	return result.RowsAffected, result.Error
}
