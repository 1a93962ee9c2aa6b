package persistence

import (
	"context"

	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCreditLimitChangeRepository implements credit.LimitChangeRepository using GORM
type GormCreditLimitChangeRepository struct {
	db *gorm.DB
}

// NewGormCreditLimitChangeRepository creates a new GormCreditLimitChangeRepository
func NewGormCreditLimitChangeRepository(db *gorm.DB) *GormCreditLimitChangeRepository {
	return &GormCreditLimitChangeRepository{db: db}
}

// Create records a limit change
func (r *GormCreditLimitChangeRepository) Create(ctx context.Context, change *credit.CreditLimitChange) error {
	if err := r.db.WithContext(ctx).Create(models.CreditLimitChangeModelFromDomain(change)).Error; err != nil {
		return shared.NewStorageError("create credit limit change", err)
	}
	return nil
}

// ListByCustomer returns all changes of the customer, newest first
func (r *GormCreditLimitChangeRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*credit.CreditLimitChange, error) {
	var rows []models.CreditLimitChangeModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, shared.NewStorageError("list credit limit changes", err)
	}

	changes := make([]*credit.CreditLimitChange, 0, len(rows))
	for i := range rows {
		change, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// Ensure GormCreditLimitChangeRepository implements credit.LimitChangeRepository
var _ credit.LimitChangeRepository = (*GormCreditLimitChangeRepository)(nil)
