package persistence

import (
	"context"
	"errors"

	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCreditHoldRepository implements credit.HoldRepository using GORM
type GormCreditHoldRepository struct {
	db *gorm.DB
}

// NewGormCreditHoldRepository creates a new GormCreditHoldRepository
func NewGormCreditHoldRepository(db *gorm.DB) *GormCreditHoldRepository {
	return &GormCreditHoldRepository{db: db}
}

// Create inserts an active hold. The partial unique index rejects a second active hold.
func (r *GormCreditHoldRepository) Create(ctx context.Context, hold *credit.CreditHold) error {
	model := models.CreditHoldModelFromDomain(hold)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return credit.ErrHoldAlreadyActive
		}
		return shared.NewStorageError("create credit hold", err)
	}
	return nil
}

// Save persists the release fields of a hold
func (r *GormCreditHoldRepository) Save(ctx context.Context, hold *credit.CreditHold) error {
	model := models.CreditHoldModelFromDomain(hold)
	result := r.db.WithContext(ctx).
		Model(&models.CreditHoldModel{}).
		Where("id = ?", hold.ID).
		Updates(map[string]any{
			"status":          model.Status,
			"released_by":     model.ReleasedBy,
			"released_at":     model.ReleasedAt,
			"override_reason": model.OverrideReason,
			"notes":           model.Notes,
			"updated_at":      model.UpdatedAt,
		})
	if result.Error != nil {
		return shared.NewStorageError("save credit hold", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Credit hold")
	}
	return nil
}

// FindActiveByCustomer returns the active hold, or nil if there is none
func (r *GormCreditHoldRepository) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*credit.CreditHold, error) {
	var rows []models.CreditHoldModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, credit.HoldStatusActive.String()).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, shared.NewStorageError("find active credit hold", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain()
}

// ListByCustomer returns all holds of the customer, newest first
func (r *GormCreditHoldRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*credit.CreditHold, error) {
	var rows []models.CreditHoldModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("placed_at DESC, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, shared.NewStorageError("list credit holds", err)
	}

	holds := make([]*credit.CreditHold, 0, len(rows))
	for i := range rows {
		hold, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		holds = append(holds, hold)
	}
	return holds, nil
}

// Ensure GormCreditHoldRepository implements credit.HoldRepository
var _ credit.HoldRepository = (*GormCreditHoldRepository)(nil)
