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

// GormCreditAlertRepository implements credit.AlertRepository using GORM
type GormCreditAlertRepository struct {
	db *gorm.DB
}

// NewGormCreditAlertRepository creates a new GormCreditAlertRepository
func NewGormCreditAlertRepository(db *gorm.DB) *GormCreditAlertRepository {
	return &GormCreditAlertRepository{db: db}
}

// Create persists a new alert
func (r *GormCreditAlertRepository) Create(ctx context.Context, alert *credit.CreditAlert) error {
	if err := r.db.WithContext(ctx).Create(models.CreditAlertModelFromDomain(alert)).Error; err != nil {
		return shared.NewStorageError("create credit alert", err)
	}
	return nil
}

// FindByID finds an alert by its ID
func (r *GormCreditAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*credit.CreditAlert, error) {
	var model models.CreditAlertModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Credit alert")
		}
		return nil, shared.NewStorageError("find credit alert", err)
	}
	return model.ToDomain()
}

// Save persists the acknowledgement fields of an alert. Only an unread row is
// updated; an alert acknowledged by someone else in the meantime yields
// shared.ErrConcurrencyConflict.
func (r *GormCreditAlertRepository) Save(ctx context.Context, alert *credit.CreditAlert) error {
	result := r.db.WithContext(ctx).
		Model(&models.CreditAlertModel{}).
		Where("id = ? AND is_read = ?", alert.ID, false).
		Updates(map[string]any{
			"is_read":         alert.IsRead,
			"acknowledged_by": alert.AcknowledgedBy,
			"acknowledged_at": alert.AcknowledgedAt,
		})
	if result.Error != nil {
		return shared.NewStorageError("save credit alert", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.CreditAlertModel{}).Where("id = ?", alert.ID).Count(&count).Error; err != nil {
			return shared.NewStorageError("save credit alert", err)
		}
		if count == 0 {
			return shared.NewNotFoundError("Credit alert")
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ListUnread returns unread alerts, oldest first
func (r *GormCreditAlertRepository) ListUnread(ctx context.Context) ([]*credit.CreditAlert, error) {
	var rows []models.CreditAlertModel
	if err := r.db.WithContext(ctx).
		Where("is_read = ?", false).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, shared.NewStorageError("list unread credit alerts", err)
	}
	return toAlerts(rows)
}

// ListByCustomer returns all alerts of the customer, unread first then newest first
func (r *GormCreditAlertRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*credit.CreditAlert, error) {
	var rows []models.CreditAlertModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_read ASC, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, shared.NewStorageError("list credit alerts", err)
	}
	return toAlerts(rows)
}

func toAlerts(rows []models.CreditAlertModel) ([]*credit.CreditAlert, error) {
	alerts := make([]*credit.CreditAlert, 0, len(rows))
	for i := range rows {
		alert, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// Ensure GormCreditAlertRepository implements credit.AlertRepository
var _ credit.AlertRepository = (*GormCreditAlertRepository)(nil)
