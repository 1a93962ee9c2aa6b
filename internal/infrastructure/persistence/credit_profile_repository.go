package persistence

import (
	"context"
	"errors"

	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/erp/credit/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCreditProfileRepository implements credit.ProfileRepository using GORM
type GormCreditProfileRepository struct {
	db *gorm.DB
}

// NewGormCreditProfileRepository creates a new GormCreditProfileRepository
func NewGormCreditProfileRepository(db *gorm.DB) *GormCreditProfileRepository {
	return &GormCreditProfileRepository{db: db}
}

// FindByCustomerID finds the profile of a customer
func (r *GormCreditProfileRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) (*credit.CreditProfile, error) {
	return r.findByCustomerID(r.db.WithContext(ctx), customerID)
}

// FindByCustomerIDForUpdate finds the profile and takes a row lock on PostgreSQL.
// Other dialects rely on the version guard in SaveWithLock.
func (r *GormCreditProfileRepository) FindByCustomerIDForUpdate(ctx context.Context, customerID uuid.UUID) (*credit.CreditProfile, error) {
	query := r.db.WithContext(ctx)
	if supportsRowLocks(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findByCustomerID(query, customerID)
}

func (r *GormCreditProfileRepository) findByCustomerID(query *gorm.DB, customerID uuid.UUID) (*credit.CreditProfile, error) {
	var model models.CreditProfileModel
	if err := query.Where("customer_id = ?", customerID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Credit profile")
		}
		return nil, shared.NewStorageError("find credit profile", err)
	}
	return loadProfile(&model)
}

// Create inserts a new profile
func (r *GormCreditProfileRepository) Create(ctx context.Context, profile *credit.CreditProfile) error {
	model := models.CreditProfileModelFromDomain(profile)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewConflictError("PROFILE_EXISTS", "Customer already has a credit profile")
		}
		return shared.NewStorageError("create credit profile", err)
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version).
// On success profile.Version holds the stored version.
func (r *GormCreditProfileRepository) SaveWithLock(ctx context.Context, profile *credit.CreditProfile) error {
	model := models.CreditProfileModelFromDomain(profile)
	result := r.db.WithContext(ctx).
		Model(&models.CreditProfileModel{}).
		Where("id = ? AND version = ?", profile.ID, profile.Version).
		Updates(map[string]any{
			"credit_limit":           model.CreditLimit,
			"credit_used":            model.CreditUsed,
			"available_credit":       model.AvailableCredit,
			"outstanding_invoices":   model.OutstandingInvoices,
			"pending_orders":         model.PendingOrders,
			"overdue_amount":         model.OverdueAmount,
			"overdue_days_avg":       model.OverdueDaysAvg,
			"credit_score":           model.CreditScore,
			"risk_level":             model.RiskLevel,
			"auto_hold_enabled":      model.AutoHoldEnabled,
			"hold_threshold_percent": model.HoldThresholdPercent,
			"status":                 model.Status,
			"ledger_sequence":        model.LedgerSequence,
			"version":                profile.Version + 1,
			"updated_at":             model.UpdatedAt,
		})

	if result.Error != nil {
		return shared.NewStorageError("save credit profile", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	profile.Version++
	return nil
}

// List returns one page of profiles ordered by creation time
func (r *GormCreditProfileRepository) List(ctx context.Context, page shared.Pagination) ([]*credit.CreditProfile, int64, error) {
	page = page.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.CreditProfileModel{}).Count(&total).Error; err != nil {
		return nil, 0, shared.NewStorageError("count credit profiles", err)
	}

	var rows []models.CreditProfileModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, shared.NewStorageError("list credit profiles", err)
	}

	profiles, err := loadProfiles(rows)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// ListOnHold returns profiles that currently have an active hold
func (r *GormCreditProfileRepository) ListOnHold(ctx context.Context) ([]*credit.CreditProfile, error) {
	active := r.db.Model(&models.CreditHoldModel{}).
		Select("customer_id").
		Where("status = ?", credit.HoldStatusActive.String())

	var rows []models.CreditProfileModel
	if err := r.db.WithContext(ctx).
		Where("customer_id IN (?)", active).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, shared.NewStorageError("list profiles on hold", err)
	}
	return loadProfiles(rows)
}

// ListByRiskLevels returns profiles whose stored risk level is one of levels
func (r *GormCreditProfileRepository) ListByRiskLevels(ctx context.Context, levels ...credit.RiskLevel) ([]*credit.CreditProfile, error) {
	if len(levels) == 0 {
		return []*credit.CreditProfile{}, nil
	}
	names := make([]string, len(levels))
	for i, level := range levels {
		names[i] = level.String()
	}

	var rows []models.CreditProfileModel
	if err := r.db.WithContext(ctx).
		Where("risk_level IN ?", names).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, shared.NewStorageError("list profiles by risk", err)
	}
	return loadProfiles(rows)
}

// profileTotals is the scan target of the summary query
type profileTotals struct {
	TotalCustomers   int64
	TotalCreditLimit int64
	TotalCreditUsed  int64
	TotalAvailable   int64
	TotalOverdue     int64
	HighRisk         int64
	UtilizationSum   float64
	LimitedCustomers int64
}

// Summarize aggregates all profiles kept in currency.
// Average utilization is taken over profiles with a non-zero limit.
func (r *GormCreditProfileRepository) Summarize(ctx context.Context, currency valueobject.Currency) (*credit.CreditSummary, error) {
	var totals profileTotals
	err := r.db.WithContext(ctx).
		Model(&models.CreditProfileModel{}).
		Select(`COUNT(*) AS total_customers,
			COALESCE(SUM(credit_limit), 0) AS total_credit_limit,
			COALESCE(SUM(credit_used), 0) AS total_credit_used,
			COALESCE(SUM(available_credit), 0) AS total_available,
			COALESCE(SUM(overdue_amount), 0) AS total_overdue,
			COALESCE(SUM(CASE WHEN risk_level IN (?, ?) THEN 1 ELSE 0 END), 0) AS high_risk,
			COALESCE(SUM(CASE WHEN credit_limit > 0 THEN credit_used * 100.0 / credit_limit ELSE 0 END), 0) AS utilization_sum,
			COALESCE(SUM(CASE WHEN credit_limit > 0 THEN 1 ELSE 0 END), 0) AS limited_customers`,
			credit.RiskLevelHigh.String(), credit.RiskLevelCritical.String()).
		Where("currency = ?", currency.String()).
		Scan(&totals).Error
	if err != nil {
		return nil, shared.NewStorageError("summarize credit profiles", err)
	}

	var onHold int64
	err = r.db.WithContext(ctx).
		Model(&models.CreditHoldModel{}).
		Joins("JOIN credit_profiles ON credit_profiles.customer_id = credit_holds.customer_id").
		Where("credit_holds.status = ? AND credit_profiles.currency = ?", credit.HoldStatusActive.String(), currency.String()).
		Count(&onHold).Error
	if err != nil {
		return nil, shared.NewStorageError("count customers on hold", err)
	}

	avg := decimal.Zero
	if totals.LimitedCustomers > 0 {
		avg = decimal.NewFromFloat(totals.UtilizationSum).Div(decimal.NewFromInt(totals.LimitedCustomers))
	}

	return &credit.CreditSummary{
		Currency:              currency,
		TotalCustomers:        totals.TotalCustomers,
		TotalCreditLimit:      valueobject.MustNewMoney(totals.TotalCreditLimit, currency),
		TotalCreditUsed:       valueobject.MustNewMoney(totals.TotalCreditUsed, currency),
		TotalAvailableCredit:  valueobject.MustNewMoney(totals.TotalAvailable, currency),
		TotalOverdue:          valueobject.MustNewMoney(totals.TotalOverdue, currency),
		CustomersOnHold:       onHold,
		HighRiskCustomers:     totals.HighRisk,
		AvgUtilizationPercent: avg.Round(2),
	}, nil
}

// loadProfile converts a row and re-asserts the aggregate invariants
func loadProfile(model *models.CreditProfileModel) (*credit.CreditProfile, error) {
	profile, err := model.ToDomain()
	if err != nil {
		return nil, err
	}
	if err := profile.CheckInvariants(); err != nil {
		return nil, err
	}
	return profile, nil
}

func loadProfiles(rows []models.CreditProfileModel) ([]*credit.CreditProfile, error) {
	profiles := make([]*credit.CreditProfile, 0, len(rows))
	for i := range rows {
		profile, err := loadProfile(&rows[i])
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// Ensure GormCreditProfileRepository implements credit.ProfileRepository
var _ credit.ProfileRepository = (*GormCreditProfileRepository)(nil)
