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

// creditUsedKinds are the ledger kinds whose amount moves credit used
var creditUsedKinds = []string{
	credit.TransactionKindInvoiceCreated.String(),
	credit.TransactionKindInvoicePaid.String(),
	credit.TransactionKindAdjustment.String(),
}

// GormCreditTransactionRepository implements credit.TransactionRepository using GORM.
// The ledger is append-only: there is no update or delete.
type GormCreditTransactionRepository struct {
	db *gorm.DB
}

// NewGormCreditTransactionRepository creates a new GormCreditTransactionRepository
func NewGormCreditTransactionRepository(db *gorm.DB) *GormCreditTransactionRepository {
	return &GormCreditTransactionRepository{db: db}
}

// Create appends a ledger entry. A duplicate sequence for the customer is a concurrency conflict.
func (r *GormCreditTransactionRepository) Create(ctx context.Context, entry *credit.CreditTransaction) error {
	model := models.CreditTransactionModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrConcurrencyConflict
		}
		return shared.NewStorageError("append credit transaction", err)
	}
	return nil
}

// ListByCustomer returns at most limit entries, most recent first
func (r *GormCreditTransactionRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]*credit.CreditTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("sequence DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.CreditTransactionModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, shared.NewStorageError("list credit transactions", err)
	}
	return toTransactions(rows)
}

// ListAllByCustomer returns the whole ledger in ascending sequence order
func (r *GormCreditTransactionRepository) ListAllByCustomer(ctx context.Context, customerID uuid.UUID) ([]*credit.CreditTransaction, error) {
	var rows []models.CreditTransactionModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, shared.NewStorageError("list credit ledger", err)
	}
	return toTransactions(rows)
}

// SumCreditUsedDeltas sums amounts of the kinds that move credit used
func (r *GormCreditTransactionRepository) SumCreditUsedDeltas(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).
		Model(&models.CreditTransactionModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("customer_id = ? AND kind IN ?", customerID, creditUsedKinds).
		Scan(&sum).Error; err != nil {
		return 0, shared.NewStorageError("sum credit transactions", err)
	}
	return sum, nil
}

func toTransactions(rows []models.CreditTransactionModel) ([]*credit.CreditTransaction, error) {
	entries := make([]*credit.CreditTransaction, 0, len(rows))
	for i := range rows {
		entry, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Ensure GormCreditTransactionRepository implements credit.TransactionRepository
var _ credit.TransactionRepository = (*GormCreditTransactionRepository)(nil)
