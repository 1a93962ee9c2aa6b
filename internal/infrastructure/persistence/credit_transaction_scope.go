package persistence

import (
	"context"

	appcredit "github.com/erp/credit/internal/application/credit"
	"github.com/erp/credit/internal/domain/credit"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// A cancelled context before commit rolls the whole unit back.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appcredit.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(&gormTransactionalRepositories{tx: tx}); err != nil {
			return err
		}
		return ctx.Err()
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) ProfileRepo() credit.ProfileRepository {
	return NewGormCreditProfileRepository(r.tx)
}

func (r *gormTransactionalRepositories) TransactionRepo() credit.TransactionRepository {
	return NewGormCreditTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) HoldRepo() credit.HoldRepository {
	return NewGormCreditHoldRepository(r.tx)
}

func (r *gormTransactionalRepositories) LimitChangeRepo() credit.LimitChangeRepository {
	return NewGormCreditLimitChangeRepository(r.tx)
}

func (r *gormTransactionalRepositories) AlertRepo() credit.AlertRepository {
	return NewGormCreditAlertRepository(r.tx)
}

// NewRepositories returns the non-transactional repositories over db
func NewRepositories(db *gorm.DB) appcredit.Repositories {
	return appcredit.Repositories{
		Profiles:     NewGormCreditProfileRepository(db),
		Transactions: NewGormCreditTransactionRepository(db),
		Holds:        NewGormCreditHoldRepository(db),
		LimitChanges: NewGormCreditLimitChangeRepository(db),
		Alerts:       NewGormCreditAlertRepository(db),
	}
}

// Ensure GormTransactionScope implements TransactionScope
var _ appcredit.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appcredit.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
