package credit

import (
	"context"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProfileRepository persists CreditProfile aggregates
type ProfileRepository interface {
	// FindByCustomerID returns shared.ErrNotFound when the customer has no profile
	FindByCustomerID(ctx context.Context, customerID uuid.UUID) (*CreditProfile, error)

	// FindByCustomerIDForUpdate is FindByCustomerID that also locks the row
	// for the rest of the transaction where the store supports it
	FindByCustomerIDForUpdate(ctx context.Context, customerID uuid.UUID) (*CreditProfile, error)

	// Create inserts a new profile. A profile already present for the customer is a conflict.
	Create(ctx context.Context, profile *CreditProfile) error

	// SaveWithLock updates the profile if its stored version still equals profile.Version
	// and advances the version. A stale version yields shared.ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, profile *CreditProfile) error

	// List returns profiles ordered by creation time
	List(ctx context.Context, page shared.Pagination) ([]*CreditProfile, int64, error)

	// ListOnHold returns profiles that currently have an active hold
	ListOnHold(ctx context.Context) ([]*CreditProfile, error)

	// ListByRiskLevels returns profiles whose stored risk level is one of levels
	ListByRiskLevels(ctx context.Context, levels ...RiskLevel) ([]*CreditProfile, error)

	// Summarize aggregates all profiles kept in currency
	Summarize(ctx context.Context, currency valueobject.Currency) (*CreditSummary, error)
}

// TransactionRepository is the append-only credit ledger
type TransactionRepository interface {
	Create(ctx context.Context, entry *CreditTransaction) error

	// ListByCustomer returns at most limit entries, most recent first
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]*CreditTransaction, error)

	// ListAllByCustomer returns the whole ledger in ascending sequence order
	ListAllByCustomer(ctx context.Context, customerID uuid.UUID) ([]*CreditTransaction, error)

	// SumCreditUsedDeltas sums amounts of the kinds that move credit used
	SumCreditUsedDeltas(ctx context.Context, customerID uuid.UUID) (int64, error)
}

// HoldRepository persists credit holds
type HoldRepository interface {
	// Create inserts an active hold. A second active hold for the customer is a conflict.
	Create(ctx context.Context, hold *CreditHold) error

	// Save persists a status change
	Save(ctx context.Context, hold *CreditHold) error

	// FindActiveByCustomer returns the active hold, or nil without error if there is none
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*CreditHold, error)

	// ListByCustomer returns all holds of the customer, newest first
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*CreditHold, error)
}

// LimitChangeRepository persists the credit limit audit trail
type LimitChangeRepository interface {
	Create(ctx context.Context, change *CreditLimitChange) error

	// ListByCustomer returns all changes of the customer, newest first
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*CreditLimitChange, error)
}

// AlertRepository persists credit alerts
type AlertRepository interface {
	Create(ctx context.Context, alert *CreditAlert) error

	// FindByID returns shared.ErrNotFound for an unknown alert
	FindByID(ctx context.Context, id uuid.UUID) (*CreditAlert, error)

	// Save persists an acknowledgement of an unread alert. It returns
	// shared.ErrConcurrencyConflict when the stored alert is already read.
	Save(ctx context.Context, alert *CreditAlert) error

	// ListUnread returns unread alerts, oldest first
	ListUnread(ctx context.Context) ([]*CreditAlert, error)

	// ListByCustomer returns all alerts of the customer, unread first then newest first
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*CreditAlert, error)
}

// CreditSummary aggregates the credit portfolio in one currency
type CreditSummary struct {
	Currency              valueobject.Currency
	TotalCustomers        int64
	TotalCreditLimit      valueobject.Money
	TotalCreditUsed       valueobject.Money
	TotalAvailableCredit  valueobject.Money
	TotalOverdue          valueobject.Money
	CustomersOnHold       int64
	HighRiskCustomers     int64
	AvgUtilizationPercent decimal.Decimal
}
