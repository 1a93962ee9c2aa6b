package credit

import (
	"context"

	"github.com/erp/credit/internal/domain/credit"
)

// TransactionScope provides transactional access to the credit repositories.
// Every write made through the repositories handed to fn commits or rolls back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all credit repositories within a transaction.
//
// Aggregate boundary notes:
//   - ProfileRepo: the CreditProfile aggregate root; read with FindByCustomerIDForUpdate
//     and written with SaveWithLock inside an intake.
//   - TransactionRepo: append-only ledger; one primary entry per intake plus hold entries.
//   - HoldRepo, LimitChangeRepo, AlertRepo: records created alongside the profile change.
type TransactionalRepositories interface {
	ProfileRepo() credit.ProfileRepository
	TransactionRepo() credit.TransactionRepository
	HoldRepo() credit.HoldRepository
	LimitChangeRepo() credit.LimitChangeRepository
	AlertRepo() credit.AlertRepository
}

// Repositories bundles the non-transactional repositories used by read operations
type Repositories struct {
	Profiles     credit.ProfileRepository
	Transactions credit.TransactionRepository
	Holds        credit.HoldRepository
	LimitChanges credit.LimitChangeRepository
	Alerts       credit.AlertRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// It is meant for tests with in-memory fakes.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over repos
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProfileRepo returns the profile repository
func (s *NoOpTransactionScope) ProfileRepo() credit.ProfileRepository { return s.repos.Profiles }

// TransactionRepo returns the ledger repository
func (s *NoOpTransactionScope) TransactionRepo() credit.TransactionRepository {
	return s.repos.Transactions
}

// HoldRepo returns the hold repository
func (s *NoOpTransactionScope) HoldRepo() credit.HoldRepository { return s.repos.Holds }

// LimitChangeRepo returns the limit change repository
func (s *NoOpTransactionScope) LimitChangeRepo() credit.LimitChangeRepository {
	return s.repos.LimitChanges
}

// AlertRepo returns the alert repository
func (s *NoOpTransactionScope) AlertRepo() credit.AlertRepository { return s.repos.Alerts }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
