package credit

import (
	"context"

	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// unitOfWork is one attempt at an atomic credit operation. It writes through the
// transactional repositories and remembers what it wrote so the service can log,
// count and publish once the transaction has committed.
type unitOfWork struct {
	repos        TransactionalRepositories
	actor        *uuid.UUID
	profile      *credit.CreditProfile
	created      bool
	placed       []*credit.CreditHold
	released     []*credit.CreditHold
	autoReleased bool
	alerts       []*credit.CreditAlert
	events       []shared.DomainEvent
}

func newUnitOfWork(repos TransactionalRepositories, actor *uuid.UUID) *unitOfWork {
	return &unitOfWork{repos: repos, actor: actor}
}

// load reads and locks the customer's profile
func (u *unitOfWork) load(ctx context.Context, customerID uuid.UUID) error {
	profile, err := u.repos.ProfileRepo().FindByCustomerIDForUpdate(ctx, customerID)
	if err != nil {
		return err
	}
	u.profile = profile
	return nil
}

// loadOrCreate reads the profile, creating it with initialLimit when the customer has none
func (u *unitOfWork) loadOrCreate(ctx context.Context, customerID uuid.UUID, initialLimit valueobject.Money, holdThresholdPercent int) error {
	err := u.load(ctx, customerID)
	if err == nil || !shared.IsCategory(err, shared.CategoryNotFound) {
		return err
	}

	profile, err := credit.NewCreditProfile(customerID, initialLimit, holdThresholdPercent)
	if err != nil {
		return err
	}
	if err := u.repos.ProfileRepo().Create(ctx, profile); err != nil {
		if shared.IsCategory(err, shared.CategoryConflict) {
			// Another process created it first; the retry will read it.
			return shared.ErrConcurrencyConflict
		}
		return err
	}
	u.profile = profile
	u.created = true
	return nil
}

// record appends a ledger entry, attributing it to the acting user unless it already names one
func (u *unitOfWork) record(ctx context.Context, entry *credit.CreditTransaction) error {
	if entry.ActorID == nil {
		entry.WithActor(u.actor)
	}
	return u.repos.TransactionRepo().Create(ctx, entry)
}

// activeHold returns the customer's active hold, or nil
func (u *unitOfWork) activeHold(ctx context.Context) (*credit.CreditHold, error) {
	return u.repos.HoldRepo().FindActiveByCustomer(ctx, u.profile.CustomerID)
}

// placeHold stores the hold and appends its CREDIT_HOLD_PLACED entry
func (u *unitOfWork) placeHold(ctx context.Context, hold *credit.CreditHold) error {
	if err := u.repos.HoldRepo().Create(ctx, hold); err != nil {
		return err
	}
	if err := u.record(ctx, u.profile.RecordHoldPlaced(hold)); err != nil {
		return err
	}
	u.placed = append(u.placed, hold)
	return nil
}

// releaseHold releases the hold, appends its CREDIT_HOLD_RELEASED entry and announces it
func (u *unitOfWork) releaseHold(ctx context.Context, hold *credit.CreditHold, overrideReason string) error {
	if err := hold.Release(u.actor, overrideReason); err != nil {
		return err
	}
	if err := u.repos.HoldRepo().Save(ctx, hold); err != nil {
		return err
	}
	if err := u.record(ctx, u.profile.RecordHoldReleased(hold)); err != nil {
		return err
	}
	u.released = append(u.released, hold)
	return u.alert(ctx, credit.NewHoldReleasedAlert(u.profile, hold))
}

// placeLimitExceededHold puts an over-limit customer with auto-hold enabled on hold,
// unless a hold is already active. It reports whether a hold was placed.
func (u *unitOfWork) placeLimitExceededHold(ctx context.Context, relatedOrderID, relatedInvoiceID *uuid.UUID) (bool, error) {
	p := u.profile
	if !p.IsOverLimit() || !p.AutoHoldEnabled {
		return false, nil
	}
	active, err := u.activeHold(ctx)
	if err != nil {
		return false, err
	}
	if active != nil {
		return false, nil
	}

	hold, err := credit.NewLimitExceededHold(p, p.AmountOverLimit(), u.actor)
	if err != nil {
		return false, err
	}
	hold.WithRelatedOrder(relatedOrderID).WithRelatedInvoice(relatedInvoiceID)
	if err := u.placeHold(ctx, hold); err != nil {
		return false, err
	}
	return true, u.alert(ctx, credit.NewLimitExceededAlert(p, p.CreditUsed))
}

// releaseLimitExceededHold lifts an automatic hold once credit used is back within the limit
func (u *unitOfWork) releaseLimitExceededHold(ctx context.Context) error {
	if u.profile.IsOverLimit() {
		return nil
	}
	active, err := u.activeHold(ctx)
	if err != nil || active == nil || active.Type != credit.HoldTypeCreditLimitExceeded {
		return err
	}
	u.autoReleased = true
	return u.releaseHold(ctx, active, credit.PaymentReceivedReleaseReason)
}

func (u *unitOfWork) alert(ctx context.Context, alert *credit.CreditAlert) error {
	if err := u.repos.AlertRepo().Create(ctx, alert); err != nil {
		return err
	}
	u.alerts = append(u.alerts, alert)
	return nil
}

// save raises risk alerts for the pending risk events, then writes the profile under
// its version guard and takes over the profile's domain events for publishing.
func (u *unitOfWork) save(ctx context.Context) error {
	for _, event := range u.profile.GetDomainEvents() {
		changed, ok := event.(*credit.CreditRiskLevelChangedEvent)
		if !ok || !changed.IsIncrease() {
			continue
		}
		if err := u.alert(ctx, credit.NewRiskLevelIncreasedAlert(u.profile, changed.From, changed.To)); err != nil {
			return err
		}
	}

	if err := u.repos.ProfileRepo().SaveWithLock(ctx, u.profile); err != nil {
		return err
	}
	u.events = append(u.events, u.profile.PullDomainEvents()...)
	return nil
}
