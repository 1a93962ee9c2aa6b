package credit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/erp/credit/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTransactionListLimit is used when a ledger listing asks for no limit
	DefaultTransactionListLimit = 50
	// MaxTransactionListLimit caps a single ledger listing
	MaxTransactionListLimit = 500
)

// Config holds the credit policy knobs
type Config struct {
	DefaultCurrency             valueobject.Currency
	DefaultHoldThresholdPercent int
	// ApproachingLimitPercent: an invoice leaving available credit below this share
	// of the limit raises an APPROACHING_LIMIT alert
	ApproachingLimitPercent int
	// MaxRetries is the number of attempts made when a save hits a version conflict
	MaxRetries int
}

// DefaultConfig returns the default credit policy
func DefaultConfig() Config {
	return Config{
		DefaultCurrency:             valueobject.DefaultCurrency,
		DefaultHoldThresholdPercent: credit.DefaultHoldThresholdPercent,
		ApproachingLimitPercent:     10,
		MaxRetries:                  3,
	}
}

// CreditService runs credit checks and applies intake from orders, invoices, payments
// and returns. Writes for one customer are serialized by an in-process lock and by the
// profile's row lock and version guard; reads go straight to the repositories.
type CreditService struct {
	scope          TransactionScope
	repos          Repositories
	config         Config
	locks          *customerLocks
	eventPublisher shared.EventPublisher
	metrics        *telemetry.CreditMetrics
	logger         *zap.Logger
}

// NewCreditService creates a new CreditService
func NewCreditService(scope TransactionScope, repos Repositories, cfg Config, logger *zap.Logger) *CreditService {
	if !cfg.DefaultCurrency.IsValid() {
		cfg.DefaultCurrency = valueobject.DefaultCurrency
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &CreditService{
		scope:   scope,
		repos:   repos,
		config:  cfg,
		locks:   newCustomerLocks(),
		metrics: telemetry.NewNoopCreditMetrics(),
		logger:  logger.Named("credit.service"),
	}
}

// SetEventPublisher sets the publisher that receives domain events after commit
func (s *CreditService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCreditMetrics sets the metrics instruments
func (s *CreditService) SetCreditMetrics(metrics *telemetry.CreditMetrics) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// execute runs fn as one atomic unit for customerID. It holds the customer's lock,
// retries on version conflicts and, after commit, publishes events and records metrics.
func (s *CreditService) execute(
	ctx context.Context,
	op string,
	customerID uuid.UUID,
	actor *uuid.UUID,
	fn func(ctx context.Context, u *unitOfWork) error,
) (result *unitOfWork, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "credit", op, telemetry.AttrCustomerID.String(customerID.String()))
	start := time.Now()
	defer func() {
		s.metrics.RecordIntake(ctx, op, time.Since(start), err)
		telemetry.EndSpan(span, err)
	}()

	unlock := s.locks.Lock(customerID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		var u *unitOfWork
		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			u = newUnitOfWork(repos, actor)
			return fn(ctx, u)
		})
		if err == nil {
			s.afterCommit(ctx, op, customerID, u)
			return u, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}

		s.metrics.RecordConflict(ctx, op)
		if attempt >= s.config.MaxRetries {
			s.logger.Warn("giving up after repeated version conflicts",
				zap.String("operation", op),
				zap.String("customer_id", customerID.String()),
				zap.Int("attempts", attempt),
			)
			return nil, shared.NewStorageError(op, fmt.Errorf("gave up after %d attempts: %w", attempt, err))
		}
		s.logger.Debug("version conflict, retrying",
			zap.String("operation", op),
			zap.String("customer_id", customerID.String()),
			zap.Int("attempt", attempt),
		)
	}
}

func (s *CreditService) afterCommit(ctx context.Context, op string, customerID uuid.UUID, u *unitOfWork) {
	log := s.logger.With(zap.String("operation", op), zap.String("customer_id", customerID.String()))

	if u.created {
		log.Info("credit profile created", zap.String("currency", u.profile.Currency.String()))
	}
	for _, hold := range u.placed {
		automatic := hold.Type == credit.HoldTypeCreditLimitExceeded
		s.metrics.RecordHoldPlaced(ctx, hold.Type.String(), automatic)
		log.Info("credit hold placed",
			zap.String("hold_id", hold.ID.String()),
			zap.String("hold_type", hold.Type.String()),
			zap.Int64("amount_over_limit", hold.AmountOverLimit.Amount()),
		)
	}
	for _, hold := range u.released {
		s.metrics.RecordHoldReleased(ctx, hold.Type.String(), u.autoReleased)
		log.Info("credit hold released",
			zap.String("hold_id", hold.ID.String()),
			zap.Bool("automatic", u.autoReleased),
		)
	}
	for _, alert := range u.alerts {
		s.metrics.RecordAlert(ctx, alert.Type.String(), alert.Severity.String())
	}

	if s.eventPublisher == nil || len(u.events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, u.events...); err != nil {
		// The credit change is committed; subscribers that failed are logged by the bus.
		log.Warn("failed to publish credit events", zap.Int("events", len(u.events)), zap.Error(err))
	}
}

// CheckCredit decides whether an order may be accepted on credit. A blocked check on a
// profile with auto-hold enabled places a CREDIT_LIMIT_EXCEEDED hold; credit used never changes.
func (s *CreditService) CheckCredit(ctx context.Context, req CheckCreditRequest, actor *uuid.UUID) (*CreditCheckResponse, error) {
	var decision *credit.Decision
	_, err := s.execute(ctx, "check_credit", req.CustomerID, actorOf(actor), func(ctx context.Context, u *unitOfWork) error {
		decision = nil
		err := u.load(ctx, req.CustomerID)
		if err != nil && !shared.IsCategory(err, shared.CategoryNotFound) {
			return err
		}

		fallback := s.config.DefaultCurrency
		if u.profile != nil {
			fallback = u.profile.Currency
		}
		amount, err := parseMoney(req.OrderAmount, req.Currency, fallback)
		if err != nil {
			return err
		}
		checkReq := credit.CheckRequest{CustomerID: req.CustomerID, OrderID: req.OrderID, OrderAmount: amount}

		if u.profile == nil {
			if err := credit.ValidateCheckRequest(checkReq); err != nil {
				return err
			}
			decision = credit.NoProfileDecision(checkReq)
			return nil
		}

		active, err := u.activeHold(ctx)
		if err != nil {
			return err
		}
		decision, err = credit.Decide(u.profile, active, checkReq)
		if err != nil || !decision.PlaceAutoHold {
			return err
		}

		hold, err := credit.NewLimitExceededHold(u.profile, decision.AmountOverLimit, u.actor)
		if err != nil {
			return err
		}
		hold.WithRelatedOrder(req.OrderID)
		if err := u.placeHold(ctx, hold); err != nil {
			return err
		}
		if err := u.alert(ctx, credit.NewLimitExceededAlert(u.profile, decision.ProjectedUsed)); err != nil {
			return err
		}
		decision.HoldID = &hold.ID
		return u.save(ctx)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCheck(ctx, decision.Result.String())
	s.logger.Info("credit checked",
		zap.String("customer_id", req.CustomerID.String()),
		zap.String("result", decision.Result.String()),
		zap.Int64("order_amount", decision.RequestedAmount.Amount()),
		zap.Int64("projected_available", decision.ProjectedAvailable.Amount()),
	)
	resp := ToCreditCheckResponse(decision.CreditCheckResponse)
	return &resp, nil
}

// GetOrCreateProfile returns the customer's profile, creating it with initial_limit if absent
func (s *CreditService) GetOrCreateProfile(ctx context.Context, req CreateProfileRequest) (*ProfileResponse, error) {
	initialLimit, err := parseMoney(req.InitialLimit, req.Currency, s.config.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	u, err := s.execute(ctx, "get_or_create_profile", req.CustomerID, nil, func(ctx context.Context, u *unitOfWork) error {
		return u.loadOrCreate(ctx, req.CustomerID, initialLimit, s.config.DefaultHoldThresholdPercent)
	})
	if err != nil {
		return nil, err
	}
	resp := ToProfileResponse(u.profile)
	return &resp, nil
}

// UpdateCreditLimit changes the limit, records the audit entry and places an automatic
// hold when the customer ends up over the new limit
func (s *CreditService) UpdateCreditLimit(ctx context.Context, customerID uuid.UUID, req UpdateCreditLimitRequest, actor *uuid.UUID) (*ProfileResponse, error) {
	actorID, err := requireActor(actor)
	if err != nil {
		return nil, err
	}
	u, err := s.execute(ctx, "update_credit_limit", customerID, &actorID, func(ctx context.Context, u *unitOfWork) error {
		if err := u.load(ctx, customerID); err != nil {
			return err
		}
		newLimit, err := parseMoney(req.NewLimit, req.Currency, u.profile.Currency)
		if err != nil {
			return err
		}

		previousLimit := u.profile.CreditLimit
		change, err := credit.NewCreditLimitChange(u.profile, previousLimit, newLimit, req.Reason, actorID)
		if err != nil {
			return err
		}
		entry, err := u.profile.ChangeLimit(newLimit, change.ChangeReason)
		if err != nil {
			return err
		}
		if err := u.repos.LimitChangeRepo().Create(ctx, change); err != nil {
			return err
		}
		entry.WithReference(credit.Reference{Type: credit.ReferenceTypeLimitChange, ID: &change.ID})
		if err := u.record(ctx, entry); err != nil {
			return err
		}
		if _, err := u.placeLimitExceededHold(ctx, nil, nil); err != nil {
			return err
		}
		return u.save(ctx)
	})
	if err != nil {
		return nil, err
	}
	resp := ToProfileResponse(u.profile)
	return &resp, nil
}

// OnInvoiceCreated consumes credit for an issued invoice, creating a zero-limit profile
// for customers seen for the first time
func (s *CreditService) OnInvoiceCreated(ctx context.Context, req InvoiceCreatedRequest, actor *uuid.UUID) (*ProfileResponse, error) {
	u, err := s.execute(ctx, "on_invoice_created", req.CustomerID, actorOf(actor), func(ctx context.Context, u *unitOfWork) error {
		zero := valueobject.Zero(s.config.DefaultCurrency)
		if err := u.loadOrCreate(ctx, req.CustomerID, zero, s.config.DefaultHoldThresholdPercent); err != nil {
			return err
		}
		amount, err := parseMoney(req.Amount, req.Currency, u.profile.Currency)
		if err != nil {
			return err
		}

		ref := credit.Reference{Type: credit.ReferenceTypeInvoice, ID: &req.InvoiceID, Number: req.InvoiceNumber}
		entry, err := u.profile.RecordInvoice(amount, ref)
		if err != nil {
			return err
		}
		if err := u.record(ctx, entry); err != nil {
			return err
		}

		placed, err := u.placeLimitExceededHold(ctx, nil, &req.InvoiceID)
		if err != nil {
			return err
		}
		if !placed && u.profile.IsApproachingLimit(s.config.ApproachingLimitPercent) {
			if err := u.alert(ctx, credit.NewApproachingLimitAlert(u.profile, s.config.ApproachingLimitPercent)); err != nil {
				return err
			}
		}
		return u.save(ctx)
	})
	if err != nil {
		return nil, err
	}
	resp := ToProfileResponse(u.profile)
	return &resp, nil
}

// OnPaymentReceived releases credit for a payment and lifts an automatic hold
// once the customer is back within the limit
func (s *CreditService) OnPaymentReceived(ctx context.Context, req PaymentReceivedRequest, actor *uuid.UUID) (*ProfileResponse, error) {
	u, err := s.execute(ctx, "on_payment_received", req.CustomerID, actorOf(actor), func(ctx context.Context, u *unitOfWork) error {
		if err := u.load(ctx, req.CustomerID); err != nil {
			return err
		}
		amount, err := parseMoney(req.Amount, req.Currency, u.profile.Currency)
		if err != nil {
			return err
		}

		ref := credit.Reference{Type: credit.ReferenceTypePayment, ID: req.PaymentID, Number: req.InvoiceNumber}
		if req.InvoiceID != nil {
			ref = credit.Reference{Type: credit.ReferenceTypeInvoice, ID: req.InvoiceID, Number: req.InvoiceNumber}
		}
		entry, err := u.profile.RecordPayment(amount, ref)
		if err != nil {
			return err
		}
		if err := u.record(ctx, entry); err != nil {
			return err
		}
		if err := u.releaseLimitExceededHold(ctx); err != nil {
			return err
		}
		return u.save(ctx)
	})
	if err != nil {
		return nil, err
	}
	resp := ToProfileResponse(u.profile)
	return &resp, nil
}

// OnOrderPlaced adds the order to pending orders. Customers without a profile are
// not credit-managed, so their orders are ignored.
func (s *CreditService) OnOrderPlaced(ctx context.Context, req OrderPlacedRequest, actor *uuid.UUID) error {
	_, err := s.execute(ctx, "on_order_placed", req.CustomerID, actorOf(actor), func(ctx context.Context, u *unitOfWork) error {
		if err := u.load(ctx, req.CustomerID); err != nil {
			if shared.IsCategory(err, shared.CategoryNotFound) {
				s.logger.Debug("order for customer without credit profile ignored",
					zap.String("customer_id", req.CustomerID.String()),
					zap.String("order_id", req.OrderID.String()),
				)
				return nil
			}
			return err
		}
		amount, err := parseMoney(req.Amount, req.Currency, u.profile.Currency)
		if err != nil {
			return err
		}

		ref := credit.Reference{Type: credit.ReferenceTypeOrder, ID: &req.OrderID, Number: req.OrderNumber}
		entry, err := u.profile.RecordOrder(amount, ref)
		if err != nil {
			return err
		}
		if err := u.record(ctx, entry); err != nil {
			return err
		}
		return u.save(ctx)
	})
	return err
}

// OnInvoiceOverdue replaces the customer's overdue totals with a fresh snapshot and
// raises an OVERDUE_DETECTED alert when the overdue amount grew
func (s *CreditService) OnInvoiceOverdue(ctx context.Context, req InvoiceOverdueRequest, actor *uuid.UUID) (*ProfileResponse, error) {
	u, err := s.execute(ctx, "on_invoice_overdue", req.CustomerID, actorOf(actor), func(ctx context.Context, u *unitOfWork) error {
		if err := u.load(ctx, req.CustomerID); err != nil {
			return err
		}
		overdue, err := parseMoney(req.OverdueAmount, req.Currency, u.profile.Currency)
		if err != nil {
			return err
		}

		previous := u.profile.OverdueAmount
		entry, err := u.profile.RecordOverdue(overdue, req.OverdueDaysAvg)
		if err != nil {
			return err
		}
		if err := u.record(ctx, entry); err != nil {
			return err
		}
		if overdue.Amount() > previous.Amount() {
			if err := u.alert(ctx, credit.NewOverdueDetectedAlert(u.profile, previous)); err != nil {
				return err
			}
		}
		return u.save(ctx)
	})
	if err != nil {
		return nil, err
	}
	resp := ToProfileResponse(u.profile)
	return &resp, nil
}

// OnReturnCredited releases credit for a completed sales return, with the same
// automatic hold release as a payment
func (s *CreditService) OnReturnCredited(ctx context.Context, req ReturnCreditedRequest, actor *uuid.UUID) (*ProfileResponse, error) {
	u, err := s.execute(ctx, "on_return_credited", req.CustomerID, actorOf(actor), func(ctx context.Context, u *unitOfWork) error {
		if err := u.load(ctx, req.CustomerID); err != nil {
			return err
		}
		amount, err := parseMoney(req.Amount, req.Currency, u.profile.Currency)
		if err != nil {
			return err
		}

		ref := credit.Reference{Type: credit.ReferenceTypeSalesReturn, ID: &req.ReturnID, Number: req.ReturnNumber}
		entry, err := u.profile.RecordReturnCredit(amount, ref)
		if err != nil {
			return err
		}
		if err := u.record(ctx, entry); err != nil {
			return err
		}
		if err := u.releaseLimitExceededHold(ctx); err != nil {
			return err
		}
		return u.save(ctx)
	})
	if err != nil {
		return nil, err
	}
	resp := ToProfileResponse(u.profile)
	return &resp, nil
}

// PlaceManualHold puts the customer on a MANUAL_HOLD
func (s *CreditService) PlaceManualHold(ctx context.Context, customerID uuid.UUID, reason string, actor *uuid.UUID) (*HoldResponse, error) {
	return s.PlaceHold(ctx, customerID, PlaceHoldRequest{HoldType: credit.HoldTypeManualHold.String(), Reason: reason}, actor)
}

// PlaceHold puts the customer on a hold placed by a person. CREDIT_LIMIT_EXCEEDED holds
// are reserved for the automatic policy.
func (s *CreditService) PlaceHold(ctx context.Context, customerID uuid.UUID, req PlaceHoldRequest, actor *uuid.UUID) (*HoldResponse, error) {
	actorID, err := requireActor(actor)
	if err != nil {
		return nil, err
	}
	holdType := credit.HoldTypeManualHold
	if req.HoldType != "" {
		if holdType, err = credit.ParseHoldType(req.HoldType); err != nil {
			return nil, err
		}
	}
	if holdType == credit.HoldTypeCreditLimitExceeded {
		return nil, shared.NewDomainError("INVALID_HOLD_TYPE", "Credit limit exceeded holds are placed automatically")
	}

	var hold *credit.CreditHold
	_, err = s.execute(ctx, "place_hold", customerID, &actorID, func(ctx context.Context, u *unitOfWork) error {
		if err := u.load(ctx, customerID); err != nil {
			return err
		}
		active, err := u.activeHold(ctx)
		if err != nil {
			return err
		}
		if active != nil {
			return credit.ErrHoldAlreadyActive
		}

		hold, err = credit.NewCreditHold(u.profile, holdType, req.Reason, u.profile.AmountOverLimit(), &actorID)
		if err != nil {
			return err
		}
		hold.WithNotes(req.Notes)
		if err := u.placeHold(ctx, hold); err != nil {
			return err
		}
		if err := u.alert(ctx, credit.NewHoldPlacedAlert(u.profile, hold)); err != nil {
			return err
		}
		return u.save(ctx)
	})
	if err != nil {
		return nil, err
	}
	resp := ToHoldResponse(hold)
	return &resp, nil
}

// ReleaseHold releases the customer's active hold
func (s *CreditService) ReleaseHold(ctx context.Context, customerID uuid.UUID, req ReleaseHoldRequest, actor *uuid.UUID) (*HoldResponse, error) {
	actorID, err := requireActor(actor)
	if err != nil {
		return nil, err
	}

	var hold *credit.CreditHold
	_, err = s.execute(ctx, "release_hold", customerID, &actorID, func(ctx context.Context, u *unitOfWork) error {
		if err := u.load(ctx, customerID); err != nil {
			return err
		}
		active, err := u.activeHold(ctx)
		if err != nil {
			return err
		}
		if active == nil {
			return credit.ErrNoActiveHold
		}
		hold = active
		if err := u.releaseHold(ctx, hold, req.OverrideReason); err != nil {
			return err
		}
		return u.save(ctx)
	})
	if err != nil {
		return nil, err
	}
	resp := ToHoldResponse(hold)
	return &resp, nil
}

// SetHoldPolicy changes the auto-hold switch and the warning threshold
func (s *CreditService) SetHoldPolicy(ctx context.Context, customerID uuid.UUID, req HoldPolicyRequest, actor *uuid.UUID) (*ProfileResponse, error) {
	actorID, err := requireActor(actor)
	if err != nil {
		return nil, err
	}
	if req.AutoHoldEnabled == nil {
		return nil, shared.NewDomainError("INVALID_HOLD_POLICY", "auto_hold_enabled is required")
	}
	return s.changeProfile(ctx, "set_hold_policy", customerID, &actorID, func(p *credit.CreditProfile) (*credit.CreditTransaction, error) {
		return p.SetHoldPolicy(*req.AutoHoldEnabled, req.HoldThresholdPercent)
	})
}

// DeactivateProfile stops the profile from accepting intake. Limit changes are still allowed.
func (s *CreditService) DeactivateProfile(ctx context.Context, customerID uuid.UUID, actor *uuid.UUID) (*ProfileResponse, error) {
	actorID, err := requireActor(actor)
	if err != nil {
		return nil, err
	}
	return s.changeProfile(ctx, "deactivate_profile", customerID, &actorID, (*credit.CreditProfile).Deactivate)
}

// ActivateProfile re-enables intake on an inactive profile
func (s *CreditService) ActivateProfile(ctx context.Context, customerID uuid.UUID, actor *uuid.UUID) (*ProfileResponse, error) {
	actorID, err := requireActor(actor)
	if err != nil {
		return nil, err
	}
	return s.changeProfile(ctx, "activate_profile", customerID, &actorID, (*credit.CreditProfile).Activate)
}

// changeProfile applies a profile-only change that produces a single ledger entry
func (s *CreditService) changeProfile(
	ctx context.Context,
	op string,
	customerID uuid.UUID,
	actor *uuid.UUID,
	change func(p *credit.CreditProfile) (*credit.CreditTransaction, error),
) (*ProfileResponse, error) {
	u, err := s.execute(ctx, op, customerID, actor, func(ctx context.Context, u *unitOfWork) error {
		if err := u.load(ctx, customerID); err != nil {
			return err
		}
		entry, err := change(u.profile)
		if err != nil {
			return err
		}
		if err := u.record(ctx, entry); err != nil {
			return err
		}
		return u.save(ctx)
	})
	if err != nil {
		return nil, err
	}
	resp := ToProfileResponse(u.profile)
	return &resp, nil
}

// GetProfile returns the customer's profile, or nil if the customer has none
func (s *CreditService) GetProfile(ctx context.Context, customerID uuid.UUID) (*ProfileResponse, error) {
	profile, err := s.repos.Profiles.FindByCustomerID(ctx, customerID)
	if err != nil {
		if shared.IsCategory(err, shared.CategoryNotFound) {
			return nil, nil
		}
		return nil, err
	}
	resp := ToProfileResponse(profile)
	return &resp, nil
}

// ListProfiles returns one page of profiles
func (s *CreditService) ListProfiles(ctx context.Context, page shared.Pagination) (*shared.Paginated[ProfileResponse], error) {
	page = page.Normalize()
	profiles, total, err := s.repos.Profiles.List(ctx, page)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(ToProfileResponses(profiles), total, page.Page, page.PageSize)
	return &result, nil
}

// ListOnHold returns the profiles of customers with an active hold
func (s *CreditService) ListOnHold(ctx context.Context) ([]ProfileResponse, error) {
	profiles, err := s.repos.Profiles.ListOnHold(ctx)
	if err != nil {
		return nil, err
	}
	return ToProfileResponses(profiles), nil
}

// ListHighRisk returns profiles at HIGH or CRITICAL risk
func (s *CreditService) ListHighRisk(ctx context.Context) ([]ProfileResponse, error) {
	profiles, err := s.repos.Profiles.ListByRiskLevels(ctx, credit.RiskLevelHigh, credit.RiskLevelCritical)
	if err != nil {
		return nil, err
	}
	return ToProfileResponses(profiles), nil
}

// ListTransactions returns the customer's latest ledger entries, most recent first
func (s *CreditService) ListTransactions(ctx context.Context, customerID uuid.UUID, limit int) ([]TransactionResponse, error) {
	if limit <= 0 {
		limit = DefaultTransactionListLimit
	}
	if limit > MaxTransactionListLimit {
		limit = MaxTransactionListLimit
	}
	entries, err := s.repos.Transactions.ListByCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, err
	}
	return ToTransactionResponses(entries), nil
}

// ListHolds returns all holds of the customer, newest first
func (s *CreditService) ListHolds(ctx context.Context, customerID uuid.UUID) ([]HoldResponse, error) {
	holds, err := s.repos.Holds.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return ToHoldResponses(holds), nil
}

// ListLimitChanges returns the customer's limit audit trail, newest first
func (s *CreditService) ListLimitChanges(ctx context.Context, customerID uuid.UUID) ([]LimitChangeResponse, error) {
	changes, err := s.repos.LimitChanges.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return ToLimitChangeResponses(changes), nil
}

// GetSummary aggregates all profiles kept in currency (the default currency when empty)
func (s *CreditService) GetSummary(ctx context.Context, currency string) (*SummaryResponse, error) {
	c := s.config.DefaultCurrency
	if currency != "" {
		parsed, err := valueobject.ParseCurrency(currency)
		if err != nil {
			return nil, err
		}
		c = parsed
	}
	summary, err := s.repos.Profiles.Summarize(ctx, c)
	if err != nil {
		return nil, err
	}
	resp := ToSummaryResponse(summary)
	return &resp, nil
}

// ListUnreadAlerts returns all unread alerts, oldest first
func (s *CreditService) ListUnreadAlerts(ctx context.Context) ([]AlertResponse, error) {
	alerts, err := s.repos.Alerts.ListUnread(ctx)
	if err != nil {
		return nil, err
	}
	return ToAlertResponses(alerts), nil
}

// ListAlerts returns the customer's alerts, unread first
func (s *CreditService) ListAlerts(ctx context.Context, customerID uuid.UUID) ([]AlertResponse, error) {
	alerts, err := s.repos.Alerts.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return ToAlertResponses(alerts), nil
}

// AcknowledgeAlert marks an alert read. Acknowledging twice keeps the first acknowledgement.
func (s *CreditService) AcknowledgeAlert(ctx context.Context, alertID uuid.UUID, actor *uuid.UUID) (*AlertResponse, error) {
	actorID, err := requireActor(actor)
	if err != nil {
		return nil, err
	}
	alert, err := s.repos.Alerts.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.Acknowledge(actorID) {
		err := s.repos.Alerts.Save(ctx, alert)
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			// Someone else acknowledged it first; report theirs.
			alert, err = s.repos.Alerts.FindByID(ctx, alertID)
		}
		if err != nil {
			return nil, err
		}
	}
	resp := ToAlertResponse(alert)
	return &resp, nil
}

// VerifyLedger replays the customer's ledger against the stored profile.
// The profile row is locked while reading so no intake interleaves.
func (s *CreditService) VerifyLedger(ctx context.Context, customerID uuid.UUID) (*LedgerVerificationResponse, error) {
	var report credit.LedgerReport
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		profile, err := repos.ProfileRepo().FindByCustomerIDForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		entries, err := repos.TransactionRepo().ListAllByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		report = credit.ReplayLedger(profile, entries)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !report.Consistent() {
		s.logger.Error("credit ledger inconsistent with profile",
			zap.String("customer_id", customerID.String()),
			zap.String("violation", report.FirstViolation),
			zap.Int64("stored_credit_used", report.StoredCreditUsed.Amount()),
			zap.Int64("reconstructed_credit_used", report.ReconstructedUsed.Amount()),
		)
	}
	resp := ToLedgerVerificationResponse(report)
	return &resp, nil
}

// parseMoney builds Money from a minor-unit amount; an empty currency means fallback
func parseMoney(amount int64, currency string, fallback valueobject.Currency) (valueobject.Money, error) {
	c := fallback
	if currency != "" {
		parsed, err := valueobject.ParseCurrency(currency)
		if err != nil {
			return valueobject.Money{}, err
		}
		c = parsed
	}
	return valueobject.NewMoney(amount, c)
}

// actorOf treats the nil UUID as no actor
func actorOf(actor *uuid.UUID) *uuid.UUID {
	if actor == nil || *actor == uuid.Nil {
		return nil
	}
	return actor
}

func requireActor(actor *uuid.UUID) (uuid.UUID, error) {
	if a := actorOf(actor); a != nil {
		return *a, nil
	}
	return uuid.Nil, shared.ErrUnauthorized
}
