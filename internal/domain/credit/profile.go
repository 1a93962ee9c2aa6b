package credit

import (
	"fmt"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeCreditProfile is the aggregate type for CreditProfile
const AggregateTypeCreditProfile = "CreditProfile"

// DefaultHoldThresholdPercent is the utilization percent above which checks warn
const DefaultHoldThresholdPercent = 90

// ProfileStatus is the lifecycle status of a credit profile
type ProfileStatus string

const (
	ProfileStatusActive   ProfileStatus = "ACTIVE"
	ProfileStatusInactive ProfileStatus = "INACTIVE"
)

// String returns the string representation of ProfileStatus
func (s ProfileStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s ProfileStatus) IsValid() bool {
	return s == ProfileStatusActive || s == ProfileStatusInactive
}

// ParseProfileStatus parses the canonical form of a profile status
func ParseProfileStatus(s string) (ProfileStatus, error) {
	status := ProfileStatus(s)
	if !status.IsValid() {
		return "", invalidEnum("profile status", s)
	}
	return status, nil
}

// CreditProfile is the per-customer credit aggregate.
// Every exported mutation recomputes available credit and risk level and returns
// the ledger entry that explains it; callers persist the entry in the same unit of work.
type CreditProfile struct {
	shared.BaseAggregateRoot
	CustomerID           uuid.UUID
	Currency             valueobject.Currency
	CreditLimit          valueobject.Money
	CreditUsed           valueobject.Money
	AvailableCredit      valueobject.Money
	OutstandingInvoices  valueobject.Money
	PendingOrders        valueobject.Money
	OverdueAmount        valueobject.Money
	OverdueDaysAvg       int
	CreditScore          *int
	RiskLevel            RiskLevel
	AutoHoldEnabled      bool
	HoldThresholdPercent int
	Status               ProfileStatus
	LedgerSequence       int64
}

// NewCreditProfile creates an active profile with nothing used
func NewCreditProfile(customerID uuid.UUID, initialLimit valueobject.Money, holdThresholdPercent int) (*CreditProfile, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !initialLimit.Currency().IsValid() {
		return nil, shared.ErrInvalidCurrency
	}
	if initialLimit.IsNegative() {
		return nil, shared.NewDomainError(shared.ErrInvalidAmount.Code, "Credit limit cannot be negative")
	}
	if err := validateThreshold(holdThresholdPercent); err != nil {
		return nil, err
	}

	currency := initialLimit.Currency()
	p := &CreditProfile{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		CustomerID:           customerID,
		Currency:             currency,
		CreditLimit:          initialLimit,
		CreditUsed:           valueobject.Zero(currency),
		AvailableCredit:      initialLimit,
		OutstandingInvoices:  valueobject.Zero(currency),
		PendingOrders:        valueobject.Zero(currency),
		OverdueAmount:        valueobject.Zero(currency),
		RiskLevel:            RiskLevelLow,
		AutoHoldEnabled:      true,
		HoldThresholdPercent: holdThresholdPercent,
		Status:               ProfileStatusActive,
	}
	return p, nil
}

// IsActive returns true if the profile accepts intake
func (p *CreditProfile) IsActive() bool {
	return p.Status == ProfileStatusActive
}

// IsOverLimit reports credit used > credit limit
func (p *CreditProfile) IsOverLimit() bool {
	return p.CreditUsed.Amount() > p.CreditLimit.Amount()
}

// AmountOverLimit returns how far credit used exceeds the limit, or zero
func (p *CreditProfile) AmountOverLimit() valueobject.Money {
	return p.AvailableCredit.Negate().FloorZero()
}

// IsApproachingLimit reports available credit < percent% of the credit limit
func (p *CreditProfile) IsApproachingLimit(percent int) bool {
	threshold := p.CreditLimit.Decimal().Mul(decimal.NewFromInt(int64(percent))).Div(decimal.NewFromInt(100))
	return p.AvailableCredit.Decimal().LessThan(threshold)
}

// UtilizationThreshold returns hold_threshold_percent/100 × credit_limit
func (p *CreditProfile) UtilizationThreshold() decimal.Decimal {
	return p.CreditLimit.Decimal().
		Mul(decimal.NewFromInt(int64(p.HoldThresholdPercent))).
		Div(decimal.NewFromInt(100))
}

// UtilizationPercent returns credit used as a percentage of the limit (0 when the limit is 0)
func (p *CreditProfile) UtilizationPercent() decimal.Decimal {
	if p.CreditLimit.IsZero() {
		return decimal.Zero
	}
	return p.CreditUsed.Decimal().Mul(decimal.NewFromInt(100)).Div(p.CreditLimit.Decimal())
}

// RequireAmount rejects negative amounts and amounts in another currency
func (p *CreditProfile) RequireAmount(amount valueobject.Money) error {
	if amount.Currency() != p.Currency {
		return shared.NewCategorizedError(shared.CategoryValidation, shared.ErrInvalidCurrency.Code,
			fmt.Sprintf("amount currency %s does not match profile currency %s", amount.Currency(), p.Currency))
	}
	if amount.IsNegative() {
		return shared.ErrInvalidAmount
	}
	return nil
}

func (p *CreditProfile) requireActive() error {
	if !p.IsActive() {
		return shared.NewDomainError("PROFILE_INACTIVE", "Credit profile is inactive")
	}
	return nil
}

// RecordInvoice consumes credit for a newly issued invoice.
// Pending orders are reduced by the same amount since the invoice fulfils them.
func (p *CreditProfile) RecordInvoice(amount valueobject.Money, ref Reference) (*CreditTransaction, error) {
	if err := p.requireActive(); err != nil {
		return nil, err
	}
	if err := p.RequireAmount(amount); err != nil {
		return nil, err
	}

	previous := p.CreditUsed
	used, err := p.CreditUsed.Add(amount)
	if err != nil {
		return nil, err
	}
	outstanding, err := p.OutstandingInvoices.Add(amount)
	if err != nil {
		return nil, err
	}
	pending, err := p.PendingOrders.Subtract(amount)
	if err != nil {
		return nil, err
	}

	p.CreditUsed = used
	p.OutstandingInvoices = outstanding
	p.PendingOrders = pending.FloorZero()
	if err := p.recompute(); err != nil {
		return nil, err
	}

	return p.appendEntry(TransactionKindInvoiceCreated, amount, previous).
		WithReference(ref).
		WithDescription(describe("Invoice", ref.Number, "created")), nil
}

// RecordPayment releases credit for a received payment. Balances never drop below zero,
// so the entry amount is the delta actually applied.
func (p *CreditProfile) RecordPayment(amount valueobject.Money, ref Reference) (*CreditTransaction, error) {
	if err := p.requireActive(); err != nil {
		return nil, err
	}
	if err := p.RequireAmount(amount); err != nil {
		return nil, err
	}
	entry, err := p.releaseCredit(TransactionKindInvoicePaid, amount)
	if err != nil {
		return nil, err
	}
	return entry.WithReference(ref).WithDescription(describe("Payment for invoice", ref.Number, "received")), nil
}

// RecordReturnCredit releases credit for a completed sales return
func (p *CreditProfile) RecordReturnCredit(amount valueobject.Money, ref Reference) (*CreditTransaction, error) {
	if err := p.requireActive(); err != nil {
		return nil, err
	}
	if err := p.RequireAmount(amount); err != nil {
		return nil, err
	}
	entry, err := p.releaseCredit(TransactionKindAdjustment, amount)
	if err != nil {
		return nil, err
	}
	return entry.WithReference(ref).WithDescription(describe("Sales return", ref.Number, "credited")), nil
}

func (p *CreditProfile) releaseCredit(kind TransactionKind, amount valueobject.Money) (*CreditTransaction, error) {
	previous := p.CreditUsed
	used, err := p.CreditUsed.Subtract(amount)
	if err != nil {
		return nil, err
	}
	outstanding, err := p.OutstandingInvoices.Subtract(amount)
	if err != nil {
		return nil, err
	}

	p.CreditUsed = used.FloorZero()
	p.OutstandingInvoices = outstanding.FloorZero()
	if err := p.recompute(); err != nil {
		return nil, err
	}

	delta, err := p.CreditUsed.Subtract(previous)
	if err != nil {
		return nil, err
	}
	return p.appendEntry(kind, delta, previous), nil
}

// RecordOrder adds an order to pending orders. Credit used is not touched;
// the entry records intent with a zero amount.
func (p *CreditProfile) RecordOrder(amount valueobject.Money, ref Reference) (*CreditTransaction, error) {
	if err := p.requireActive(); err != nil {
		return nil, err
	}
	if err := p.RequireAmount(amount); err != nil {
		return nil, err
	}
	pending, err := p.PendingOrders.Add(amount)
	if err != nil {
		return nil, err
	}

	p.PendingOrders = pending
	if err := p.recompute(); err != nil {
		return nil, err
	}

	return p.appendEntry(TransactionKindOrderPlaced, valueobject.Zero(p.Currency), p.CreditUsed).
		WithReference(ref).
		WithDescription(fmt.Sprintf("%s (%s)", describe("Order", ref.Number, "placed"), amount)), nil
}

// RecordOverdue replaces the overdue snapshot with freshly computed totals
func (p *CreditProfile) RecordOverdue(overdue valueobject.Money, overdueDaysAvg int) (*CreditTransaction, error) {
	if err := p.requireActive(); err != nil {
		return nil, err
	}
	if err := p.RequireAmount(overdue); err != nil {
		return nil, err
	}
	if overdueDaysAvg < 0 {
		return nil, shared.NewDomainError("INVALID_OVERDUE_DAYS", "Average overdue days cannot be negative")
	}

	p.OverdueAmount = overdue
	p.OverdueDaysAvg = overdueDaysAvg
	if err := p.recompute(); err != nil {
		return nil, err
	}

	return p.appendEntry(TransactionKindAdjustment, valueobject.Zero(p.Currency), p.CreditUsed).
		WithReference(Reference{Type: ReferenceTypeProfile, ID: &p.ID}).
		WithDescription(fmt.Sprintf("Overdue snapshot: %s, average %d days", overdue, overdueDaysAvg)), nil
}

// ChangeLimit sets a new credit limit. The ledger entry amount is the limit delta;
// credit used is unchanged. Inactive profiles may still have their limit changed.
func (p *CreditProfile) ChangeLimit(newLimit valueobject.Money, reason string) (*CreditTransaction, error) {
	if err := p.RequireAmount(newLimit); err != nil {
		return nil, err
	}
	previousLimit := p.CreditLimit
	delta, err := newLimit.Subtract(previousLimit)
	if err != nil {
		return nil, err
	}

	p.CreditLimit = newLimit
	if err := p.recompute(); err != nil {
		return nil, err
	}

	p.AddDomainEvent(NewCreditLimitChangedEvent(p, previousLimit, newLimit, reason))

	return p.appendEntry(TransactionKindCreditLimitChanged, delta, p.CreditUsed).
		WithDescription(fmt.Sprintf("Credit limit changed from %s to %s: %s", previousLimit, newLimit, reason)), nil
}

// SetHoldPolicy changes the auto-hold switch and the warning threshold
func (p *CreditProfile) SetHoldPolicy(autoHoldEnabled bool, holdThresholdPercent int) (*CreditTransaction, error) {
	if err := validateThreshold(holdThresholdPercent); err != nil {
		return nil, err
	}
	p.AutoHoldEnabled = autoHoldEnabled
	p.HoldThresholdPercent = holdThresholdPercent
	p.Touch()

	return p.appendEntry(TransactionKindAdjustment, valueobject.Zero(p.Currency), p.CreditUsed).
		WithReference(Reference{Type: ReferenceTypeProfile, ID: &p.ID}).
		WithDescription(fmt.Sprintf("Hold policy set: auto hold %t, threshold %d%%", autoHoldEnabled, holdThresholdPercent)), nil
}

// Deactivate stops the profile from accepting intake
func (p *CreditProfile) Deactivate() (*CreditTransaction, error) {
	return p.setStatus(ProfileStatusInactive)
}

// Activate re-enables intake on an inactive profile
func (p *CreditProfile) Activate() (*CreditTransaction, error) {
	return p.setStatus(ProfileStatusActive)
}

func (p *CreditProfile) setStatus(status ProfileStatus) (*CreditTransaction, error) {
	if p.Status == status {
		return nil, shared.NewConflictError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Credit profile is already %s", status))
	}
	p.Status = status
	p.Touch()

	return p.appendEntry(TransactionKindAdjustment, valueobject.Zero(p.Currency), p.CreditUsed).
		WithReference(Reference{Type: ReferenceTypeProfile, ID: &p.ID}).
		WithDescription("Profile status set to " + status.String()), nil
}

// RecordHoldPlaced appends the ledger entry for a new hold
func (p *CreditProfile) RecordHoldPlaced(hold *CreditHold) *CreditTransaction {
	p.Touch()
	p.AddDomainEvent(NewCreditHoldPlacedEvent(p, hold))
	return p.appendEntry(TransactionKindCreditHoldPlaced, valueobject.Zero(p.Currency), p.CreditUsed).
		WithReference(Reference{Type: ReferenceTypeHold, ID: &hold.ID}).
		WithDescription(fmt.Sprintf("Credit hold placed (%s): %s", hold.Type, hold.Reason))
}

// RecordHoldReleased appends the ledger entry for a released hold
func (p *CreditProfile) RecordHoldReleased(hold *CreditHold) *CreditTransaction {
	p.Touch()
	p.AddDomainEvent(NewCreditHoldReleasedEvent(p, hold))
	description := "Credit hold released"
	if hold.OverrideReason != nil {
		description += ": " + *hold.OverrideReason
	}
	return p.appendEntry(TransactionKindCreditHoldReleased, valueobject.Zero(p.Currency), p.CreditUsed).
		WithReference(Reference{Type: ReferenceTypeHold, ID: &hold.ID}).
		WithDescription(description)
}

// CheckInvariants re-asserts the balance identity, the used/outstanding ordering,
// the stored risk level and the single-currency rule.
func (p *CreditProfile) CheckInvariants() error {
	fail := func(format string, args ...any) error {
		return shared.NewInternalError(fmt.Sprintf("credit profile %s: ", p.CustomerID) + fmt.Sprintf(format, args...))
	}

	for name, m := range map[string]valueobject.Money{
		"credit_limit":         p.CreditLimit,
		"credit_used":          p.CreditUsed,
		"available_credit":     p.AvailableCredit,
		"outstanding_invoices": p.OutstandingInvoices,
		"pending_orders":       p.PendingOrders,
		"overdue_amount":       p.OverdueAmount,
	} {
		if m.Currency() != p.Currency {
			return fail("%s is in %s, profile currency is %s", name, m.Currency(), p.Currency)
		}
		if name != "available_credit" && m.IsNegative() {
			return fail("%s is negative", name)
		}
	}
	if p.AvailableCredit.Amount() != p.CreditLimit.Amount()-p.CreditUsed.Amount() {
		return fail("available %d != limit %d - used %d",
			p.AvailableCredit.Amount(), p.CreditLimit.Amount(), p.CreditUsed.Amount())
	}
	if p.CreditUsed.Amount() < p.OutstandingInvoices.Amount() {
		return fail("credit used %d below outstanding invoices %d",
			p.CreditUsed.Amount(), p.OutstandingInvoices.Amount())
	}
	if want := ClassifyRisk(p.riskInputs()); p.RiskLevel != want {
		return fail("risk level %s, classifier says %s", p.RiskLevel, want)
	}
	if p.OverdueDaysAvg < 0 || validateThreshold(p.HoldThresholdPercent) != nil || !p.Status.IsValid() {
		return fail("policy fields out of range")
	}
	return nil
}

func (p *CreditProfile) riskInputs() RiskInputs {
	return RiskInputs{
		CreditLimit:         p.CreditLimit.Amount(),
		CreditUsed:          p.CreditUsed.Amount(),
		OverdueAmount:       p.OverdueAmount.Amount(),
		OutstandingInvoices: p.OutstandingInvoices.Amount(),
	}
}

// recompute restores available credit and risk level after a field change
func (p *CreditProfile) recompute() error {
	available, err := p.CreditLimit.Subtract(p.CreditUsed)
	if err != nil {
		return err
	}
	p.AvailableCredit = available

	previous := p.RiskLevel
	p.RiskLevel = ClassifyRisk(p.riskInputs())
	if p.RiskLevel != previous {
		p.AddDomainEvent(NewCreditRiskLevelChangedEvent(p, previous, p.RiskLevel))
	}
	p.Touch()
	return nil
}

func (p *CreditProfile) appendEntry(kind TransactionKind, amount, previousUsed valueobject.Money) *CreditTransaction {
	p.LedgerSequence++
	return &CreditTransaction{
		ID:                 uuid.New(),
		ProfileID:          p.ID,
		CustomerID:         p.CustomerID,
		Sequence:           p.LedgerSequence,
		Kind:               kind,
		Amount:             amount,
		PreviousCreditUsed: previousUsed,
		NewCreditUsed:      p.CreditUsed,
		CreatedAt:          shared.Now(),
	}
}

func validateThreshold(percent int) error {
	if percent < 0 || percent > 100 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Hold threshold percent must be between 0 and 100")
	}
	return nil
}

func describe(subject, number, verb string) string {
	if number == "" {
		return subject + " " + verb
	}
	return subject + " " + number + " " + verb
}
