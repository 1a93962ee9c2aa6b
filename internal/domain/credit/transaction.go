package credit

import (
	"fmt"
	"time"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// TransactionKind is the kind of a credit ledger entry
type TransactionKind string

const (
	// TransactionKindInvoiceCreated increases credit used by the invoice amount
	TransactionKindInvoiceCreated TransactionKind = "INVOICE_CREATED"
	// TransactionKindInvoicePaid decreases credit used by the applied payment
	TransactionKindInvoicePaid TransactionKind = "INVOICE_PAID"
	// TransactionKindOrderPlaced records order intent; credit used is unchanged
	TransactionKindOrderPlaced TransactionKind = "ORDER_PLACED"
	// TransactionKindCreditLimitChanged carries the limit delta as its amount
	TransactionKindCreditLimitChanged TransactionKind = "CREDIT_LIMIT_CHANGED"
	TransactionKindCreditHoldPlaced   TransactionKind = "CREDIT_HOLD_PLACED"
	TransactionKindCreditHoldReleased TransactionKind = "CREDIT_HOLD_RELEASED"
	// TransactionKindAdjustment covers return credits, overdue snapshots and policy changes
	TransactionKindAdjustment TransactionKind = "ADJUSTMENT"
)

// String returns the string representation of TransactionKind
func (k TransactionKind) String() string {
	return string(k)
}

// IsValid returns true if the kind is valid
func (k TransactionKind) IsValid() bool {
	switch k {
	case TransactionKindInvoiceCreated,
		TransactionKindInvoicePaid,
		TransactionKindOrderPlaced,
		TransactionKindCreditLimitChanged,
		TransactionKindCreditHoldPlaced,
		TransactionKindCreditHoldReleased,
		TransactionKindAdjustment:
		return true
	}
	return false
}

// AffectsCreditUsed reports whether the entry amount is a delta to credit used.
// Summing the amounts of these kinds reconstructs the profile's credit used.
func (k TransactionKind) AffectsCreditUsed() bool {
	switch k {
	case TransactionKindInvoiceCreated, TransactionKindInvoicePaid, TransactionKindAdjustment:
		return true
	}
	return false
}

// ParseTransactionKind parses the canonical form of a transaction kind
func ParseTransactionKind(s string) (TransactionKind, error) {
	k := TransactionKind(s)
	if !k.IsValid() {
		return "", invalidEnum("transaction kind", s)
	}
	return k, nil
}

// ReferenceType names the document a ledger entry points at
type ReferenceType string

const (
	ReferenceTypeInvoice     ReferenceType = "INVOICE"
	ReferenceTypePayment     ReferenceType = "PAYMENT"
	ReferenceTypeOrder       ReferenceType = "ORDER"
	ReferenceTypeSalesReturn ReferenceType = "SALES_RETURN"
	ReferenceTypeHold        ReferenceType = "CREDIT_HOLD"
	ReferenceTypeLimitChange ReferenceType = "CREDIT_LIMIT_CHANGE"
	ReferenceTypeProfile     ReferenceType = "CREDIT_PROFILE"
)

// String returns the string representation of ReferenceType
func (t ReferenceType) String() string {
	return string(t)
}

// IsValid returns true if the reference type is valid
func (t ReferenceType) IsValid() bool {
	switch t {
	case ReferenceTypeInvoice, ReferenceTypePayment, ReferenceTypeOrder, ReferenceTypeSalesReturn,
		ReferenceTypeHold, ReferenceTypeLimitChange, ReferenceTypeProfile:
		return true
	}
	return false
}

// ParseReferenceType parses the canonical form of a reference type
func ParseReferenceType(s string) (ReferenceType, error) {
	t := ReferenceType(s)
	if !t.IsValid() {
		return "", invalidEnum("reference type", s)
	}
	return t, nil
}

// Reference identifies the source document of a ledger entry
type Reference struct {
	Type   ReferenceType
	ID     *uuid.UUID
	Number string
}

// CreditTransaction is one immutable ledger entry explaining a change to a credit profile.
// Entries are never updated or deleted; corrections are made with new entries.
type CreditTransaction struct {
	ID                 uuid.UUID
	ProfileID          uuid.UUID
	CustomerID         uuid.UUID
	Sequence           int64 // 1-based, contiguous per customer
	Kind               TransactionKind
	Amount             valueobject.Money // signed delta to credit used; limit delta for CREDIT_LIMIT_CHANGED
	PreviousCreditUsed valueobject.Money
	NewCreditUsed      valueobject.Money
	ReferenceType      *ReferenceType
	ReferenceID        *uuid.UUID
	ReferenceNumber    *string
	Description        string
	ActorID            *uuid.UUID
	CreatedAt          time.Time
}

// WithReference sets the source document reference
func (t *CreditTransaction) WithReference(ref Reference) *CreditTransaction {
	if ref.Type != "" {
		refType := ref.Type
		t.ReferenceType = &refType
	}
	t.ReferenceID = ref.ID
	if ref.Number != "" {
		number := ref.Number
		t.ReferenceNumber = &number
	}
	return t
}

// WithDescription sets the description
func (t *CreditTransaction) WithDescription(description string) *CreditTransaction {
	t.Description = description
	return t
}

// WithActor sets the acting user
func (t *CreditTransaction) WithActor(actorID *uuid.UUID) *CreditTransaction {
	t.ActorID = actorID
	return t
}

// CheckBalance verifies the entry is internally consistent:
// credit-moving kinds satisfy new = previous + amount, all others leave credit used unchanged.
func (t *CreditTransaction) CheckBalance() error {
	if !t.Kind.IsValid() {
		return shared.NewInternalError(fmt.Sprintf("ledger entry %s has unknown kind %q", t.ID, t.Kind))
	}
	if t.Amount.Currency() != t.PreviousCreditUsed.Currency() || t.Amount.Currency() != t.NewCreditUsed.Currency() {
		return shared.NewInternalError(fmt.Sprintf("ledger entry %s mixes currencies", t.ID))
	}
	prev, next := t.PreviousCreditUsed.Amount(), t.NewCreditUsed.Amount()
	if t.Kind.AffectsCreditUsed() {
		if next != prev+t.Amount.Amount() {
			return shared.NewInternalError(fmt.Sprintf(
				"ledger entry %s does not balance: %d + %d != %d", t.ID, prev, t.Amount.Amount(), next))
		}
		return nil
	}
	if next != prev {
		return shared.NewInternalError(fmt.Sprintf(
			"ledger entry %s of kind %s changes credit used", t.ID, t.Kind))
	}
	return nil
}

// CheckContinuity verifies t directly follows prev in its customer's ledger
func (t *CreditTransaction) CheckContinuity(prev *CreditTransaction) error {
	if err := t.CheckBalance(); err != nil {
		return err
	}
	if prev == nil {
		if t.Sequence != 1 {
			return shared.NewInternalError(fmt.Sprintf("ledger for customer %s starts at sequence %d", t.CustomerID, t.Sequence))
		}
		if !t.PreviousCreditUsed.IsZero() {
			return shared.NewInternalError(fmt.Sprintf("ledger for customer %s does not start from zero", t.CustomerID))
		}
		return nil
	}
	if t.Sequence != prev.Sequence+1 {
		return shared.NewInternalError(fmt.Sprintf(
			"ledger gap for customer %s: sequence %d follows %d", t.CustomerID, t.Sequence, prev.Sequence))
	}
	if !t.PreviousCreditUsed.Equals(prev.NewCreditUsed) {
		return shared.NewInternalError(fmt.Sprintf(
			"ledger break for customer %s at sequence %d: previous %d, expected %d",
			t.CustomerID, t.Sequence, t.PreviousCreditUsed.Amount(), prev.NewCreditUsed.Amount()))
	}
	return nil
}

// LedgerReport is the outcome of replaying a customer's ledger against the profile
type LedgerReport struct {
	CustomerID        uuid.UUID
	Entries           int
	StoredCreditUsed  valueobject.Money
	ReconstructedUsed valueobject.Money
	LastSequence      int64
	ProfileSequence   int64
	Balanced          bool
	Continuous        bool
	FirstViolation    string
}

// Consistent reports whether the ledger both reconstructs the stored credit used and is unbroken
func (r LedgerReport) Consistent() bool {
	return r.Balanced && r.Continuous
}

// ReplayLedger walks entries in ascending sequence order and compares the result to the profile
func ReplayLedger(profile *CreditProfile, entries []*CreditTransaction) LedgerReport {
	report := LedgerReport{
		CustomerID:       profile.CustomerID,
		Entries:          len(entries),
		StoredCreditUsed: profile.CreditUsed,
		ProfileSequence:  profile.LedgerSequence,
		Continuous:       true,
	}

	var sum int64
	var prev *CreditTransaction
	for _, entry := range entries {
		if err := entry.CheckContinuity(prev); err != nil && report.Continuous {
			report.Continuous = false
			report.FirstViolation = err.Error()
		}
		if entry.Kind.AffectsCreditUsed() {
			sum += entry.Amount.Amount()
		}
		report.LastSequence = entry.Sequence
		prev = entry
	}
	if report.Continuous && report.LastSequence != profile.LedgerSequence {
		report.Continuous = false
		report.FirstViolation = fmt.Sprintf("profile sequence %d but ledger ends at %d",
			profile.LedgerSequence, report.LastSequence)
	}

	report.ReconstructedUsed = valueobject.MustNewMoney(sum, profile.Currency)
	report.Balanced = sum == profile.CreditUsed.Amount()
	return report
}
