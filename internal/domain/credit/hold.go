package credit

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// HoldType is the reason category of a credit hold
type HoldType string

const (
	HoldTypeCreditLimitExceeded HoldType = "CREDIT_LIMIT_EXCEEDED"
	HoldTypeManualHold          HoldType = "MANUAL_HOLD"
	HoldTypeOverdueInvoices     HoldType = "OVERDUE_INVOICES"
	HoldTypeRiskReview          HoldType = "RISK_REVIEW"
	HoldTypeOther               HoldType = "OTHER"
)

// String returns the string representation of HoldType
func (t HoldType) String() string {
	return string(t)
}

// IsValid returns true if the hold type is valid
func (t HoldType) IsValid() bool {
	switch t {
	case HoldTypeCreditLimitExceeded,
		HoldTypeManualHold,
		HoldTypeOverdueInvoices,
		HoldTypeRiskReview,
		HoldTypeOther:
		return true
	}
	return false
}

// ParseHoldType parses the canonical form of a hold type
func ParseHoldType(s string) (HoldType, error) {
	t := HoldType(s)
	if !t.IsValid() {
		return "", invalidEnum("hold type", s)
	}
	return t, nil
}

// HoldStatus is the status of a credit hold
type HoldStatus string

const (
	HoldStatusActive   HoldStatus = "ACTIVE"
	HoldStatusReleased HoldStatus = "RELEASED"
)

// String returns the string representation of HoldStatus
func (s HoldStatus) String() string {
	return string(s)
}

// IsValid returns true if the hold status is valid
func (s HoldStatus) IsValid() bool {
	return s == HoldStatusActive || s == HoldStatusReleased
}

// ParseHoldStatus parses the canonical form of a hold status
func ParseHoldStatus(s string) (HoldStatus, error) {
	status := HoldStatus(s)
	if !status.IsValid() {
		return "", invalidEnum("hold status", s)
	}
	return status, nil
}

// Hold conflict errors
var (
	ErrHoldAlreadyActive = shared.NewConflictError("HOLD_ALREADY_ACTIVE", "Customer already has an active credit hold")
	ErrNoActiveHold      = shared.NewConflictError("NO_ACTIVE_HOLD", "Customer has no active credit hold")
)

// PaymentReceivedReleaseReason is the override reason of holds released by a payment
const PaymentReceivedReleaseReason = "Payment received"

// CreditHold blocks new credit approvals for a customer until released.
// A hold goes ACTIVE -> RELEASED exactly once; a recurring condition creates a new hold.
type CreditHold struct {
	shared.BaseEntity
	ProfileID        uuid.UUID
	CustomerID       uuid.UUID
	Type             HoldType
	Reason           string
	AmountOverLimit  valueobject.Money
	RelatedOrderID   *uuid.UUID
	RelatedInvoiceID *uuid.UUID
	Status           HoldStatus
	PlacedBy         *uuid.UUID
	PlacedAt         time.Time
	ReleasedBy       *uuid.UUID
	ReleasedAt       *time.Time
	OverrideReason   *string
	Notes            *string
}

// NewCreditHold creates an active hold against the profile
func NewCreditHold(
	profile *CreditProfile,
	holdType HoldType,
	reason string,
	amountOverLimit valueobject.Money,
	placedBy *uuid.UUID,
) (*CreditHold, error) {
	if !holdType.IsValid() {
		return nil, invalidEnum("hold type", string(holdType))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Hold reason cannot be empty")
	}
	if err := profile.RequireAmount(amountOverLimit); err != nil {
		return nil, err
	}

	base := shared.NewBaseEntity()
	return &CreditHold{
		BaseEntity:      base,
		ProfileID:       profile.ID,
		CustomerID:      profile.CustomerID,
		Type:            holdType,
		Reason:          reason,
		AmountOverLimit: amountOverLimit,
		Status:          HoldStatusActive,
		PlacedBy:        placedBy,
		PlacedAt:        base.CreatedAt,
	}, nil
}

// NewLimitExceededHold creates the automatic hold placed when credit used passes the limit
func NewLimitExceededHold(profile *CreditProfile, amountOverLimit valueobject.Money, placedBy *uuid.UUID) (*CreditHold, error) {
	reason := fmt.Sprintf("Credit limit exceeded by %s", amountOverLimit)
	return NewCreditHold(profile, HoldTypeCreditLimitExceeded, reason, amountOverLimit, placedBy)
}

// WithRelatedOrder links the hold to the order that triggered it
func (h *CreditHold) WithRelatedOrder(orderID *uuid.UUID) *CreditHold {
	h.RelatedOrderID = orderID
	return h
}

// WithRelatedInvoice links the hold to the invoice that triggered it
func (h *CreditHold) WithRelatedInvoice(invoiceID *uuid.UUID) *CreditHold {
	h.RelatedInvoiceID = invoiceID
	return h
}

// WithNotes sets free-form notes
func (h *CreditHold) WithNotes(notes string) *CreditHold {
	if notes != "" {
		h.Notes = &notes
	}
	return h
}

// IsActive returns true while the hold blocks approvals
func (h *CreditHold) IsActive() bool {
	return h.Status == HoldStatusActive
}

// Release marks the hold released. Releasing twice is a conflict.
func (h *CreditHold) Release(releasedBy *uuid.UUID, overrideReason string) error {
	if !h.IsActive() {
		return shared.NewConflictError(ErrNoActiveHold.Code, "Credit hold is already released")
	}
	now := shared.Now()
	h.Status = HoldStatusReleased
	h.ReleasedBy = releasedBy
	h.ReleasedAt = &now
	if overrideReason = strings.TrimSpace(overrideReason); overrideReason != "" {
		h.OverrideReason = &overrideReason
	}
	h.UpdatedAt = now
	return nil
}
