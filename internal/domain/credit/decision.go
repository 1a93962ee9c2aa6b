package credit

import (
	"errors"
	"fmt"
	"time"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckResult is the outcome of a credit check
type CheckResult string

const (
	CheckResultApproved CheckResult = "APPROVED"
	CheckResultWarning  CheckResult = "WARNING"
	CheckResultBlocked  CheckResult = "BLOCKED"
)

// String returns the string representation of CheckResult
func (r CheckResult) String() string {
	return string(r)
}

// IsValid returns true if the result is valid
func (r CheckResult) IsValid() bool {
	switch r {
	case CheckResultApproved, CheckResultWarning, CheckResultBlocked:
		return true
	}
	return false
}

// ParseCheckResult parses the canonical form of a check result
func ParseCheckResult(s string) (CheckResult, error) {
	r := CheckResult(s)
	if !r.IsValid() {
		return "", invalidEnum("check result", s)
	}
	return r, nil
}

// NoProfileReason is returned for customers without a credit profile
const NoProfileReason = "No credit profile"

// CheckRequest asks whether an order of OrderAmount may be accepted on credit
type CheckRequest struct {
	CustomerID  uuid.UUID
	OrderID     *uuid.UUID
	OrderAmount valueobject.Money
}

// CreditCheckResponse carries the decision and the figures it was based on
type CreditCheckResponse struct {
	Result             CheckResult
	CreditLimit        valueobject.Money
	CreditUsed         valueobject.Money
	AvailableCredit    valueobject.Money
	RequestedAmount    valueobject.Money
	ProjectedAvailable valueobject.Money
	HoldID             *uuid.UUID
	Reason             string
	Warnings           []string
	CheckedAt          time.Time
}

// Decision is the pure outcome of Decide. When PlaceAutoHold is set the caller
// places a CREDIT_LIMIT_EXCEEDED hold for AmountOverLimit in the same unit of work.
type Decision struct {
	CreditCheckResponse
	ProjectedUsed   valueobject.Money
	PlaceAutoHold   bool
	AmountOverLimit valueobject.Money
}

// ValidateCheckRequest rejects requests that no profile state could make valid
func ValidateCheckRequest(req CheckRequest) error {
	if req.CustomerID == uuid.Nil {
		return shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !req.OrderAmount.Currency().IsValid() {
		return shared.ErrInvalidCurrency
	}
	if req.OrderAmount.IsNegative() {
		return shared.NewDomainError(shared.ErrInvalidAmount.Code, "Order amount cannot be negative")
	}
	return nil
}

// NoProfileDecision approves a check for a customer without a profile.
// Absence of a profile means the customer is not credit-managed, so credit is unlimited.
func NoProfileDecision(req CheckRequest) *Decision {
	currency := req.OrderAmount.Currency()
	unlimited := valueobject.Unlimited(currency)
	projected, _ := unlimited.Subtract(req.OrderAmount)
	return &Decision{
		CreditCheckResponse: CreditCheckResponse{
			Result:             CheckResultApproved,
			CreditLimit:        valueobject.Zero(currency),
			CreditUsed:         valueobject.Zero(currency),
			AvailableCredit:    unlimited,
			RequestedAmount:    req.OrderAmount,
			ProjectedAvailable: projected,
			Reason:             NoProfileReason,
			Warnings:           []string{},
			CheckedAt:          shared.Now(),
		},
		ProjectedUsed:   req.OrderAmount,
		AmountOverLimit: valueobject.Zero(currency),
	}
}

// Decide evaluates a check against one snapshot of the profile and its active hold (nil if none).
// It never mutates the profile.
func Decide(profile *CreditProfile, activeHold *CreditHold, req CheckRequest) (*Decision, error) {
	if err := ValidateCheckRequest(req); err != nil {
		return nil, err
	}
	if err := profile.RequireAmount(req.OrderAmount); err != nil {
		return nil, err
	}

	// An order too large to add to the balance is beyond any limit; the
	// projections saturate so it is blocked like any other excess.
	projectedUsed, err := profile.CreditUsed.Add(req.OrderAmount)
	if errors.Is(err, valueobject.ErrAmountOverflow) {
		projectedUsed = valueobject.Unlimited(profile.Currency)
	} else if err != nil {
		return nil, err
	}
	projectedAvailable, err := profile.AvailableCredit.Subtract(req.OrderAmount)
	if errors.Is(err, valueobject.ErrAmountOverflow) {
		projectedAvailable = valueobject.Unlimited(profile.Currency).Negate()
	} else if err != nil {
		return nil, err
	}

	d := &Decision{
		CreditCheckResponse: CreditCheckResponse{
			Result:             CheckResultApproved,
			CreditLimit:        profile.CreditLimit,
			CreditUsed:         profile.CreditUsed,
			AvailableCredit:    profile.AvailableCredit,
			RequestedAmount:    req.OrderAmount,
			ProjectedAvailable: projectedAvailable,
			Warnings:           []string{},
			CheckedAt:          shared.Now(),
		},
		ProjectedUsed:   projectedUsed,
		AmountOverLimit: valueobject.Zero(profile.Currency),
	}

	// Nothing is consumed, so nothing can block.
	if req.OrderAmount.IsZero() {
		return d, nil
	}

	if activeHold != nil {
		holdID := activeHold.ID
		d.Result = CheckResultBlocked
		d.HoldID = &holdID
		d.Reason = "Customer on credit hold: " + activeHold.Reason
		return d, nil
	}

	switch {
	case projectedAvailable.IsNegative():
		d.Result = CheckResultBlocked
		d.AmountOverLimit = projectedAvailable.Negate()
		d.Reason = fmt.Sprintf("Order amount %s exceeds available credit %s", req.OrderAmount, profile.AvailableCredit)
	case projectedUsed.Decimal().GreaterThan(profile.UtilizationThreshold()):
		d.Result = CheckResultWarning
		d.Warnings = append(d.Warnings, fmt.Sprintf("Credit utilization would reach %s%% of limit",
			utilizationPercent(projectedUsed, profile.CreditLimit).StringFixed(1)))
	}

	if profile.OverdueAmount.IsPositive() {
		d.Warnings = append(d.Warnings, fmt.Sprintf("Customer has overdue invoices totaling %s", profile.OverdueAmount))
		quarterExceeded := profile.OverdueAmount.Decimal().Mul(decimal.NewFromInt(4)).GreaterThan(profile.CreditLimit.Decimal())
		if quarterExceeded && d.Result == CheckResultApproved {
			d.Result = CheckResultWarning
		}
	}

	d.PlaceAutoHold = d.Result == CheckResultBlocked && profile.AutoHoldEnabled
	return d, nil
}

func utilizationPercent(used, limit valueobject.Money) decimal.Decimal {
	if limit.IsZero() {
		return decimal.Zero
	}
	return used.Decimal().Mul(decimal.NewFromInt(100)).Div(limit.Decimal())
}
