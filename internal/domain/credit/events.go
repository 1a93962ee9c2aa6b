package credit

import (
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Event type constants for credit profile events
const (
	EventTypeCreditHoldPlaced       = "CreditHoldPlaced"
	EventTypeCreditHoldReleased     = "CreditHoldReleased"
	EventTypeCreditLimitChanged     = "CreditLimitChanged"
	EventTypeCreditRiskLevelChanged = "CreditRiskLevelChanged"
)

// CreditHoldPlacedEvent is raised when a hold starts blocking a customer
type CreditHoldPlacedEvent struct {
	shared.BaseDomainEvent
	CustomerID      uuid.UUID         `json:"customer_id"`
	HoldID          uuid.UUID         `json:"hold_id"`
	HoldType        HoldType          `json:"hold_type"`
	Reason          string            `json:"reason"`
	AmountOverLimit valueobject.Money `json:"amount_over_limit"`
	PlacedBy        *uuid.UUID        `json:"placed_by,omitempty"`
}

// NewCreditHoldPlacedEvent creates a new CreditHoldPlacedEvent
func NewCreditHoldPlacedEvent(p *CreditProfile, hold *CreditHold) *CreditHoldPlacedEvent {
	return &CreditHoldPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditHoldPlaced, AggregateTypeCreditProfile, p.ID),
		CustomerID:      p.CustomerID,
		HoldID:          hold.ID,
		HoldType:        hold.Type,
		Reason:          hold.Reason,
		AmountOverLimit: hold.AmountOverLimit,
		PlacedBy:        hold.PlacedBy,
	}
}

// CreditHoldReleasedEvent is raised when a hold is released
type CreditHoldReleasedEvent struct {
	shared.BaseDomainEvent
	CustomerID     uuid.UUID  `json:"customer_id"`
	HoldID         uuid.UUID  `json:"hold_id"`
	HoldType       HoldType   `json:"hold_type"`
	OverrideReason string     `json:"override_reason,omitempty"`
	ReleasedBy     *uuid.UUID `json:"released_by,omitempty"`
}

// NewCreditHoldReleasedEvent creates a new CreditHoldReleasedEvent
func NewCreditHoldReleasedEvent(p *CreditProfile, hold *CreditHold) *CreditHoldReleasedEvent {
	e := &CreditHoldReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditHoldReleased, AggregateTypeCreditProfile, p.ID),
		CustomerID:      p.CustomerID,
		HoldID:          hold.ID,
		HoldType:        hold.Type,
		ReleasedBy:      hold.ReleasedBy,
	}
	if hold.OverrideReason != nil {
		e.OverrideReason = *hold.OverrideReason
	}
	return e
}

// CreditLimitChangedEvent is raised when a profile's credit limit changes
type CreditLimitChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID    uuid.UUID         `json:"customer_id"`
	PreviousLimit valueobject.Money `json:"previous_limit"`
	NewLimit      valueobject.Money `json:"new_limit"`
	Reason        string            `json:"reason"`
}

// NewCreditLimitChangedEvent creates a new CreditLimitChangedEvent
func NewCreditLimitChangedEvent(p *CreditProfile, previousLimit, newLimit valueobject.Money, reason string) *CreditLimitChangedEvent {
	return &CreditLimitChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditLimitChanged, AggregateTypeCreditProfile, p.ID),
		CustomerID:      p.CustomerID,
		PreviousLimit:   previousLimit,
		NewLimit:        newLimit,
		Reason:          reason,
	}
}

// CreditRiskLevelChangedEvent is raised whenever the derived risk level moves
type CreditRiskLevelChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	From       RiskLevel `json:"from"`
	To         RiskLevel `json:"to"`
}

// NewCreditRiskLevelChangedEvent creates a new CreditRiskLevelChangedEvent
func NewCreditRiskLevelChangedEvent(p *CreditProfile, from, to RiskLevel) *CreditRiskLevelChangedEvent {
	return &CreditRiskLevelChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditRiskLevelChanged, AggregateTypeCreditProfile, p.ID),
		CustomerID:      p.CustomerID,
		From:            from,
		To:              to,
	}
}

// IsIncrease reports whether the change moved to a higher risk level
func (e *CreditRiskLevelChangedEvent) IsIncrease() bool {
	return e.To.Exceeds(e.From)
}
