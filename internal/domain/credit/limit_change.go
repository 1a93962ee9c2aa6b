package credit

import (
	"strings"
	"time"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CreditLimitChange is the audit record of one credit limit update
type CreditLimitChange struct {
	ID            uuid.UUID
	ProfileID     uuid.UUID
	CustomerID    uuid.UUID
	PreviousLimit valueobject.Money
	NewLimit      valueobject.Money
	ChangeReason  string
	ApprovedBy    *uuid.UUID
	ApprovedAt    *time.Time
	EffectiveDate time.Time
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
}

// NewCreditLimitChange records a limit change made by createdBy.
// Changes take effect immediately, so the creator is also the approver.
func NewCreditLimitChange(
	profile *CreditProfile,
	previousLimit, newLimit valueobject.Money,
	reason string,
	createdBy uuid.UUID,
) (*CreditLimitChange, error) {
	if createdBy == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Limit change reason cannot be empty")
	}
	if err := profile.RequireAmount(previousLimit); err != nil {
		return nil, err
	}
	if err := profile.RequireAmount(newLimit); err != nil {
		return nil, err
	}

	now := shared.Now()
	approver := createdBy
	return &CreditLimitChange{
		ID:            uuid.New(),
		ProfileID:     profile.ID,
		CustomerID:    profile.CustomerID,
		PreviousLimit: previousLimit,
		NewLimit:      newLimit,
		ChangeReason:  reason,
		ApprovedBy:    &approver,
		ApprovedAt:    &now,
		EffectiveDate: now,
		CreatedBy:     createdBy,
		CreatedAt:     now,
	}, nil
}
