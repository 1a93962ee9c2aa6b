package credit

import (
	"fmt"
	"time"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertType is the kind of a credit alert
type AlertType string

const (
	AlertTypeApproachingLimit   AlertType = "APPROACHING_LIMIT"
	AlertTypeLimitExceeded      AlertType = "LIMIT_EXCEEDED"
	AlertTypeOverdueDetected    AlertType = "OVERDUE_DETECTED"
	AlertTypeHoldPlaced         AlertType = "HOLD_PLACED"
	AlertTypeHoldReleased       AlertType = "HOLD_RELEASED"
	AlertTypeRiskLevelIncreased AlertType = "RISK_LEVEL_INCREASED"
)

// String returns the string representation of AlertType
func (t AlertType) String() string {
	return string(t)
}

// IsValid returns true if the alert type is valid
func (t AlertType) IsValid() bool {
	switch t {
	case AlertTypeApproachingLimit,
		AlertTypeLimitExceeded,
		AlertTypeOverdueDetected,
		AlertTypeHoldPlaced,
		AlertTypeHoldReleased,
		AlertTypeRiskLevelIncreased:
		return true
	}
	return false
}

// ParseAlertType parses the canonical form of an alert type
func ParseAlertType(s string) (AlertType, error) {
	t := AlertType(s)
	if !t.IsValid() {
		return "", invalidEnum("alert type", s)
	}
	return t, nil
}

// AlertSeverity is the severity of a credit alert
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "INFO"
	AlertSeverityWarning  AlertSeverity = "WARNING"
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

// String returns the string representation of AlertSeverity
func (s AlertSeverity) String() string {
	return string(s)
}

// IsValid returns true if the severity is valid
func (s AlertSeverity) IsValid() bool {
	switch s {
	case AlertSeverityInfo, AlertSeverityWarning, AlertSeverityCritical:
		return true
	}
	return false
}

// ParseAlertSeverity parses the canonical form of an alert severity
func ParseAlertSeverity(s string) (AlertSeverity, error) {
	severity := AlertSeverity(s)
	if !severity.IsValid() {
		return "", invalidEnum("alert severity", s)
	}
	return severity, nil
}

// CreditAlert is a persisted notice that a credit threshold was crossed.
// Alerts start unread and are acknowledged once; they are never deleted.
type CreditAlert struct {
	ID             uuid.UUID
	ProfileID      uuid.UUID
	CustomerID     uuid.UUID
	Type           AlertType
	Severity       AlertSeverity
	Message        string
	ThresholdValue decimal.Decimal
	ActualValue    decimal.Decimal
	IsRead         bool
	AcknowledgedBy *uuid.UUID
	AcknowledgedAt *time.Time
	CreatedAt      time.Time
}

func newAlert(p *CreditProfile, alertType AlertType, severity AlertSeverity, message string, threshold, actual decimal.Decimal) *CreditAlert {
	return &CreditAlert{
		ID:             uuid.New(),
		ProfileID:      p.ID,
		CustomerID:     p.CustomerID,
		Type:           alertType,
		Severity:       severity,
		Message:        message,
		ThresholdValue: threshold,
		ActualValue:    actual,
		CreatedAt:      shared.Now(),
	}
}

// Acknowledge marks the alert read. It returns false if it was already acknowledged.
func (a *CreditAlert) Acknowledge(actor uuid.UUID) bool {
	if a.IsRead {
		return false
	}
	now := shared.Now()
	a.IsRead = true
	a.AcknowledgedBy = &actor
	a.AcknowledgedAt = &now
	return true
}

// NewApproachingLimitAlert warns that available credit fell below percent% of the limit.
// Threshold and actual are minor-unit amounts of available credit.
func NewApproachingLimitAlert(p *CreditProfile, percent int) *CreditAlert {
	threshold := p.CreditLimit.Decimal().Mul(decimal.NewFromInt(int64(percent))).Div(decimal.NewFromInt(100))
	return newAlert(p, AlertTypeApproachingLimit, AlertSeverityWarning,
		fmt.Sprintf("Available credit %s is below %d%% of the %s credit limit", p.AvailableCredit, percent, p.CreditLimit),
		threshold, p.AvailableCredit.Decimal())
}

// NewLimitExceededAlert reports that used (actual or projected) exceeds the limit
func NewLimitExceededAlert(p *CreditProfile, used valueobject.Money) *CreditAlert {
	return newAlert(p, AlertTypeLimitExceeded, AlertSeverityCritical,
		fmt.Sprintf("Credit limit %s exceeded: %s used", p.CreditLimit, used),
		p.CreditLimit.Decimal(), used.Decimal())
}

// NewOverdueDetectedAlert reports an overdue balance that appeared or grew
func NewOverdueDetectedAlert(p *CreditProfile, previousOverdue valueobject.Money) *CreditAlert {
	return newAlert(p, AlertTypeOverdueDetected, AlertSeverityWarning,
		fmt.Sprintf("Overdue invoices total %s (was %s), average %d days overdue",
			p.OverdueAmount, previousOverdue, p.OverdueDaysAvg),
		previousOverdue.Decimal(), p.OverdueAmount.Decimal())
}

// NewHoldPlacedAlert announces a hold placed by a person
func NewHoldPlacedAlert(p *CreditProfile, hold *CreditHold) *CreditAlert {
	return newAlert(p, AlertTypeHoldPlaced, AlertSeverityWarning,
		fmt.Sprintf("Credit hold placed (%s): %s", hold.Type, hold.Reason),
		p.CreditLimit.Decimal(), p.CreditUsed.Decimal())
}

// NewHoldReleasedAlert announces a released hold
func NewHoldReleasedAlert(p *CreditProfile, hold *CreditHold) *CreditAlert {
	message := fmt.Sprintf("Credit hold released (%s)", hold.Type)
	if hold.OverrideReason != nil {
		message += ": " + *hold.OverrideReason
	}
	return newAlert(p, AlertTypeHoldReleased, AlertSeverityInfo, message,
		p.CreditLimit.Decimal(), p.CreditUsed.Decimal())
}

// NewRiskLevelIncreasedAlert reports a move to a higher risk bucket.
// Threshold is the hold threshold percent, actual the current utilization percent.
func NewRiskLevelIncreasedAlert(p *CreditProfile, from, to RiskLevel) *CreditAlert {
	severity := AlertSeverityWarning
	if to == RiskLevelCritical {
		severity = AlertSeverityCritical
	}
	return newAlert(p, AlertTypeRiskLevelIncreased, severity,
		fmt.Sprintf("Risk level increased from %s to %s (utilization %s%%)", from, to, p.UtilizationPercent().StringFixed(1)),
		decimal.NewFromInt(int64(p.HoldThresholdPercent)), p.UtilizationPercent().Round(2))
}
