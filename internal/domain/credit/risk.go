package credit

import (
	"fmt"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RiskLevel is the derived risk bucket of a credit profile
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// String returns the string representation of RiskLevel
func (r RiskLevel) String() string {
	return string(r)
}

// IsValid returns true if the risk level is valid
func (r RiskLevel) IsValid() bool {
	return r.rank() > 0
}

// Exceeds reports whether r is a strictly higher risk than other
func (r RiskLevel) Exceeds(other RiskLevel) bool {
	return r.rank() > other.rank()
}

// IsHighRisk reports whether the level is HIGH or CRITICAL
func (r RiskLevel) IsHighRisk() bool {
	return r == RiskLevelHigh || r == RiskLevelCritical
}

func (r RiskLevel) rank() int {
	switch r {
	case RiskLevelLow:
		return 1
	case RiskLevelMedium:
		return 2
	case RiskLevelHigh:
		return 3
	case RiskLevelCritical:
		return 4
	}
	return 0
}

// ParseRiskLevel parses the canonical form of a risk level
func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(s)
	if !r.IsValid() {
		return "", invalidEnum("risk level", s)
	}
	return r, nil
}

var (
	criticalUtilization = decimal.RequireFromString("0.95")
	highUtilization     = decimal.RequireFromString("0.80")
	mediumUtilization   = decimal.RequireFromString("0.60")
	criticalOverdue     = decimal.RequireFromString("0.50")
	highOverdue         = decimal.RequireFromString("0.30")
	mediumOverdue       = decimal.RequireFromString("0.10")
)

// RiskInputs are the profile figures the classifier reads, in minor units
type RiskInputs struct {
	CreditLimit         int64
	CreditUsed          int64
	OverdueAmount       int64
	OutstandingInvoices int64
}

// ClassifyRisk maps utilization u = used/limit and overdue ratio o = overdue/outstanding
// onto a risk level. A zero denominator yields a zero ratio.
func ClassifyRisk(in RiskInputs) RiskLevel {
	u := ratio(in.CreditUsed, in.CreditLimit)
	o := ratio(in.OverdueAmount, in.OutstandingInvoices)

	switch {
	case u.GreaterThan(criticalUtilization) || o.GreaterThan(criticalOverdue):
		return RiskLevelCritical
	case u.GreaterThan(highUtilization) || o.GreaterThan(highOverdue):
		return RiskLevelHigh
	case u.GreaterThan(mediumUtilization) || o.GreaterThan(mediumOverdue):
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

func ratio(num, den int64) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(num).Div(decimal.NewFromInt(den))
}

func invalidEnum(kind, value string) error {
	return shared.NewCategorizedError(shared.CategoryValidation, "INVALID_ENUM",
		fmt.Sprintf("unknown %s %q", kind, value))
}
