package models

import (
	"fmt"
	"time"

	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditProfileModel is the persistence model for the CreditProfile aggregate.
// Amounts are minor units in the profile currency.
type CreditProfileModel struct {
	AggregateModel
	CustomerID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_credit_profiles_customer"`
	Currency             string    `gorm:"type:varchar(3);not null"`
	CreditLimit          int64     `gorm:"type:bigint;not null"`
	CreditUsed           int64     `gorm:"type:bigint;not null"`
	AvailableCredit      int64     `gorm:"type:bigint;not null"`
	OutstandingInvoices  int64     `gorm:"type:bigint;not null"`
	PendingOrders        int64     `gorm:"type:bigint;not null"`
	OverdueAmount        int64     `gorm:"type:bigint;not null"`
	OverdueDaysAvg       int       `gorm:"not null"`
	CreditScore          *int
	RiskLevel            string `gorm:"type:varchar(20);not null;index:idx_credit_profiles_risk"`
	AutoHoldEnabled      bool   `gorm:"not null"`
	HoldThresholdPercent int    `gorm:"not null"`
	Status               string `gorm:"type:varchar(20);not null"`
	LedgerSequence       int64  `gorm:"type:bigint;not null"`
}

// TableName returns the table name for GORM
func (CreditProfileModel) TableName() string {
	return "credit_profiles"
}

// ToDomain converts the persistence model to a domain CreditProfile.
// Unknown enum values and currencies are rejected.
func (m *CreditProfileModel) ToDomain() (*credit.CreditProfile, error) {
	currency, err := valueobject.ParseCurrency(m.Currency)
	if err != nil {
		return nil, corruptRow("credit_profiles", m.ID, err)
	}
	riskLevel, err := credit.ParseRiskLevel(m.RiskLevel)
	if err != nil {
		return nil, corruptRow("credit_profiles", m.ID, err)
	}
	status, err := credit.ParseProfileStatus(m.Status)
	if err != nil {
		return nil, corruptRow("credit_profiles", m.ID, err)
	}

	p := &credit.CreditProfile{
		CustomerID:           m.CustomerID,
		Currency:             currency,
		CreditLimit:          valueobject.MustNewMoney(m.CreditLimit, currency),
		CreditUsed:           valueobject.MustNewMoney(m.CreditUsed, currency),
		AvailableCredit:      valueobject.MustNewMoney(m.AvailableCredit, currency),
		OutstandingInvoices:  valueobject.MustNewMoney(m.OutstandingInvoices, currency),
		PendingOrders:        valueobject.MustNewMoney(m.PendingOrders, currency),
		OverdueAmount:        valueobject.MustNewMoney(m.OverdueAmount, currency),
		OverdueDaysAvg:       m.OverdueDaysAvg,
		CreditScore:          m.CreditScore,
		RiskLevel:            riskLevel,
		AutoHoldEnabled:      m.AutoHoldEnabled,
		HoldThresholdPercent: m.HoldThresholdPercent,
		Status:               status,
		LedgerSequence:       m.LedgerSequence,
	}
	p.BaseAggregateRoot = m.Aggregate()
	return p, nil
}

// FromDomain populates the persistence model from a domain CreditProfile
func (m *CreditProfileModel) FromDomain(p *credit.CreditProfile) {
	m.SetAggregate(p.BaseAggregateRoot)
	m.CustomerID = p.CustomerID
	m.Currency = p.Currency.String()
	m.CreditLimit = p.CreditLimit.Amount()
	m.CreditUsed = p.CreditUsed.Amount()
	m.AvailableCredit = p.AvailableCredit.Amount()
	m.OutstandingInvoices = p.OutstandingInvoices.Amount()
	m.PendingOrders = p.PendingOrders.Amount()
	m.OverdueAmount = p.OverdueAmount.Amount()
	m.OverdueDaysAvg = p.OverdueDaysAvg
	m.CreditScore = p.CreditScore
	m.RiskLevel = p.RiskLevel.String()
	m.AutoHoldEnabled = p.AutoHoldEnabled
	m.HoldThresholdPercent = p.HoldThresholdPercent
	m.Status = p.Status.String()
	m.LedgerSequence = p.LedgerSequence
}

// CreditProfileModelFromDomain creates a new persistence model from a domain CreditProfile
func CreditProfileModelFromDomain(p *credit.CreditProfile) *CreditProfileModel {
	m := &CreditProfileModel{}
	m.FromDomain(p)
	return m
}

// CreditTransactionModel is the persistence model for one ledger entry.
// Rows are inserted once and never updated.
type CreditTransactionModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key"`
	ProfileID          uuid.UUID  `gorm:"type:uuid;not null"`
	CustomerID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_credit_tx_customer_seq,priority:1;index:idx_credit_tx_customer_time,priority:1"`
	Sequence           int64      `gorm:"type:bigint;not null;uniqueIndex:idx_credit_tx_customer_seq,priority:2"`
	Kind               string     `gorm:"type:varchar(30);not null"`
	Currency           string     `gorm:"type:varchar(3);not null"`
	Amount             int64      `gorm:"type:bigint;not null"`
	PreviousCreditUsed int64      `gorm:"type:bigint;not null"`
	NewCreditUsed      int64      `gorm:"type:bigint;not null"`
	ReferenceType      *string    `gorm:"type:varchar(30)"`
	ReferenceID        *uuid.UUID `gorm:"type:uuid"`
	ReferenceNumber    *string    `gorm:"type:varchar(100)"`
	Description        string     `gorm:"type:varchar(500)"`
	ActorID            *uuid.UUID `gorm:"type:uuid"`
	CreatedAt          time.Time  `gorm:"not null;index:idx_credit_tx_customer_time,priority:2"`
}

// TableName returns the table name for GORM
func (CreditTransactionModel) TableName() string {
	return "credit_transactions"
}

// ToDomain converts the persistence model to a domain CreditTransaction
func (m *CreditTransactionModel) ToDomain() (*credit.CreditTransaction, error) {
	currency, err := valueobject.ParseCurrency(m.Currency)
	if err != nil {
		return nil, corruptRow("credit_transactions", m.ID, err)
	}
	kind, err := credit.ParseTransactionKind(m.Kind)
	if err != nil {
		return nil, corruptRow("credit_transactions", m.ID, err)
	}

	t := &credit.CreditTransaction{
		ID:                 m.ID,
		ProfileID:          m.ProfileID,
		CustomerID:         m.CustomerID,
		Sequence:           m.Sequence,
		Kind:               kind,
		Amount:             valueobject.MustNewMoney(m.Amount, currency),
		PreviousCreditUsed: valueobject.MustNewMoney(m.PreviousCreditUsed, currency),
		NewCreditUsed:      valueobject.MustNewMoney(m.NewCreditUsed, currency),
		ReferenceID:        m.ReferenceID,
		ReferenceNumber:    m.ReferenceNumber,
		Description:        m.Description,
		ActorID:            m.ActorID,
		CreatedAt:          m.CreatedAt,
	}
	if m.ReferenceType != nil {
		refType, err := credit.ParseReferenceType(*m.ReferenceType)
		if err != nil {
			return nil, corruptRow("credit_transactions", m.ID, err)
		}
		t.ReferenceType = &refType
	}
	return t, nil
}

// FromDomain populates the persistence model from a domain CreditTransaction
func (m *CreditTransactionModel) FromDomain(t *credit.CreditTransaction) {
	m.ID = t.ID
	m.ProfileID = t.ProfileID
	m.CustomerID = t.CustomerID
	m.Sequence = t.Sequence
	m.Kind = t.Kind.String()
	m.Currency = t.Amount.Currency().String()
	m.Amount = t.Amount.Amount()
	m.PreviousCreditUsed = t.PreviousCreditUsed.Amount()
	m.NewCreditUsed = t.NewCreditUsed.Amount()
	m.ReferenceType = nil
	if t.ReferenceType != nil {
		refType := t.ReferenceType.String()
		m.ReferenceType = &refType
	}
	m.ReferenceID = t.ReferenceID
	m.ReferenceNumber = t.ReferenceNumber
	m.Description = t.Description
	m.ActorID = t.ActorID
	m.CreatedAt = t.CreatedAt
}

// CreditTransactionModelFromDomain creates a new persistence model from a domain CreditTransaction
func CreditTransactionModelFromDomain(t *credit.CreditTransaction) *CreditTransactionModel {
	m := &CreditTransactionModel{}
	m.FromDomain(t)
	return m
}

// CreditHoldModel is the persistence model for the CreditHold entity.
// At most one ACTIVE hold per customer is enforced by ActiveHoldIndexSQL.
type CreditHoldModel struct {
	BaseModel
	ProfileID        uuid.UUID  `gorm:"type:uuid;not null"`
	CustomerID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_credit_holds_customer_status,priority:1"`
	HoldType         string     `gorm:"type:varchar(30);not null"`
	Reason           string     `gorm:"type:varchar(500);not null"`
	Currency         string     `gorm:"type:varchar(3);not null"`
	AmountOverLimit  int64      `gorm:"type:bigint;not null"`
	RelatedOrderID   *uuid.UUID `gorm:"type:uuid"`
	RelatedInvoiceID *uuid.UUID `gorm:"type:uuid"`
	Status           string     `gorm:"type:varchar(20);not null;index:idx_credit_holds_customer_status,priority:2"`
	PlacedBy         *uuid.UUID `gorm:"type:uuid"`
	PlacedAt         time.Time  `gorm:"not null"`
	ReleasedBy       *uuid.UUID `gorm:"type:uuid"`
	ReleasedAt       *time.Time
	OverrideReason   *string `gorm:"type:varchar(500)"`
	Notes            *string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CreditHoldModel) TableName() string {
	return "credit_holds"
}

// ToDomain converts the persistence model to a domain CreditHold
func (m *CreditHoldModel) ToDomain() (*credit.CreditHold, error) {
	currency, err := valueobject.ParseCurrency(m.Currency)
	if err != nil {
		return nil, corruptRow("credit_holds", m.ID, err)
	}
	holdType, err := credit.ParseHoldType(m.HoldType)
	if err != nil {
		return nil, corruptRow("credit_holds", m.ID, err)
	}
	status, err := credit.ParseHoldStatus(m.Status)
	if err != nil {
		return nil, corruptRow("credit_holds", m.ID, err)
	}

	return &credit.CreditHold{
		BaseEntity:       m.Entity(),
		ProfileID:        m.ProfileID,
		CustomerID:       m.CustomerID,
		Type:             holdType,
		Reason:           m.Reason,
		AmountOverLimit:  valueobject.MustNewMoney(m.AmountOverLimit, currency),
		RelatedOrderID:   m.RelatedOrderID,
		RelatedInvoiceID: m.RelatedInvoiceID,
		Status:           status,
		PlacedBy:         m.PlacedBy,
		PlacedAt:         m.PlacedAt,
		ReleasedBy:       m.ReleasedBy,
		ReleasedAt:       m.ReleasedAt,
		OverrideReason:   m.OverrideReason,
		Notes:            m.Notes,
	}, nil
}

// FromDomain populates the persistence model from a domain CreditHold
func (m *CreditHoldModel) FromDomain(h *credit.CreditHold) {
	m.SetEntity(h.BaseEntity)
	m.ProfileID = h.ProfileID
	m.CustomerID = h.CustomerID
	m.HoldType = h.Type.String()
	m.Reason = h.Reason
	m.Currency = h.AmountOverLimit.Currency().String()
	m.AmountOverLimit = h.AmountOverLimit.Amount()
	m.RelatedOrderID = h.RelatedOrderID
	m.RelatedInvoiceID = h.RelatedInvoiceID
	m.Status = h.Status.String()
	m.PlacedBy = h.PlacedBy
	m.PlacedAt = h.PlacedAt
	m.ReleasedBy = h.ReleasedBy
	m.ReleasedAt = h.ReleasedAt
	m.OverrideReason = h.OverrideReason
	m.Notes = h.Notes
}

// CreditHoldModelFromDomain creates a new persistence model from a domain CreditHold
func CreditHoldModelFromDomain(h *credit.CreditHold) *CreditHoldModel {
	m := &CreditHoldModel{}
	m.FromDomain(h)
	return m
}

// CreditLimitChangeModel is the persistence model for the limit change audit trail
type CreditLimitChangeModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	ProfileID     uuid.UUID  `gorm:"type:uuid;not null"`
	CustomerID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_credit_limit_changes_customer"`
	Currency      string     `gorm:"type:varchar(3);not null"`
	PreviousLimit int64      `gorm:"type:bigint;not null"`
	NewLimit      int64      `gorm:"type:bigint;not null"`
	ChangeReason  string     `gorm:"type:varchar(500);not null"`
	ApprovedBy    *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt    *time.Time
	EffectiveDate time.Time `gorm:"not null"`
	CreatedBy     uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CreditLimitChangeModel) TableName() string {
	return "credit_limit_changes"
}

// ToDomain converts the persistence model to a domain CreditLimitChange
func (m *CreditLimitChangeModel) ToDomain() (*credit.CreditLimitChange, error) {
	currency, err := valueobject.ParseCurrency(m.Currency)
	if err != nil {
		return nil, corruptRow("credit_limit_changes", m.ID, err)
	}
	return &credit.CreditLimitChange{
		ID:            m.ID,
		ProfileID:     m.ProfileID,
		CustomerID:    m.CustomerID,
		PreviousLimit: valueobject.MustNewMoney(m.PreviousLimit, currency),
		NewLimit:      valueobject.MustNewMoney(m.NewLimit, currency),
		ChangeReason:  m.ChangeReason,
		ApprovedBy:    m.ApprovedBy,
		ApprovedAt:    m.ApprovedAt,
		EffectiveDate: m.EffectiveDate,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain CreditLimitChange
func (m *CreditLimitChangeModel) FromDomain(c *credit.CreditLimitChange) {
	m.ID = c.ID
	m.ProfileID = c.ProfileID
	m.CustomerID = c.CustomerID
	m.Currency = c.NewLimit.Currency().String()
	m.PreviousLimit = c.PreviousLimit.Amount()
	m.NewLimit = c.NewLimit.Amount()
	m.ChangeReason = c.ChangeReason
	m.ApprovedBy = c.ApprovedBy
	m.ApprovedAt = c.ApprovedAt
	m.EffectiveDate = c.EffectiveDate
	m.CreatedBy = c.CreatedBy
	m.CreatedAt = c.CreatedAt
}

// CreditLimitChangeModelFromDomain creates a new persistence model from a domain CreditLimitChange
func CreditLimitChangeModelFromDomain(c *credit.CreditLimitChange) *CreditLimitChangeModel {
	m := &CreditLimitChangeModel{}
	m.FromDomain(c)
	return m
}

// CreditAlertModel is the persistence model for the CreditAlert entity
type CreditAlertModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	ProfileID      uuid.UUID       `gorm:"type:uuid;not null"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_credit_alerts_customer_read,priority:1"`
	AlertType      string          `gorm:"type:varchar(30);not null"`
	Severity       string          `gorm:"type:varchar(20);not null"`
	Message        string          `gorm:"type:varchar(500);not null"`
	ThresholdValue decimal.Decimal `gorm:"type:decimal(24,4);not null"`
	ActualValue    decimal.Decimal `gorm:"type:decimal(24,4);not null"`
	IsRead         bool            `gorm:"not null;index:idx_credit_alerts_customer_read,priority:2"`
	AcknowledgedBy *uuid.UUID      `gorm:"type:uuid"`
	AcknowledgedAt *time.Time
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CreditAlertModel) TableName() string {
	return "credit_alerts"
}

// ToDomain converts the persistence model to a domain CreditAlert
func (m *CreditAlertModel) ToDomain() (*credit.CreditAlert, error) {
	alertType, err := credit.ParseAlertType(m.AlertType)
	if err != nil {
		return nil, corruptRow("credit_alerts", m.ID, err)
	}
	severity, err := credit.ParseAlertSeverity(m.Severity)
	if err != nil {
		return nil, corruptRow("credit_alerts", m.ID, err)
	}
	return &credit.CreditAlert{
		ID:             m.ID,
		ProfileID:      m.ProfileID,
		CustomerID:     m.CustomerID,
		Type:           alertType,
		Severity:       severity,
		Message:        m.Message,
		ThresholdValue: m.ThresholdValue,
		ActualValue:    m.ActualValue,
		IsRead:         m.IsRead,
		AcknowledgedBy: m.AcknowledgedBy,
		AcknowledgedAt: m.AcknowledgedAt,
		CreatedAt:      m.CreatedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain CreditAlert
func (m *CreditAlertModel) FromDomain(a *credit.CreditAlert) {
	m.ID = a.ID
	m.ProfileID = a.ProfileID
	m.CustomerID = a.CustomerID
	m.AlertType = a.Type.String()
	m.Severity = a.Severity.String()
	m.Message = a.Message
	m.ThresholdValue = a.ThresholdValue
	m.ActualValue = a.ActualValue
	m.IsRead = a.IsRead
	m.AcknowledgedBy = a.AcknowledgedBy
	m.AcknowledgedAt = a.AcknowledgedAt
	m.CreatedAt = a.CreatedAt
}

// CreditAlertModelFromDomain creates a new persistence model from a domain CreditAlert
func CreditAlertModelFromDomain(a *credit.CreditAlert) *CreditAlertModel {
	m := &CreditAlertModel{}
	m.FromDomain(a)
	return m
}

// ActiveHoldIndexSQL creates the partial unique index over active holds.
// Both PostgreSQL and SQLite accept it.
const ActiveHoldIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_credit_holds_active_customer
	ON credit_holds (customer_id) WHERE status = 'ACTIVE'`

// CreditModels lists every credit model, in dependency order, for AutoMigrate
func CreditModels() []any {
	return []any{
		&CreditProfileModel{},
		&CreditTransactionModel{},
		&CreditHoldModel{},
		&CreditLimitChangeModel{},
		&CreditAlertModel{},
	}
}

func corruptRow(table string, id uuid.UUID, cause error) error {
	return shared.NewInternalError(fmt.Sprintf("%s row %s cannot be loaded: %v", table, id, cause))
}
