package credit

import (
	"time"

	"github.com/erp/credit/internal/domain/credit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amounts in requests and responses are integers in minor units of Currency.
// An empty request currency means the configured default currency.

// CheckCreditRequest asks whether an order may be accepted on credit
type CheckCreditRequest struct {
	CustomerID  uuid.UUID  `json:"customer_id" binding:"required"`
	OrderID     *uuid.UUID `json:"order_id"`
	OrderAmount int64      `json:"order_amount" binding:"min=0"`
	Currency    string     `json:"currency" binding:"omitempty,len=3"`
}

// CreateProfileRequest sets up a profile explicitly
type CreateProfileRequest struct {
	CustomerID   uuid.UUID `json:"customer_id" binding:"required"`
	InitialLimit int64     `json:"initial_limit" binding:"min=0"`
	Currency     string    `json:"currency" binding:"omitempty,len=3"`
}

// UpdateCreditLimitRequest changes a customer's credit limit
type UpdateCreditLimitRequest struct {
	NewLimit int64  `json:"new_limit" binding:"min=0"`
	Currency string `json:"currency" binding:"omitempty,len=3"`
	Reason   string `json:"reason" binding:"required,max=500"`
}

// InvoiceCreatedRequest reports an issued invoice
type InvoiceCreatedRequest struct {
	CustomerID    uuid.UUID `json:"customer_id" binding:"required"`
	InvoiceID     uuid.UUID `json:"invoice_id" binding:"required"`
	InvoiceNumber string    `json:"invoice_number" binding:"max=100"`
	Amount        int64     `json:"amount" binding:"min=0"`
	Currency      string    `json:"currency" binding:"omitempty,len=3"`
}

// PaymentReceivedRequest reports a received payment
type PaymentReceivedRequest struct {
	CustomerID    uuid.UUID  `json:"customer_id" binding:"required"`
	PaymentID     *uuid.UUID `json:"payment_id"`
	InvoiceID     *uuid.UUID `json:"invoice_id"`
	InvoiceNumber string     `json:"invoice_number" binding:"max=100"`
	Amount        int64      `json:"amount" binding:"min=0"`
	Currency      string     `json:"currency" binding:"omitempty,len=3"`
}

// OrderPlacedRequest reports a confirmed sales order
type OrderPlacedRequest struct {
	CustomerID  uuid.UUID `json:"customer_id" binding:"required"`
	OrderID     uuid.UUID `json:"order_id" binding:"required"`
	OrderNumber string    `json:"order_number" binding:"max=100"`
	Amount      int64     `json:"amount" binding:"min=0"`
	Currency    string    `json:"currency" binding:"omitempty,len=3"`
}

// InvoiceOverdueRequest carries recomputed overdue totals for a customer
type InvoiceOverdueRequest struct {
	CustomerID     uuid.UUID `json:"customer_id" binding:"required"`
	OverdueAmount  int64     `json:"overdue_amount" binding:"min=0"`
	OverdueDaysAvg int       `json:"overdue_days_avg" binding:"min=0"`
	Currency       string    `json:"currency" binding:"omitempty,len=3"`
}

// ReturnCreditedRequest reports a completed sales return credited to the customer
type ReturnCreditedRequest struct {
	CustomerID   uuid.UUID `json:"customer_id" binding:"required"`
	ReturnID     uuid.UUID `json:"return_id" binding:"required"`
	ReturnNumber string    `json:"return_number" binding:"max=100"`
	Amount       int64     `json:"amount" binding:"min=0"`
	Currency     string    `json:"currency" binding:"omitempty,len=3"`
}

// PlaceHoldRequest places a hold of HoldType; empty HoldType means MANUAL_HOLD
type PlaceHoldRequest struct {
	HoldType string `json:"hold_type" binding:"omitempty,oneof=MANUAL_HOLD OVERDUE_INVOICES RISK_REVIEW OTHER"`
	Reason   string `json:"reason" binding:"required,max=500"`
	Notes    string `json:"notes" binding:"max=2000"`
}

// ReleaseHoldRequest releases the active hold
type ReleaseHoldRequest struct {
	OverrideReason string `json:"override_reason" binding:"max=500"`
}

// HoldPolicyRequest sets the auto-hold switch and warning threshold
type HoldPolicyRequest struct {
	AutoHoldEnabled      *bool `json:"auto_hold_enabled" binding:"required"`
	HoldThresholdPercent int   `json:"hold_threshold_percent" binding:"min=0,max=100"`
}

// ProfileResponse represents a credit profile in API responses
type ProfileResponse struct {
	ID                   uuid.UUID       `json:"id"`
	CustomerID           uuid.UUID       `json:"customer_id"`
	Currency             string          `json:"currency"`
	CreditLimit          int64           `json:"credit_limit"`
	CreditUsed           int64           `json:"credit_used"`
	AvailableCredit      int64           `json:"available_credit"`
	OutstandingInvoices  int64           `json:"outstanding_invoices"`
	PendingOrders        int64           `json:"pending_orders"`
	OverdueAmount        int64           `json:"overdue_amount"`
	OverdueDaysAvg       int             `json:"overdue_days_avg"`
	CreditScore          *int            `json:"credit_score,omitempty"`
	RiskLevel            string          `json:"risk_level"`
	UtilizationPercent   decimal.Decimal `json:"utilization_percent"`
	AutoHoldEnabled      bool            `json:"auto_hold_enabled"`
	HoldThresholdPercent int             `json:"hold_threshold_percent"`
	Status               string          `json:"status"`
	LedgerSequence       int64           `json:"ledger_sequence"`
	Version              int             `json:"version"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ToProfileResponse converts a domain CreditProfile to ProfileResponse
func ToProfileResponse(p *credit.CreditProfile) ProfileResponse {
	return ProfileResponse{
		ID:                   p.ID,
		CustomerID:           p.CustomerID,
		Currency:             p.Currency.String(),
		CreditLimit:          p.CreditLimit.Amount(),
		CreditUsed:           p.CreditUsed.Amount(),
		AvailableCredit:      p.AvailableCredit.Amount(),
		OutstandingInvoices:  p.OutstandingInvoices.Amount(),
		PendingOrders:        p.PendingOrders.Amount(),
		OverdueAmount:        p.OverdueAmount.Amount(),
		OverdueDaysAvg:       p.OverdueDaysAvg,
		CreditScore:          p.CreditScore,
		RiskLevel:            p.RiskLevel.String(),
		UtilizationPercent:   p.UtilizationPercent().Round(2),
		AutoHoldEnabled:      p.AutoHoldEnabled,
		HoldThresholdPercent: p.HoldThresholdPercent,
		Status:               p.Status.String(),
		LedgerSequence:       p.LedgerSequence,
		Version:              p.Version,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

// ToProfileResponses converts a slice of profiles
func ToProfileResponses(profiles []*credit.CreditProfile) []ProfileResponse {
	responses := make([]ProfileResponse, len(profiles))
	for i, p := range profiles {
		responses[i] = ToProfileResponse(p)
	}
	return responses
}

// CreditCheckResponse is the outcome of a credit check
type CreditCheckResponse struct {
	Result             string     `json:"result"`
	Currency           string     `json:"currency"`
	CreditLimit        int64      `json:"credit_limit"`
	CreditUsed         int64      `json:"credit_used"`
	AvailableCredit    int64      `json:"available_credit"`
	RequestedAmount    int64      `json:"requested_amount"`
	ProjectedAvailable int64      `json:"projected_available"`
	HoldID             *uuid.UUID `json:"hold_id,omitempty"`
	Reason             string     `json:"reason,omitempty"`
	Warnings           []string   `json:"warnings"`
	CheckedAt          time.Time  `json:"checked_at"`
}

// ToCreditCheckResponse converts a domain check response
func ToCreditCheckResponse(r credit.CreditCheckResponse) CreditCheckResponse {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return CreditCheckResponse{
		Result:             r.Result.String(),
		Currency:           r.RequestedAmount.Currency().String(),
		CreditLimit:        r.CreditLimit.Amount(),
		CreditUsed:         r.CreditUsed.Amount(),
		AvailableCredit:    r.AvailableCredit.Amount(),
		RequestedAmount:    r.RequestedAmount.Amount(),
		ProjectedAvailable: r.ProjectedAvailable.Amount(),
		HoldID:             r.HoldID,
		Reason:             r.Reason,
		Warnings:           warnings,
		CheckedAt:          r.CheckedAt,
	}
}

// TransactionResponse represents a ledger entry
type TransactionResponse struct {
	ID                 uuid.UUID  `json:"id"`
	CustomerID         uuid.UUID  `json:"customer_id"`
	Sequence           int64      `json:"sequence"`
	Kind               string     `json:"kind"`
	Currency           string     `json:"currency"`
	Amount             int64      `json:"amount"`
	PreviousCreditUsed int64      `json:"previous_credit_used"`
	NewCreditUsed      int64      `json:"new_credit_used"`
	ReferenceType      *string    `json:"reference_type,omitempty"`
	ReferenceID        *uuid.UUID `json:"reference_id,omitempty"`
	ReferenceNumber    *string    `json:"reference_number,omitempty"`
	Description        string     `json:"description,omitempty"`
	ActorID            *uuid.UUID `json:"actor_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ToTransactionResponse converts a ledger entry
func ToTransactionResponse(t *credit.CreditTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                 t.ID,
		CustomerID:         t.CustomerID,
		Sequence:           t.Sequence,
		Kind:               t.Kind.String(),
		Currency:           t.Amount.Currency().String(),
		Amount:             t.Amount.Amount(),
		PreviousCreditUsed: t.PreviousCreditUsed.Amount(),
		NewCreditUsed:      t.NewCreditUsed.Amount(),
		ReferenceID:        t.ReferenceID,
		ReferenceNumber:    t.ReferenceNumber,
		Description:        t.Description,
		ActorID:            t.ActorID,
		CreatedAt:          t.CreatedAt,
	}
	if t.ReferenceType != nil {
		refType := t.ReferenceType.String()
		resp.ReferenceType = &refType
	}
	return resp
}

// ToTransactionResponses converts a slice of ledger entries
func ToTransactionResponses(entries []*credit.CreditTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(entries))
	for i, e := range entries {
		responses[i] = ToTransactionResponse(e)
	}
	return responses
}

// HoldResponse represents a credit hold
type HoldResponse struct {
	ID               uuid.UUID  `json:"id"`
	CustomerID       uuid.UUID  `json:"customer_id"`
	HoldType         string     `json:"hold_type"`
	Reason           string     `json:"reason"`
	Currency         string     `json:"currency"`
	AmountOverLimit  int64      `json:"amount_over_limit"`
	RelatedOrderID   *uuid.UUID `json:"related_order_id,omitempty"`
	RelatedInvoiceID *uuid.UUID `json:"related_invoice_id,omitempty"`
	Status           string     `json:"status"`
	PlacedBy         *uuid.UUID `json:"placed_by,omitempty"`
	PlacedAt         time.Time  `json:"placed_at"`
	ReleasedBy       *uuid.UUID `json:"released_by,omitempty"`
	ReleasedAt       *time.Time `json:"released_at,omitempty"`
	OverrideReason   *string    `json:"override_reason,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// ToHoldResponse converts a credit hold
func ToHoldResponse(h *credit.CreditHold) HoldResponse {
	return HoldResponse{
		ID:               h.ID,
		CustomerID:       h.CustomerID,
		HoldType:         h.Type.String(),
		Reason:           h.Reason,
		Currency:         h.AmountOverLimit.Currency().String(),
		AmountOverLimit:  h.AmountOverLimit.Amount(),
		RelatedOrderID:   h.RelatedOrderID,
		RelatedInvoiceID: h.RelatedInvoiceID,
		Status:           h.Status.String(),
		PlacedBy:         h.PlacedBy,
		PlacedAt:         h.PlacedAt,
		ReleasedBy:       h.ReleasedBy,
		ReleasedAt:       h.ReleasedAt,
		OverrideReason:   h.OverrideReason,
		Notes:            h.Notes,
	}
}

// ToHoldResponses converts a slice of holds
func ToHoldResponses(holds []*credit.CreditHold) []HoldResponse {
	responses := make([]HoldResponse, len(holds))
	for i, h := range holds {
		responses[i] = ToHoldResponse(h)
	}
	return responses
}

// LimitChangeResponse represents a credit limit audit record
type LimitChangeResponse struct {
	ID            uuid.UUID  `json:"id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	Currency      string     `json:"currency"`
	PreviousLimit int64      `json:"previous_limit"`
	NewLimit      int64      `json:"new_limit"`
	ChangeReason  string     `json:"change_reason"`
	ApprovedBy    *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	EffectiveDate time.Time  `json:"effective_date"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToLimitChangeResponses converts a slice of limit changes
func ToLimitChangeResponses(changes []*credit.CreditLimitChange) []LimitChangeResponse {
	responses := make([]LimitChangeResponse, len(changes))
	for i, c := range changes {
		responses[i] = LimitChangeResponse{
			ID:            c.ID,
			CustomerID:    c.CustomerID,
			Currency:      c.NewLimit.Currency().String(),
			PreviousLimit: c.PreviousLimit.Amount(),
			NewLimit:      c.NewLimit.Amount(),
			ChangeReason:  c.ChangeReason,
			ApprovedBy:    c.ApprovedBy,
			ApprovedAt:    c.ApprovedAt,
			EffectiveDate: c.EffectiveDate,
			CreatedBy:     c.CreatedBy,
			CreatedAt:     c.CreatedAt,
		}
	}
	return responses
}

// AlertResponse represents a credit alert
type AlertResponse struct {
	ID             uuid.UUID       `json:"id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	AlertType      string          `json:"alert_type"`
	Severity       string          `json:"severity"`
	Message        string          `json:"message"`
	ThresholdValue decimal.Decimal `json:"threshold_value"`
	ActualValue    decimal.Decimal `json:"actual_value"`
	IsRead         bool            `json:"is_read"`
	AcknowledgedBy *uuid.UUID      `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time      `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToAlertResponse converts a credit alert
func ToAlertResponse(a *credit.CreditAlert) AlertResponse {
	return AlertResponse{
		ID:             a.ID,
		CustomerID:     a.CustomerID,
		AlertType:      a.Type.String(),
		Severity:       a.Severity.String(),
		Message:        a.Message,
		ThresholdValue: a.ThresholdValue,
		ActualValue:    a.ActualValue,
		IsRead:         a.IsRead,
		AcknowledgedBy: a.AcknowledgedBy,
		AcknowledgedAt: a.AcknowledgedAt,
		CreatedAt:      a.CreatedAt,
	}
}

// ToAlertResponses converts a slice of alerts
func ToAlertResponses(alerts []*credit.CreditAlert) []AlertResponse {
	responses := make([]AlertResponse, len(alerts))
	for i, a := range alerts {
		responses[i] = ToAlertResponse(a)
	}
	return responses
}

// SummaryResponse aggregates the credit portfolio
type SummaryResponse struct {
	Currency              string          `json:"currency"`
	TotalCustomers        int64           `json:"total_customers"`
	TotalCreditLimit      int64           `json:"total_credit_limit"`
	TotalCreditUsed       int64           `json:"total_credit_used"`
	TotalAvailableCredit  int64           `json:"total_available_credit"`
	TotalOverdue          int64           `json:"total_overdue"`
	CustomersOnHold       int64           `json:"customers_on_hold"`
	HighRiskCustomers     int64           `json:"high_risk_customers"`
	AvgUtilizationPercent decimal.Decimal `json:"avg_utilization_percent"`
}

// ToSummaryResponse converts a portfolio summary
func ToSummaryResponse(s *credit.CreditSummary) SummaryResponse {
	return SummaryResponse{
		Currency:              s.Currency.String(),
		TotalCustomers:        s.TotalCustomers,
		TotalCreditLimit:      s.TotalCreditLimit.Amount(),
		TotalCreditUsed:       s.TotalCreditUsed.Amount(),
		TotalAvailableCredit:  s.TotalAvailableCredit.Amount(),
		TotalOverdue:          s.TotalOverdue.Amount(),
		CustomersOnHold:       s.CustomersOnHold,
		HighRiskCustomers:     s.HighRiskCustomers,
		AvgUtilizationPercent: s.AvgUtilizationPercent,
	}
}

// LedgerVerificationResponse reports whether a customer's ledger matches the profile
type LedgerVerificationResponse struct {
	CustomerID        uuid.UUID `json:"customer_id"`
	Consistent        bool      `json:"consistent"`
	Balanced          bool      `json:"balanced"`
	Continuous        bool      `json:"continuous"`
	Entries           int       `json:"entries"`
	StoredCreditUsed  int64     `json:"stored_credit_used"`
	ReconstructedUsed int64     `json:"reconstructed_credit_used"`
	LastSequence      int64     `json:"last_sequence"`
	ProfileSequence   int64     `json:"profile_sequence"`
	FirstViolation    string    `json:"first_violation,omitempty"`
}

// ToLedgerVerificationResponse converts a ledger replay report
func ToLedgerVerificationResponse(r credit.LedgerReport) LedgerVerificationResponse {
	return LedgerVerificationResponse{
		CustomerID:        r.CustomerID,
		Consistent:        r.Consistent(),
		Balanced:          r.Balanced,
		Continuous:        r.Continuous,
		Entries:           r.Entries,
		StoredCreditUsed:  r.StoredCreditUsed.Amount(),
		ReconstructedUsed: r.ReconstructedUsed.Amount(),
		LastSequence:      r.LastSequence,
		ProfileSequence:   r.ProfileSequence,
		FirstViolation:    r.FirstViolation,
	}
}
