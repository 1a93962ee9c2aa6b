package credit

import (
	"context"
	"fmt"

	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Intake is the part of CreditService the integration event handlers drive
type Intake interface {
	OnInvoiceCreated(ctx context.Context, req InvoiceCreatedRequest, actor *uuid.UUID) (*ProfileResponse, error)
	OnPaymentReceived(ctx context.Context, req PaymentReceivedRequest, actor *uuid.UUID) (*ProfileResponse, error)
	OnOrderPlaced(ctx context.Context, req OrderPlacedRequest, actor *uuid.UUID) error
	OnReturnCredited(ctx context.Context, req ReturnCreditedRequest, actor *uuid.UUID) (*ProfileResponse, error)
	OnInvoiceOverdue(ctx context.Context, req InvoiceOverdueRequest, actor *uuid.UUID) (*ProfileResponse, error)
}

var _ Intake = (*CreditService)(nil)

func unexpectedEvent(logger *zap.Logger, expected string, event shared.DomainEvent) error {
	logger.Error("unexpected event type",
		zap.String("expected", expected),
		zap.String("actual", event.EventType()),
	)
	return fmt.Errorf("unexpected event type: expected %s, got %s", expected, event.EventType())
}

// InvoiceCreatedHandler consumes credit when an invoice is issued
type InvoiceCreatedHandler struct {
	intake Intake
	logger *zap.Logger
}

// NewInvoiceCreatedHandler creates a new handler for invoice created events
func NewInvoiceCreatedHandler(intake Intake, logger *zap.Logger) *InvoiceCreatedHandler {
	return &InvoiceCreatedHandler{intake: intake, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceCreatedHandler) EventTypes() []string {
	return []string{credit.EventTypeInvoiceCreated}
}

// Handle applies an InvoiceCreatedEvent
func (h *InvoiceCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*credit.InvoiceCreatedEvent)
	if !ok {
		return unexpectedEvent(h.logger, credit.EventTypeInvoiceCreated, event)
	}

	profile, err := h.intake.OnInvoiceCreated(ctx, InvoiceCreatedRequest{
		CustomerID:    e.CustomerID,
		InvoiceID:     e.InvoiceID,
		InvoiceNumber: e.InvoiceNumber,
		Amount:        e.Amount.Amount(),
		Currency:      e.Amount.Currency().String(),
	}, e.ActorID)
	if err != nil {
		h.logger.Error("failed to apply invoice to credit profile",
			zap.String("invoice_id", e.InvoiceID.String()),
			zap.String("customer_id", e.CustomerID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("apply invoice %s: %w", e.InvoiceNumber, err)
	}

	h.logger.Info("invoice applied to credit profile",
		zap.String("invoice_id", e.InvoiceID.String()),
		zap.String("customer_id", e.CustomerID.String()),
		zap.Int64("credit_used", profile.CreditUsed),
	)
	return nil
}

// PaymentReceivedHandler releases credit when a payment is applied
type PaymentReceivedHandler struct {
	intake Intake
	logger *zap.Logger
}

// NewPaymentReceivedHandler creates a new handler for payment received events
func NewPaymentReceivedHandler(intake Intake, logger *zap.Logger) *PaymentReceivedHandler {
	return &PaymentReceivedHandler{intake: intake, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentReceivedHandler) EventTypes() []string {
	return []string{credit.EventTypePaymentReceived}
}

// Handle applies a PaymentReceivedEvent
func (h *PaymentReceivedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*credit.PaymentReceivedEvent)
	if !ok {
		return unexpectedEvent(h.logger, credit.EventTypePaymentReceived, event)
	}

	paymentID := e.PaymentID
	profile, err := h.intake.OnPaymentReceived(ctx, PaymentReceivedRequest{
		CustomerID:    e.CustomerID,
		PaymentID:     &paymentID,
		InvoiceID:     e.InvoiceID,
		InvoiceNumber: e.InvoiceNumber,
		Amount:        e.Amount.Amount(),
		Currency:      e.Amount.Currency().String(),
	}, e.ActorID)
	if err != nil {
		h.logger.Error("failed to apply payment to credit profile",
			zap.String("payment_id", e.PaymentID.String()),
			zap.String("customer_id", e.CustomerID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("apply payment %s: %w", e.PaymentID, err)
	}

	h.logger.Info("payment applied to credit profile",
		zap.String("payment_id", e.PaymentID.String()),
		zap.String("customer_id", e.CustomerID.String()),
		zap.Int64("credit_used", profile.CreditUsed),
	)
	return nil
}

// OrderPlacedHandler tracks pending orders of credit-managed customers
type OrderPlacedHandler struct {
	intake Intake
	logger *zap.Logger
}

// NewOrderPlacedHandler creates a new handler for order placed events
func NewOrderPlacedHandler(intake Intake, logger *zap.Logger) *OrderPlacedHandler {
	return &OrderPlacedHandler{intake: intake, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderPlacedHandler) EventTypes() []string {
	return []string{credit.EventTypeOrderPlaced}
}

// Handle applies an OrderPlacedEvent
func (h *OrderPlacedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*credit.OrderPlacedEvent)
	if !ok {
		return unexpectedEvent(h.logger, credit.EventTypeOrderPlaced, event)
	}

	err := h.intake.OnOrderPlaced(ctx, OrderPlacedRequest{
		CustomerID:  e.CustomerID,
		OrderID:     e.OrderID,
		OrderNumber: e.OrderNumber,
		Amount:      e.Amount.Amount(),
		Currency:    e.Amount.Currency().String(),
	}, e.ActorID)
	if err != nil {
		return fmt.Errorf("apply order %s: %w", e.OrderNumber, err)
	}
	return nil
}

// SalesReturnCompletedHandler releases credit for accepted returns
type SalesReturnCompletedHandler struct {
	intake Intake
	logger *zap.Logger
}

// NewSalesReturnCompletedHandler creates a new handler for sales return completed events
func NewSalesReturnCompletedHandler(intake Intake, logger *zap.Logger) *SalesReturnCompletedHandler {
	return &SalesReturnCompletedHandler{intake: intake, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *SalesReturnCompletedHandler) EventTypes() []string {
	return []string{credit.EventTypeSalesReturnCompleted}
}

// Handle applies a SalesReturnCompletedEvent. Returns with nothing to credit are skipped.
func (h *SalesReturnCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*credit.SalesReturnCompletedEvent)
	if !ok {
		return unexpectedEvent(h.logger, credit.EventTypeSalesReturnCompleted, event)
	}
	if e.CreditAmount.IsZero() {
		h.logger.Info("skipping sales return with zero credit amount",
			zap.String("return_id", e.ReturnID.String()),
			zap.String("return_number", e.ReturnNumber),
		)
		return nil
	}

	_, err := h.intake.OnReturnCredited(ctx, ReturnCreditedRequest{
		CustomerID:   e.CustomerID,
		ReturnID:     e.ReturnID,
		ReturnNumber: e.ReturnNumber,
		Amount:       e.CreditAmount.Amount(),
		Currency:     e.CreditAmount.Currency().String(),
	}, e.ActorID)
	if err != nil {
		h.logger.Error("failed to apply sales return to credit profile",
			zap.String("return_id", e.ReturnID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("apply sales return %s: %w", e.ReturnNumber, err)
	}
	return nil
}

// InvoiceOverdueHandler refreshes the overdue snapshot
type InvoiceOverdueHandler struct {
	intake Intake
	logger *zap.Logger
}

// NewInvoiceOverdueHandler creates a new handler for invoice overdue events
func NewInvoiceOverdueHandler(intake Intake, logger *zap.Logger) *InvoiceOverdueHandler {
	return &InvoiceOverdueHandler{intake: intake, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceOverdueHandler) EventTypes() []string {
	return []string{credit.EventTypeInvoiceOverdue}
}

// Handle applies an InvoiceOverdueEvent
func (h *InvoiceOverdueHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*credit.InvoiceOverdueEvent)
	if !ok {
		return unexpectedEvent(h.logger, credit.EventTypeInvoiceOverdue, event)
	}

	profile, err := h.intake.OnInvoiceOverdue(ctx, InvoiceOverdueRequest{
		CustomerID:     e.CustomerID,
		OverdueAmount:  e.OverdueAmount.Amount(),
		OverdueDaysAvg: e.OverdueDaysAvg,
		Currency:       e.OverdueAmount.Currency().String(),
	}, nil)
	if err != nil {
		return fmt.Errorf("apply overdue snapshot for customer %s: %w", e.CustomerID, err)
	}

	h.logger.Info("overdue snapshot applied",
		zap.String("customer_id", e.CustomerID.String()),
		zap.Int64("overdue_amount", profile.OverdueAmount),
		zap.String("risk_level", profile.RiskLevel),
	)
	return nil
}

// IntakeHandlers returns one handler per consumed integration event
func IntakeHandlers(intake Intake, logger *zap.Logger) []shared.EventHandler {
	return []shared.EventHandler{
		NewInvoiceCreatedHandler(intake, logger),
		NewPaymentReceivedHandler(intake, logger),
		NewOrderPlacedHandler(intake, logger),
		NewSalesReturnCompletedHandler(intake, logger),
		NewInvoiceOverdueHandler(intake, logger),
	}
}

var (
	_ shared.EventHandler = (*InvoiceCreatedHandler)(nil)
	_ shared.EventHandler = (*PaymentReceivedHandler)(nil)
	_ shared.EventHandler = (*OrderPlacedHandler)(nil)
	_ shared.EventHandler = (*SalesReturnCompletedHandler)(nil)
	_ shared.EventHandler = (*InvoiceOverdueHandler)(nil)
)
