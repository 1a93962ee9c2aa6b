package credit

import (
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Integration event types published by the sales, finance and returns modules.
// The credit core subscribes to them and turns each into one intake call.
const (
	EventTypeInvoiceCreated       = "InvoiceCreated"
	EventTypePaymentReceived      = "PaymentReceived"
	EventTypeOrderPlaced          = "OrderPlaced"
	EventTypeSalesReturnCompleted = "SalesReturnCompleted"
	EventTypeInvoiceOverdue       = "InvoiceOverdue"
)

// Aggregate types of the publishing modules
const (
	AggregateTypeInvoice     = "Invoice"
	AggregateTypePayment     = "Payment"
	AggregateTypeSalesOrder  = "SalesOrder"
	AggregateTypeSalesReturn = "SalesReturn"
	AggregateTypeCustomer    = "Customer"
)

// InvoiceCreatedEvent is published when an invoice is issued to a customer
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID    uuid.UUID         `json:"customer_id"`
	InvoiceID     uuid.UUID         `json:"invoice_id"`
	InvoiceNumber string            `json:"invoice_number"`
	Amount        valueobject.Money `json:"amount"`
	ActorID       *uuid.UUID        `json:"actor_id,omitempty"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(customerID, invoiceID uuid.UUID, invoiceNumber string, amount valueobject.Money, actorID *uuid.UUID) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, invoiceID),
		CustomerID:      customerID,
		InvoiceID:       invoiceID,
		InvoiceNumber:   invoiceNumber,
		Amount:          amount,
		ActorID:         actorID,
	}
}

// PaymentReceivedEvent is published when a customer payment is applied
type PaymentReceivedEvent struct {
	shared.BaseDomainEvent
	CustomerID    uuid.UUID         `json:"customer_id"`
	PaymentID     uuid.UUID         `json:"payment_id"`
	InvoiceID     *uuid.UUID        `json:"invoice_id,omitempty"`
	InvoiceNumber string            `json:"invoice_number,omitempty"`
	Amount        valueobject.Money `json:"amount"`
	ActorID       *uuid.UUID        `json:"actor_id,omitempty"`
}

// NewPaymentReceivedEvent creates a new PaymentReceivedEvent
func NewPaymentReceivedEvent(customerID, paymentID uuid.UUID, invoiceID *uuid.UUID, amount valueobject.Money, actorID *uuid.UUID) *PaymentReceivedEvent {
	return &PaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReceived, AggregateTypePayment, paymentID),
		CustomerID:      customerID,
		PaymentID:       paymentID,
		InvoiceID:       invoiceID,
		Amount:          amount,
		ActorID:         actorID,
	}
}

// OrderPlacedEvent is published when a sales order is confirmed
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	CustomerID  uuid.UUID         `json:"customer_id"`
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Amount      valueobject.Money `json:"amount"`
	ActorID     *uuid.UUID        `json:"actor_id,omitempty"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(customerID, orderID uuid.UUID, orderNumber string, amount valueobject.Money, actorID *uuid.UUID) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeSalesOrder, orderID),
		CustomerID:      customerID,
		OrderID:         orderID,
		OrderNumber:     orderNumber,
		Amount:          amount,
		ActorID:         actorID,
	}
}

// SalesReturnCompletedEvent is published when returned goods are accepted and credited
type SalesReturnCompletedEvent struct {
	shared.BaseDomainEvent
	CustomerID   uuid.UUID         `json:"customer_id"`
	ReturnID     uuid.UUID         `json:"return_id"`
	ReturnNumber string            `json:"return_number"`
	CreditAmount valueobject.Money `json:"credit_amount"`
	ActorID      *uuid.UUID        `json:"actor_id,omitempty"`
}

// NewSalesReturnCompletedEvent creates a new SalesReturnCompletedEvent
func NewSalesReturnCompletedEvent(customerID, returnID uuid.UUID, returnNumber string, creditAmount valueobject.Money, actorID *uuid.UUID) *SalesReturnCompletedEvent {
	return &SalesReturnCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesReturnCompleted, AggregateTypeSalesReturn, returnID),
		CustomerID:      customerID,
		ReturnID:        returnID,
		ReturnNumber:    returnNumber,
		CreditAmount:    creditAmount,
		ActorID:         actorID,
	}
}

// InvoiceOverdueEvent carries a customer's recomputed overdue totals.
// It is a snapshot: the amounts replace, not add to, the stored values.
type InvoiceOverdueEvent struct {
	shared.BaseDomainEvent
	CustomerID     uuid.UUID         `json:"customer_id"`
	OverdueAmount  valueobject.Money `json:"overdue_amount"`
	OverdueDaysAvg int               `json:"overdue_days_avg"`
}

// NewInvoiceOverdueEvent creates a new InvoiceOverdueEvent
func NewInvoiceOverdueEvent(customerID uuid.UUID, overdueAmount valueobject.Money, overdueDaysAvg int) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceOverdue, AggregateTypeCustomer, customerID),
		CustomerID:      customerID,
		OverdueAmount:   overdueAmount,
		OverdueDaysAvg:  overdueDaysAvg,
	}
}
