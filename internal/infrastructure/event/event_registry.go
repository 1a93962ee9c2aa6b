package event

import "github.com/erp/credit/internal/domain/credit"

// RegisterIntakeEvents registers only the integration events the credit core
// consumes. Serializers that decode events from outside callers use this set.
func RegisterIntakeEvents(serializer *EventSerializer) {
	serializer.Register(credit.EventTypeInvoiceCreated, &credit.InvoiceCreatedEvent{})
	serializer.Register(credit.EventTypePaymentReceived, &credit.PaymentReceivedEvent{})
	serializer.Register(credit.EventTypeOrderPlaced, &credit.OrderPlacedEvent{})
	serializer.Register(credit.EventTypeSalesReturnCompleted, &credit.SalesReturnCompletedEvent{})
	serializer.Register(credit.EventTypeInvoiceOverdue, &credit.InvoiceOverdueEvent{})
}

// RegisterCreditEvents registers the intake events plus the domain events the
// credit core publishes
func RegisterCreditEvents(serializer *EventSerializer) {
	RegisterIntakeEvents(serializer)

	serializer.Register(credit.EventTypeCreditHoldPlaced, &credit.CreditHoldPlacedEvent{})
	serializer.Register(credit.EventTypeCreditHoldReleased, &credit.CreditHoldReleasedEvent{})
	serializer.Register(credit.EventTypeCreditLimitChanged, &credit.CreditLimitChangedEvent{})
	serializer.Register(credit.EventTypeCreditRiskLevelChanged, &credit.CreditRiskLevelChangedEvent{})
}
