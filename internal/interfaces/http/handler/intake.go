package handler

import (
	"io"
	"net/http"

	creditapp "github.com/erp/credit/internal/application/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventDecoder turns a JSON payload into a registered event type
type EventDecoder interface {
	Deserialize(eventType string, data []byte) (shared.DomainEvent, error)
}

// IntakeHandler accepts invoice, payment, order, return and overdue notifications.
// The typed endpoints call the intake directly; the event endpoint decodes an
// integration event and publishes it to the bus, where it is deduplicated by ID.
type IntakeHandler struct {
	BaseHandler
	intake    creditapp.Intake
	decoder   EventDecoder
	publisher shared.EventPublisher
}

// NewIntakeHandler creates a new IntakeHandler
func NewIntakeHandler(intake creditapp.Intake, decoder EventDecoder, publisher shared.EventPublisher) *IntakeHandler {
	return &IntakeHandler{
		intake:    intake,
		decoder:   decoder,
		publisher: publisher,
	}
}

// InvoiceCreated records an issued invoice
//
//	POST /credit/intake/invoices
func (h *IntakeHandler) InvoiceCreated(c *gin.Context) {
	var req creditapp.InvoiceCreatedRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	profile, err := h.intake.OnInvoiceCreated(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// PaymentReceived records a customer payment
//
//	POST /credit/intake/payments
func (h *IntakeHandler) PaymentReceived(c *gin.Context) {
	var req creditapp.PaymentReceivedRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	profile, err := h.intake.OnPaymentReceived(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// OrderPlaced records a confirmed order against pending orders
//
//	POST /credit/intake/orders
func (h *IntakeHandler) OrderPlaced(c *gin.Context) {
	var req creditapp.OrderPlacedRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.intake.OnOrderPlaced(c.Request.Context(), req, actor); err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(nil))
}

// ReturnCredited records a completed sales return
//
//	POST /credit/intake/returns
func (h *IntakeHandler) ReturnCredited(c *gin.Context) {
	var req creditapp.ReturnCreditedRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	profile, err := h.intake.OnReturnCredited(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// InvoiceOverdue records the customer's recomputed overdue totals
//
//	POST /credit/intake/overdue
func (h *IntakeHandler) InvoiceOverdue(c *gin.Context) {
	var req creditapp.InvoiceOverdueRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	profile, err := h.intake.OnInvoiceOverdue(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// EventAccepted acknowledges a published integration event
type EventAccepted struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType string    `json:"event_type"`
}

// IngestEvent publishes an integration event delivered over HTTP.
// Redelivering an event with the same ID is a no-op.
//
//	POST /credit/events/:event_type
func (h *IntakeHandler) IngestEvent(c *gin.Context) {
	eventType := c.Param("event_type")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	event, err := h.decoder.Deserialize(eventType, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(EventAccepted{
		EventID:   event.EventID(),
		EventType: event.EventType(),
	}))
}
