package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	creditapp "github.com/erp/credit/internal/application/credit"
	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/infrastructure/event"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockIntake struct {
	mock.Mock
}

func (m *MockIntake) OnInvoiceCreated(ctx context.Context, req creditapp.InvoiceCreatedRequest, actor *uuid.UUID) (*creditapp.ProfileResponse, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*creditapp.ProfileResponse), args.Error(1)
}

func (m *MockIntake) OnPaymentReceived(ctx context.Context, req creditapp.PaymentReceivedRequest, actor *uuid.UUID) (*creditapp.ProfileResponse, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*creditapp.ProfileResponse), args.Error(1)
}

func (m *MockIntake) OnOrderPlaced(ctx context.Context, req creditapp.OrderPlacedRequest, actor *uuid.UUID) error {
	args := m.Called(ctx, req, actor)
	return args.Error(0)
}

func (m *MockIntake) OnReturnCredited(ctx context.Context, req creditapp.ReturnCreditedRequest, actor *uuid.UUID) (*creditapp.ProfileResponse, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*creditapp.ProfileResponse), args.Error(1)
}

func (m *MockIntake) OnInvoiceOverdue(ctx context.Context, req creditapp.InvoiceOverdueRequest, actor *uuid.UUID) (*creditapp.ProfileResponse, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*creditapp.ProfileResponse), args.Error(1)
}

type recordingHandler struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	return nil
}

func (h *recordingHandler) EventTypes() []string { return nil }

func (h *recordingHandler) received() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.events...)
}

type intakeAPI struct {
	engine   *gin.Engine
	intake   *MockIntake
	recorder *recordingHandler
}

func newIntakeAPI(t *testing.T) *intakeAPI {
	t.Helper()

	serializer := event.NewEventSerializer()
	event.RegisterIntakeEvents(serializer)
	bus := event.NewInMemoryEventBus(zap.NewNop())
	recorder := &recordingHandler{}
	bus.Subscribe(recorder)

	intake := new(MockIntake)
	h := NewIntakeHandler(intake, serializer, bus)

	engine := gin.New()
	g := engine.Group("/api/v1/credit")
	g.POST("/intake/invoices", h.InvoiceCreated)
	g.POST("/intake/payments", h.PaymentReceived)
	g.POST("/intake/orders", h.OrderPlaced)
	g.POST("/intake/returns", h.ReturnCredited)
	g.POST("/intake/overdue", h.InvoiceOverdue)
	g.POST("/events/:event_type", h.IngestEvent)

	return &intakeAPI{engine: engine, intake: intake, recorder: recorder}
}

func (a *intakeAPI) post(path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestIntakeHandler_InvoiceCreated(t *testing.T) {
	api := newIntakeAPI(t)
	customerID := uuid.New()
	invoiceID := uuid.New()

	expected := creditapp.InvoiceCreatedRequest{
		CustomerID:    customerID,
		InvoiceID:     invoiceID,
		InvoiceNumber: "INV-001",
		Amount:        1500,
	}
	api.intake.On("OnInvoiceCreated", mock.Anything, expected, (*uuid.UUID)(nil)).
		Return(&creditapp.ProfileResponse{CustomerID: customerID, CreditUsed: 1500}, nil)

	w := api.post("/api/v1/credit/intake/invoices", mustJSON(t, expected))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, float64(1500), resp.Data.(map[string]any)["credit_used"])
	api.intake.AssertExpectations(t)
}

func TestIntakeHandler_PaymentReceived_PropagatesDomainError(t *testing.T) {
	api := newIntakeAPI(t)
	api.intake.On("OnPaymentReceived", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, shared.ErrInvalidCurrency)

	w := api.post("/api/v1/credit/intake/payments", mustJSON(t, map[string]any{
		"customer_id": uuid.New(),
		"amount":      100,
		"currency":    "EUR",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CURRENCY", resp.Error.Code)
}

func TestIntakeHandler_OrderPlaced(t *testing.T) {
	api := newIntakeAPI(t)
	api.intake.On("OnOrderPlaced", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	w := api.post("/api/v1/credit/intake/orders", mustJSON(t, map[string]any{
		"customer_id": uuid.New(),
		"order_id":    uuid.New(),
		"amount":      700,
	}))

	assert.Equal(t, http.StatusAccepted, w.Code)
	api.intake.AssertNumberOfCalls(t, "OnOrderPlaced", 1)
}

func TestIntakeHandler_Validation(t *testing.T) {
	api := newIntakeAPI(t)

	tests := []struct {
		name string
		path string
		body map[string]any
	}{
		{"invoice without id", "/api/v1/credit/intake/invoices", map[string]any{"customer_id": uuid.New(), "amount": 10}},
		{"order without id", "/api/v1/credit/intake/orders", map[string]any{"customer_id": uuid.New()}},
		{"return negative", "/api/v1/credit/intake/returns", map[string]any{"customer_id": uuid.New(), "return_id": uuid.New(), "amount": -5}},
		{"overdue negative days", "/api/v1/credit/intake/overdue", map[string]any{"customer_id": uuid.New(), "overdue_days_avg": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.post(tt.path, mustJSON(t, tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	api.intake.AssertNotCalled(t, "OnInvoiceCreated", mock.Anything, mock.Anything, mock.Anything)
	api.intake.AssertNotCalled(t, "OnOrderPlaced", mock.Anything, mock.Anything, mock.Anything)
}

func TestIntakeHandler_IngestEvent(t *testing.T) {
	api := newIntakeAPI(t)
	eventID := uuid.New()
	customerID := uuid.New()

	payload := mustJSON(t, map[string]any{
		"id":             eventID,
		"type":           credit.EventTypeInvoiceCreated,
		"customer_id":    customerID,
		"invoice_id":     uuid.New(),
		"invoice_number": "INV-42",
		"amount":         map[string]any{"amount": 4200, "currency": "USD"},
	})

	w := api.post("/api/v1/credit/events/"+credit.EventTypeInvoiceCreated, payload)

	require.Equal(t, http.StatusAccepted, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, eventID.String(), data["event_id"])
	assert.Equal(t, credit.EventTypeInvoiceCreated, data["event_type"])

	received := api.recorder.received()
	require.Len(t, received, 1)
	invoice, ok := received[0].(*credit.InvoiceCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, customerID, invoice.CustomerID)
	assert.Equal(t, int64(4200), invoice.Amount.Amount())
}

func TestIntakeHandler_IngestEvent_Rejects(t *testing.T) {
	api := newIntakeAPI(t)

	tests := []struct {
		name      string
		eventType string
		body      []byte
		code      string
	}{
		{"unknown type", "CustomerDeleted", []byte(`{"id":"` + uuid.NewString() + `"}`), "UNKNOWN_EVENT_TYPE"},
		{"malformed json", credit.EventTypePaymentReceived, []byte(`{"id":`), "INVALID_EVENT_PAYLOAD"},
		{"missing id", credit.EventTypePaymentReceived, []byte(`{"customer_id":"` + uuid.NewString() + `"}`), "INVALID_EVENT_PAYLOAD"},
		{"mismatched type", credit.EventTypePaymentReceived, []byte(`{"id":"` + uuid.NewString() + `","type":"OrderPlaced"}`), "INVALID_EVENT_PAYLOAD"},
		{"outbound credit event", credit.EventTypeCreditHoldPlaced, []byte(`{"id":"` + uuid.NewString() + `","customer_id":"` + uuid.NewString() + `"}`), "UNKNOWN_EVENT_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.post("/api/v1/credit/events/"+tt.eventType, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
	assert.Empty(t, api.recorder.received())
}
