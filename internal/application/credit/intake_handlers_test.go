package credit

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockIntake struct {
	mock.Mock
}

func (m *MockIntake) OnInvoiceCreated(ctx context.Context, req InvoiceCreatedRequest, actor *uuid.UUID) (*ProfileResponse, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProfileResponse), args.Error(1)
}

func (m *MockIntake) OnPaymentReceived(ctx context.Context, req PaymentReceivedRequest, actor *uuid.UUID) (*ProfileResponse, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProfileResponse), args.Error(1)
}

func (m *MockIntake) OnOrderPlaced(ctx context.Context, req OrderPlacedRequest, actor *uuid.UUID) error {
	args := m.Called(ctx, req, actor)
	return args.Error(0)
}

func (m *MockIntake) OnReturnCredited(ctx context.Context, req ReturnCreditedRequest, actor *uuid.UUID) (*ProfileResponse, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProfileResponse), args.Error(1)
}

func (m *MockIntake) OnInvoiceOverdue(ctx context.Context, req InvoiceOverdueRequest, actor *uuid.UUID) (*ProfileResponse, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProfileResponse), args.Error(1)
}

func usdAmount(amount int64) valueobject.Money {
	return valueobject.MustNewMoney(amount, valueobject.USD)
}

func TestIntakeHandlers_EventTypes(t *testing.T) {
	handlers := IntakeHandlers(new(MockIntake), zap.NewNop())

	var types []string
	for _, h := range handlers {
		types = append(types, h.EventTypes()...)
	}
	assert.ElementsMatch(t, []string{
		credit.EventTypeInvoiceCreated,
		credit.EventTypePaymentReceived,
		credit.EventTypeOrderPlaced,
		credit.EventTypeSalesReturnCompleted,
		credit.EventTypeInvoiceOverdue,
	}, types)
}

func TestInvoiceCreatedHandler_Handle(t *testing.T) {
	ctx := context.Background()
	intake := new(MockIntake)
	handler := NewInvoiceCreatedHandler(intake, zap.NewNop())

	customerID, invoiceID, actor := uuid.New(), uuid.New(), uuid.New()
	event := credit.NewInvoiceCreatedEvent(customerID, invoiceID, "INV-001", usdAmount(50000), &actor)

	intake.On("OnInvoiceCreated", ctx, InvoiceCreatedRequest{
		CustomerID:    customerID,
		InvoiceID:     invoiceID,
		InvoiceNumber: "INV-001",
		Amount:        50000,
		Currency:      "USD",
	}, &actor).Return(&ProfileResponse{CreditUsed: 50000}, nil)

	require.NoError(t, handler.Handle(ctx, event))
	intake.AssertExpectations(t)
}

func TestInvoiceCreatedHandler_Handle_WrongEventType(t *testing.T) {
	intake := new(MockIntake)
	handler := NewInvoiceCreatedHandler(intake, zap.NewNop())

	event := credit.NewOrderPlacedEvent(uuid.New(), uuid.New(), "SO-1", usdAmount(100), nil)

	err := handler.Handle(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected event type")
	intake.AssertNotCalled(t, "OnInvoiceCreated")
}

func TestInvoiceCreatedHandler_Handle_PropagatesError(t *testing.T) {
	ctx := context.Background()
	intake := new(MockIntake)
	handler := NewInvoiceCreatedHandler(intake, zap.NewNop())

	event := credit.NewInvoiceCreatedEvent(uuid.New(), uuid.New(), "INV-002", usdAmount(100), nil)
	boom := errors.New("boom")
	intake.On("OnInvoiceCreated", ctx, mock.AnythingOfType("credit.InvoiceCreatedRequest"), (*uuid.UUID)(nil)).
		Return(nil, boom)

	err := handler.Handle(ctx, event)
	assert.ErrorIs(t, err, boom)
}

func TestPaymentReceivedHandler_Handle_ReferencesInvoice(t *testing.T) {
	ctx := context.Background()
	intake := new(MockIntake)
	handler := NewPaymentReceivedHandler(intake, zap.NewNop())

	customerID, paymentID, invoiceID := uuid.New(), uuid.New(), uuid.New()
	event := credit.NewPaymentReceivedEvent(customerID, paymentID, &invoiceID, usdAmount(20000), nil)
	event.InvoiceNumber = "INV-003"

	intake.On("OnPaymentReceived", ctx, mock.MatchedBy(func(req PaymentReceivedRequest) bool {
		return req.CustomerID == customerID &&
			req.PaymentID != nil && *req.PaymentID == paymentID &&
			req.InvoiceID != nil && *req.InvoiceID == invoiceID &&
			req.InvoiceNumber == "INV-003" &&
			req.Amount == 20000
	}), (*uuid.UUID)(nil)).Return(&ProfileResponse{}, nil)

	require.NoError(t, handler.Handle(ctx, event))
	intake.AssertExpectations(t)
}

func TestOrderPlacedHandler_Handle(t *testing.T) {
	ctx := context.Background()
	intake := new(MockIntake)
	handler := NewOrderPlacedHandler(intake, zap.NewNop())

	customerID, orderID := uuid.New(), uuid.New()
	event := credit.NewOrderPlacedEvent(customerID, orderID, "SO-42", usdAmount(7000), nil)

	intake.On("OnOrderPlaced", ctx, OrderPlacedRequest{
		CustomerID:  customerID,
		OrderID:     orderID,
		OrderNumber: "SO-42",
		Amount:      7000,
		Currency:    "USD",
	}, (*uuid.UUID)(nil)).Return(nil)

	require.NoError(t, handler.Handle(ctx, event))
	intake.AssertExpectations(t)
}

func TestSalesReturnCompletedHandler_Handle(t *testing.T) {
	ctx := context.Background()
	intake := new(MockIntake)
	handler := NewSalesReturnCompletedHandler(intake, zap.NewNop())

	customerID, returnID := uuid.New(), uuid.New()
	event := credit.NewSalesReturnCompletedEvent(customerID, returnID, "SR-7", usdAmount(1500), nil)

	intake.On("OnReturnCredited", ctx, ReturnCreditedRequest{
		CustomerID:   customerID,
		ReturnID:     returnID,
		ReturnNumber: "SR-7",
		Amount:       1500,
		Currency:     "USD",
	}, (*uuid.UUID)(nil)).Return(&ProfileResponse{}, nil)

	require.NoError(t, handler.Handle(ctx, event))
	intake.AssertExpectations(t)
}

func TestSalesReturnCompletedHandler_Handle_SkipsZeroCredit(t *testing.T) {
	intake := new(MockIntake)
	handler := NewSalesReturnCompletedHandler(intake, zap.NewNop())

	event := credit.NewSalesReturnCompletedEvent(uuid.New(), uuid.New(), "SR-8", usdAmount(0), nil)

	require.NoError(t, handler.Handle(context.Background(), event))
	intake.AssertNotCalled(t, "OnReturnCredited")
}

func TestInvoiceOverdueHandler_Handle(t *testing.T) {
	ctx := context.Background()
	intake := new(MockIntake)
	handler := NewInvoiceOverdueHandler(intake, zap.NewNop())

	customerID := uuid.New()
	event := credit.NewInvoiceOverdueEvent(customerID, usdAmount(30000), 45)

	intake.On("OnInvoiceOverdue", ctx, InvoiceOverdueRequest{
		CustomerID:     customerID,
		OverdueAmount:  30000,
		OverdueDaysAvg: 45,
		Currency:       "USD",
	}, (*uuid.UUID)(nil)).Return(&ProfileResponse{OverdueAmount: 30000, RiskLevel: "HIGH"}, nil)

	require.NoError(t, handler.Handle(ctx, event))
	intake.AssertExpectations(t)
}
