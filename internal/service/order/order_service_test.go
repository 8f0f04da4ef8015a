package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/DummAir/DummAirApp-sub001/internal/gateway"
	"github.com/DummAir/DummAirApp-sub001/internal/service/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order, passengers []domain.Passenger) error {
	args := m.Called(ctx, order, passengers)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) Passengers(ctx context.Context, orderID string) ([]domain.Passenger, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]domain.Passenger), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, id, provider, reference string) (*domain.Order, error) {
	args := m.Called(ctx, id, provider, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) MarkCompleted(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) AttachTicket(ctx context.Context, id, ticketURL string) (*domain.Order, error) {
	args := m.Called(ctx, id, ticketURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) StalePendingIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockOrderRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByReference(ctx context.Context, provider, reference string) (*domain.Payment, error) {
	args := m.Called(ctx, provider, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkSucceeded(ctx context.Context, provider, reference, cardBrand, cardLast4 string) (*domain.Payment, error) {
	args := m.Called(ctx, provider, reference, cardBrand, cardLast4)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, provider, reference, errorMessage string) error {
	args := m.Called(ctx, provider, reference, errorMessage)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
	name string
}

func (m *MockGateway) Name() string { return m.name }

func (m *MockGateway) Initiate(ctx context.Context, params gateway.InitiateParams) (*gateway.Initiation, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Initiation), args.Error(1)
}

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, event notify.Event) {
	m.Called(ctx, event)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func validCreateInput() CreateOrderInput {
	departure := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	return CreateOrderInput{
		FlightType:    "one-way",
		From:          "LOS",
		To:            "LHR",
		DepartureDate: departure,
		Passengers: []PassengerInput{
			{FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", PhoneCode: "+234", Phone: "8012345678"},
		},
	}
}

func TestOrderService_CreateOrder_Pricing(t *testing.T) {
	returnDate := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name       string
		flightType string
		travelers  int
		expected   int64
	}{
		{"one-way single traveler", "one-way", 1, 2500},
		{"one-way three travelers", "one-way", 3, 7500},
		{"return two travelers", "return", 2, 9000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockOrders := &MockOrderRepository{}
			mockDispatcher := &MockDispatcher{}
			service := NewOrderService(mockOrders, nil, nil, nil, mockDispatcher, 48*time.Hour)

			input := validCreateInput()
			input.FlightType = tc.flightType
			if tc.flightType == "return" {
				input.ReturnDate = &returnDate
			}
			for i := 1; i < tc.travelers; i++ {
				input.Passengers = append(input.Passengers, PassengerInput{
					FirstName: "Traveler", Email: "traveler@example.com",
				})
			}

			// Mirror the Postgres repository, which stamps pending_payment
			// on the order it persists (see order_repo_pg.go Create).
			mockOrders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order"), mock.Anything).
				Run(func(args mock.Arguments) {
					args.Get(1).(*domain.Order).Status = domain.OrderStatusPendingPayment
				}).Return(nil).Once()
			mockDispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
				return e.Type == domain.NotificationOrderCreated
			})).Once()

			created, err := service.CreateOrder(context.Background(), input)

			assert.NoError(t, err)
			assert.Equal(t, tc.expected, created.AmountCents)
			assert.Equal(t, tc.travelers, created.Travelers)
			assert.Equal(t, domain.OrderStatusPendingPayment, created.Status)
			assert.True(t, strings.HasPrefix(created.OrderNumber, "DUM-"))
			mockOrders.AssertExpectations(t)
			mockDispatcher.AssertExpectations(t)
		})
	}
}

func TestOrderService_CreateOrder_ValidationErrors(t *testing.T) {
	service := NewOrderService(nil, nil, nil, nil, nil, 48*time.Hour)

	testCases := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"unknown flight type", func(in *CreateOrderInput) { in.FlightType = "open-jaw" }},
		{"missing origin", func(in *CreateOrderInput) { in.From = "" }},
		{"missing departure date", func(in *CreateOrderInput) { in.DepartureDate = time.Time{} }},
		{"return flight without return date", func(in *CreateOrderInput) { in.FlightType = "return" }},
		{"no passengers", func(in *CreateOrderInput) { in.Passengers = nil }},
		{"passenger without name", func(in *CreateOrderInput) { in.Passengers[0].FirstName = "" }},
		{"passenger without email", func(in *CreateOrderInput) { in.Passengers[0].Email = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)

			created, err := service.CreateOrder(context.Background(), input)

			assert.Nil(t, created)
			var validationErr domain.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestOrderService_CreateOrder_UniqueOrderNumbers(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	service := NewOrderService(mockOrders, nil, nil, nil, nil, 48*time.Hour,
		WithClock(fixedClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))))

	mockOrders.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	first, err := service.CreateOrder(context.Background(), validCreateInput())
	assert.NoError(t, err)
	second, err := service.CreateOrder(context.Background(), validCreateInput())
	assert.NoError(t, err)

	// Same clock tick, still distinct numbers.
	assert.NotEqual(t, first.OrderNumber, second.OrderNumber)
	assert.NotEqual(t, first.ID, second.ID)
}

func pendingOrder() *domain.Order {
	userID := "user-1"
	return &domain.Order{
		ID:          "11111111-2222-3333-4444-555555555555",
		OrderNumber: "DUM-1756100000-AB12",
		UserID:      &userID,
		Email:       "ada@example.com",
		FlightType:  domain.FlightTypeReturn,
		Travelers:   2,
		AmountCents: 9000,
		Currency:    "USD",
		Status:      domain.OrderStatusPendingPayment,
	}
}

func TestOrderService_InitiatePayment_Success(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	mockPayments := &MockPaymentRepository{}
	mockGateway := &MockGateway{name: domain.ProviderStripe}
	service := NewOrderService(mockOrders, mockPayments, gateway.NewRegistry(mockGateway), nil, nil, 48*time.Hour)

	order := pendingOrder()
	mockOrders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Once()
	mockGateway.On("Initiate", mock.Anything, mock.MatchedBy(func(p gateway.InitiateParams) bool {
		// Amount is re-derived from stored flight fields, not taken from input.
		return p.AmountCents == 9000 && p.OrderID == order.ID && p.Currency == "USD"
	})).Return(&gateway.Initiation{PaymentURL: "https://checkout.test/cs_123", Reference: "cs_123"}, nil).Once()
	mockPayments.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Status == domain.PaymentStatusPending && p.Reference == "cs_123" && p.OrderID == order.ID
	})).Return(nil).Once()

	initiation, err := service.InitiatePayment(context.Background(), InitiatePaymentInput{
		OrderID:  order.ID,
		Provider: domain.ProviderStripe,
	})

	assert.NoError(t, err)
	assert.Equal(t, "https://checkout.test/cs_123", initiation.PaymentURL)
	assert.Equal(t, domain.ProviderStripe, initiation.Provider)
	mockOrders.AssertExpectations(t)
	mockPayments.AssertExpectations(t)
	mockGateway.AssertExpectations(t)
}

func TestOrderService_InitiatePayment_GatewayFailureWritesNoPayment(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	mockPayments := &MockPaymentRepository{}
	mockGateway := &MockGateway{name: domain.ProviderStripe}
	service := NewOrderService(mockOrders, mockPayments, gateway.NewRegistry(mockGateway), nil, nil, 48*time.Hour)

	order := pendingOrder()
	mockOrders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Once()
	mockGateway.On("Initiate", mock.Anything, mock.Anything).
		Return(nil, domain.GatewayError{Provider: domain.ProviderStripe, Message: "card network unavailable"}).Once()

	initiation, err := service.InitiatePayment(context.Background(), InitiatePaymentInput{
		OrderID:  order.ID,
		Provider: domain.ProviderStripe,
	})

	assert.Nil(t, initiation)
	var gatewayErr domain.GatewayError
	assert.ErrorAs(t, err, &gatewayErr)
	mockPayments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_InitiatePayment_UnsupportedProvider(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	service := NewOrderService(mockOrders, nil, gateway.NewRegistry(), nil, nil, 48*time.Hour)

	order := pendingOrder()
	mockOrders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Once()

	initiation, err := service.InitiatePayment(context.Background(), InitiatePaymentInput{
		OrderID:  order.ID,
		Provider: "paypal",
	})

	assert.Nil(t, initiation)
	var validationErr domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "provider", validationErr.Field)
}

func TestOrderService_RetryPayment_RejectsNonPendingStatus(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.OrderStatusPaid, domain.OrderStatusCompleted} {
		t.Run(string(status), func(t *testing.T) {
			mockOrders := &MockOrderRepository{}
			service := NewOrderService(mockOrders, nil, nil, nil, nil, 48*time.Hour)

			order := pendingOrder()
			order.Status = status
			mockOrders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Once()

			initiation, err := service.RetryPayment(context.Background(), order.ID, domain.ProviderStripe)

			assert.Nil(t, initiation)
			var stateErr domain.InvalidStateError
			assert.ErrorAs(t, err, &stateErr)
			assert.Equal(t, status, stateErr.Status)
		})
	}
}

func TestOrderService_RetryPayment_UsesFirstPassengerAsBillingContact(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	mockPayments := &MockPaymentRepository{}
	mockGateway := &MockGateway{name: domain.ProviderFlutterwave}
	service := NewOrderService(mockOrders, mockPayments, gateway.NewRegistry(mockGateway), nil, nil, 48*time.Hour)

	order := pendingOrder()
	passengers := []domain.Passenger{
		{FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", PhoneCode: "+234", Phone: "8012345678"},
		{FirstName: "Ngozi", Email: "ngozi@example.com"},
	}
	mockOrders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Twice()
	mockOrders.On("Passengers", mock.Anything, order.ID).Return(passengers, nil).Once()
	mockGateway.On("Initiate", mock.Anything, mock.MatchedBy(func(p gateway.InitiateParams) bool {
		return p.CustomerEmail == "ada@example.com" &&
			p.CustomerName == "Ada Obi" &&
			p.CustomerPhone == "+2348012345678" &&
			p.AmountCents == 9000
	})).Return(&gateway.Initiation{PaymentURL: "https://pay.test/link", Reference: "DUM-1-abc"}, nil).Once()
	mockPayments.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	initiation, err := service.RetryPayment(context.Background(), order.ID, domain.ProviderFlutterwave)

	assert.NoError(t, err)
	assert.Equal(t, "https://pay.test/link", initiation.PaymentURL)
	mockGateway.AssertExpectations(t)
}

func TestOrderService_MarkPaid_TransitionsAndDispatches(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	mockPayments := &MockPaymentRepository{}
	mockDispatcher := &MockDispatcher{}
	service := NewOrderService(mockOrders, mockPayments, nil, nil, mockDispatcher, 48*time.Hour)

	order := pendingOrder()
	paid := *order
	paid.Status = domain.OrderStatusPaid

	mockPayments.On("MarkSucceeded", mock.Anything, domain.ProviderStripe, "cs_123", "", "").
		Return(&domain.Payment{OrderID: order.ID, Status: domain.PaymentStatusSucceeded}, nil).Once()
	mockOrders.On("MarkPaid", mock.Anything, order.ID, domain.ProviderStripe, "cs_123").Return(&paid, nil).Once()
	mockDispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
		return e.Type == domain.NotificationPaymentConfirmed && e.OwnerID == "user-1"
	})).Once()

	updated, err := service.MarkPaid(context.Background(), domain.ProviderStripe, "cs_123")

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, updated.Status)
	mockDispatcher.AssertExpectations(t)
}

func TestOrderService_MarkPaid_ReplayedWebhookIsNoOp(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	mockPayments := &MockPaymentRepository{}
	mockDispatcher := &MockDispatcher{}
	service := NewOrderService(mockOrders, mockPayments, nil, nil, mockDispatcher, 48*time.Hour)

	order := pendingOrder()
	order.Status = domain.OrderStatusPaid

	mockPayments.On("MarkSucceeded", mock.Anything, domain.ProviderStripe, "cs_123", "", "").
		Return(nil, domain.ErrNotFound).Once()
	mockPayments.On("GetByReference", mock.Anything, domain.ProviderStripe, "cs_123").
		Return(&domain.Payment{OrderID: order.ID, Status: domain.PaymentStatusSucceeded}, nil).Once()
	mockOrders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Once()

	updated, err := service.MarkPaid(context.Background(), domain.ProviderStripe, "cs_123")

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, updated.Status)
	mockDispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestOrderService_MarkCompleted_AlreadyCompleted(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	service := NewOrderService(mockOrders, nil, nil, nil, nil, 48*time.Hour)

	order := pendingOrder()
	order.Status = domain.OrderStatusCompleted
	mockOrders.On("MarkCompleted", mock.Anything, order.ID).Return(nil, domain.ErrNotFound).Once()
	mockOrders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Once()

	updated, err := service.MarkCompleted(context.Background(), order.ID)

	assert.Nil(t, updated)
	var stateErr domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestOrderService_MarkCompleted_UnknownOrder(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	service := NewOrderService(mockOrders, nil, nil, nil, nil, 48*time.Hour)

	mockOrders.On("MarkCompleted", mock.Anything, "missing").Return(nil, domain.ErrNotFound).Once()
	mockOrders.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrNotFound).Once()

	updated, err := service.MarkCompleted(context.Background(), "missing")

	assert.Nil(t, updated)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderService_AttachTicket_UploadFailureLeavesOrderUntouched(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	mockBlobs := &MockBlobStore{}
	mockDispatcher := &MockDispatcher{}
	service := NewOrderService(mockOrders, nil, nil, mockBlobs, mockDispatcher, 48*time.Hour)

	order := pendingOrder()
	mockOrders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Once()
	mockBlobs.On("Upload", mock.Anything, mock.Anything, mock.Anything, "application/pdf").
		Return("", domain.UploadError{Key: "tickets/x.pdf", Err: assert.AnError}).Once()

	updated, err := service.AttachTicket(context.Background(), order.ID, []byte("%PDF-1.4"))

	assert.Nil(t, updated)
	var uploadErr domain.UploadError
	assert.ErrorAs(t, err, &uploadErr)
	mockOrders.AssertNotCalled(t, "AttachTicket", mock.Anything, mock.Anything, mock.Anything)
	mockDispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestOrderService_AttachTicket_Success(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	mockBlobs := &MockBlobStore{}
	mockDispatcher := &MockDispatcher{}
	now := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	service := NewOrderService(mockOrders, nil, nil, mockBlobs, mockDispatcher, 48*time.Hour, WithClock(fixedClock(now)))

	order := pendingOrder()
	ticketURL := "https://storage.test/object/public/tickets/ticket.pdf"
	completed := *order
	completed.Status = domain.OrderStatusCompleted
	completed.TicketURL = &ticketURL

	expectedKey := "tickets/" + order.ID + "_1787218200.pdf"
	mockOrders.On("GetByID", mock.Anything, order.ID).Return(order, nil).Once()
	mockBlobs.On("Upload", mock.Anything, expectedKey, []byte("%PDF-1.4"), "application/pdf").
		Return(ticketURL, nil).Once()
	mockOrders.On("AttachTicket", mock.Anything, order.ID, ticketURL).Return(&completed, nil).Once()
	mockDispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
		return e.Type == domain.NotificationTicketReady && e.Recipient == "ada@example.com"
	})).Once()

	updated, err := service.AttachTicket(context.Background(), order.ID, []byte("%PDF-1.4"))

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, updated.Status)
	assert.Equal(t, &ticketURL, updated.TicketURL)
	mockBlobs.AssertExpectations(t)
	mockDispatcher.AssertExpectations(t)
}

func TestOrderService_Cleanup_DeletesOnlyStaleBatch(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	service := NewOrderService(mockOrders, nil, nil, nil, nil, 48*time.Hour,
		WithClock(fixedClock(now)), WithCleanupBatchSize(100))

	ids := []string{"a", "b", "c"}
	mockOrders.On("StalePendingIDs", mock.Anything, now.Add(-48*time.Hour), 100).Return(ids, nil).Once()
	mockOrders.On("DeleteByIDs", mock.Anything, ids).Return(int64(3), nil).Once()

	result, err := service.CleanupStalePendingOrders(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, CleanupResult{Checked: 3, Deleted: 3}, result)
	mockOrders.AssertExpectations(t)
}

func TestOrderService_Cleanup_NoQualifyingRowsIsNoOp(t *testing.T) {
	mockOrders := &MockOrderRepository{}
	service := NewOrderService(mockOrders, nil, nil, nil, nil, 48*time.Hour)

	mockOrders.On("StalePendingIDs", mock.Anything, mock.Anything, 100).Return([]string{}, nil).Once()

	result, err := service.CleanupStalePendingOrders(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, CleanupResult{}, result)
	mockOrders.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything)
}
