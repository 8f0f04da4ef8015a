package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/DummAir/DummAirApp-sub001/internal/gateway"
	"github.com/DummAir/DummAirApp-sub001/internal/repository"
	"github.com/DummAir/DummAirApp-sub001/internal/service/notify"
	"github.com/DummAir/DummAirApp-sub001/internal/storage"
	"github.com/google/uuid"
)

type OrderUseCase interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*PaymentInitiation, error)
	RetryPayment(ctx context.Context, orderID, provider string) (*PaymentInitiation, error)
	MarkPaid(ctx context.Context, provider, reference string) (*domain.Order, error)
	MarkCompleted(ctx context.Context, orderID string) (*domain.Order, error)
	AttachTicket(ctx context.Context, orderID string, ticket []byte) (*domain.Order, error)
	CleanupStalePendingOrders(ctx context.Context) (CleanupResult, error)
}

// Dispatcher fans a lifecycle event out into its email / in-app effects.
type Dispatcher interface {
	Dispatch(ctx context.Context, event notify.Event)
}

type OrderService struct {
	orders     repository.OrderRepository
	payments   repository.PaymentRepository
	gateways   gateway.Registry
	blobs      storage.BlobStore
	dispatcher Dispatcher
	retention  time.Duration
	batchSize  int
	now        func() time.Time
}

type OrderServiceOption func(*OrderService)

func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) { s.now = now }
}

func WithCleanupBatchSize(n int) OrderServiceOption {
	return func(s *OrderService) { s.batchSize = n }
}

func NewOrderService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	gateways gateway.Registry,
	blobs storage.BlobStore,
	dispatcher Dispatcher,
	retention time.Duration,
	opts ...OrderServiceOption,
) *OrderService {
	s := &OrderService{
		orders:     orders,
		payments:   payments,
		gateways:   gateways,
		blobs:      blobs,
		dispatcher: dispatcher,
		retention:  retention,
		batchSize:  100,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type PassengerInput struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Gender      string     `json:"gender"`
	DateOfBirth time.Time  `json:"date_of_birth"`
	Email       string     `json:"email"`
	PhoneCode   string     `json:"phone_code"`
	Phone       string     `json:"phone"`
	Nationality string     `json:"nationality"`
}

type CreateOrderInput struct {
	FlightType    string           `json:"flight_type"`
	From          string           `json:"from"`
	To            string           `json:"to"`
	DepartureDate time.Time        `json:"departure_date"`
	ReturnDate    *time.Time       `json:"return_date"`
	Passengers    []PassengerInput `json:"passengers"`
	Email         string           `json:"email"`
	UserID        *string          `json:"-"`
	Notes         string           `json:"notes"`
}

type InitiatePaymentInput struct {
	OrderID       string
	Provider      string
	CustomerEmail string
	CustomerName  string
	CustomerPhone string
}

type PaymentInitiation struct {
	PaymentURL string
	Provider   string
	Reference  string
}

type CleanupResult struct {
	Checked int
	Deleted int
}

// CreateOrder validates the itinerary, prices it from the fixed table, and
// persists the order with its passengers. The returned order is always
// pending_payment.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	flightType := domain.FlightType(input.FlightType)
	if flightType != domain.FlightTypeOneWay && flightType != domain.FlightTypeReturn {
		return nil, domain.ValidationError{Field: "flight_type", Msg: "must be one-way or return"}
	}
	if strings.TrimSpace(input.From) == "" || strings.TrimSpace(input.To) == "" {
		return nil, domain.ValidationError{Field: "route", Msg: "from and to are required"}
	}
	if input.DepartureDate.IsZero() {
		return nil, domain.ValidationError{Field: "departure_date", Msg: "is required"}
	}
	if flightType == domain.FlightTypeReturn && (input.ReturnDate == nil || input.ReturnDate.IsZero()) {
		return nil, domain.ValidationError{Field: "return_date", Msg: "is required for return flights"}
	}
	if len(input.Passengers) == 0 {
		return nil, domain.ValidationError{Field: "passengers", Msg: "at least one passenger is required"}
	}
	for i, p := range input.Passengers {
		if strings.TrimSpace(p.FirstName) == "" {
			return nil, domain.ValidationError{Field: fmt.Sprintf("passengers[%d].first_name", i), Msg: "is required"}
		}
		if strings.TrimSpace(p.Email) == "" {
			return nil, domain.ValidationError{Field: fmt.Sprintf("passengers[%d].email", i), Msg: "is required"}
		}
	}

	contactEmail := strings.TrimSpace(input.Email)
	if contactEmail == "" {
		contactEmail = input.Passengers[0].Email
	}

	order := &domain.Order{
		ID:            uuid.NewString(),
		OrderNumber:   s.newOrderNumber(),
		UserID:        input.UserID,
		Email:         contactEmail,
		FlightType:    flightType,
		FromLocation:  input.From,
		ToLocation:    input.To,
		DepartureDate: input.DepartureDate,
		ReturnDate:    input.ReturnDate,
		Travelers:     len(input.Passengers),
		AmountCents:   domain.TicketPriceCents(flightType, len(input.Passengers)),
		Currency:      "USD",
		Notes:         input.Notes,
	}

	passengers := make([]domain.Passenger, 0, len(input.Passengers))
	for _, p := range input.Passengers {
		passengers = append(passengers, domain.Passenger{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Gender:      p.Gender,
			DateOfBirth: p.DateOfBirth,
			Email:       p.Email,
			PhoneCode:   p.PhoneCode,
			Phone:       p.Phone,
			Nationality: p.Nationality,
		})
	}

	if err := s.orders.Create(ctx, order, passengers); err != nil {
		return nil, err
	}

	s.dispatch(ctx, notify.Event{
		Type:          domain.NotificationOrderCreated,
		Order:         order,
		Recipient:     order.Email,
		RecipientName: passengers[0].FullName(),
		OwnerID:       ownerOf(order),
	})
	return order, nil
}

// InitiatePayment obtains a redirect URL from the chosen provider. The
// pending Payment row is written only after the gateway call succeeds, so a
// gateway failure leaves no trace.
func (s *OrderService) InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*PaymentInitiation, error) {
	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	gw, ok := s.gateways.Get(input.Provider)
	if !ok {
		return nil, domain.ValidationError{Field: "provider", Msg: "unsupported payment provider"}
	}

	customerEmail := input.CustomerEmail
	if customerEmail == "" {
		customerEmail = order.Email
	}

	// Amount always comes from the stored order, never from the caller.
	amount := domain.TicketPriceCents(order.FlightType, order.Travelers)

	initiation, err := gw.Initiate(ctx, gateway.InitiateParams{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		AmountCents:   amount,
		Currency:      order.Currency,
		CustomerEmail: customerEmail,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
	})
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		OrderID:     order.ID,
		Provider:    gw.Name(),
		Reference:   initiation.Reference,
		AmountCents: amount,
		Currency:    order.Currency,
		Status:      domain.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	return &PaymentInitiation{
		PaymentURL: initiation.PaymentURL,
		Provider:   gw.Name(),
		Reference:  initiation.Reference,
	}, nil
}

// RetryPayment is a fresh user-initiated attempt on an order that is still
// awaiting payment. Billing details come from the stored first passenger.
func (s *OrderService) RetryPayment(ctx context.Context, orderID, provider string) (*PaymentInitiation, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPendingPayment {
		return nil, domain.InvalidStateError{Op: "retry payment", Status: order.Status}
	}

	input := InitiatePaymentInput{
		OrderID:       orderID,
		Provider:      provider,
		CustomerEmail: order.Email,
	}
	passengers, err := s.orders.Passengers(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(passengers) > 0 {
		first := passengers[0]
		input.CustomerEmail = first.Email
		input.CustomerName = first.FullName()
		input.CustomerPhone = first.PhoneCode + first.Phone
	}

	return s.InitiatePayment(ctx, input)
}

// MarkPaid applies a provider payment confirmation. Both writes are
// conditional updates, so replayed confirmations for the same reference are
// no-ops.
func (s *OrderService) MarkPaid(ctx context.Context, provider, reference string) (*domain.Order, error) {
	payment, err := s.payments.MarkSucceeded(ctx, provider, reference, "", "")
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Either an unknown reference or one already confirmed; look it
			// up to tell the two apart.
			existing, getErr := s.payments.GetByReference(ctx, provider, reference)
			if getErr != nil {
				return nil, getErr
			}
			return s.orders.GetByID(ctx, existing.OrderID)
		}
		return nil, err
	}

	order, err := s.orders.MarkPaid(ctx, payment.OrderID, provider, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Order already left pending_payment; nothing further to do.
			return s.orders.GetByID(ctx, payment.OrderID)
		}
		return nil, err
	}

	s.dispatch(ctx, notify.Event{
		Type:      domain.NotificationPaymentConfirmed,
		Order:     order,
		Recipient: order.Email,
		OwnerID:   ownerOf(order),
	})
	return order, nil
}

// MarkCompleted is the administrator's manual transition. It is one
// conditional update; two concurrent calls cannot both apply.
func (s *OrderService) MarkCompleted(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.MarkCompleted(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			existing, getErr := s.orders.GetByID(ctx, orderID)
			if getErr != nil {
				return nil, getErr
			}
			return nil, domain.InvalidStateError{Op: "mark completed", Status: existing.Status}
		}
		return nil, err
	}

	s.dispatch(ctx, notify.Event{
		Type:      domain.NotificationOrderCompleted,
		Order:     order,
		Recipient: order.Email,
		OwnerID:   ownerOf(order),
	})
	return order, nil
}

// AttachTicket uploads the ticket file and completes the order. Status and
// ticket URL move together, only after a confirmed upload.
func (s *OrderService) AttachTicket(ctx context.Context, orderID string, ticket []byte) (*domain.Order, error) {
	if len(ticket) == 0 {
		return nil, domain.ValidationError{Field: "ticket", Msg: "file is required"}
	}
	existing, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tickets/%s_%d.pdf", orderID, s.now().Unix())
	ticketURL, err := s.blobs.Upload(ctx, key, ticket, "application/pdf")
	if err != nil {
		return nil, err
	}

	order, err := s.orders.AttachTicket(ctx, orderID, ticketURL)
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, notify.Event{
		Type:      domain.NotificationTicketReady,
		Order:     order,
		Recipient: existing.Email,
		OwnerID:   ownerOf(order),
	})
	return order, nil
}

// CleanupStalePendingOrders purges orders stuck in pending_payment past the
// retention window, oldest first, at most one batch per run. Running with no
// qualifying rows is a no-op.
func (s *OrderService) CleanupStalePendingOrders(ctx context.Context) (CleanupResult, error) {
	cutoff := s.now().Add(-s.retention)
	ids, err := s.orders.StalePendingIDs(ctx, cutoff, s.batchSize)
	if err != nil {
		return CleanupResult{}, err
	}
	if len(ids) == 0 {
		return CleanupResult{}, nil
	}

	deleted, err := s.orders.DeleteByIDs(ctx, ids)
	if err != nil {
		return CleanupResult{}, err
	}
	return CleanupResult{Checked: len(ids), Deleted: int(deleted)}, nil
}

func (s *OrderService) dispatch(ctx context.Context, event notify.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(ctx, event)
}

func (s *OrderService) newOrderNumber() string {
	return fmt.Sprintf("DUM-%d-%s", s.now().Unix(), strings.ToUpper(uuid.NewString()[:4]))
}

func ownerOf(order *domain.Order) string {
	if order.UserID == nil {
		return ""
	}
	return *order.UserID
}

var _ OrderUseCase = (*OrderService)(nil)
