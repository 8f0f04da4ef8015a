package domain

import "time"

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusCompleted      OrderStatus = "completed"
)

type FlightType string

const (
	FlightTypeOneWay FlightType = "one-way"
	FlightTypeReturn FlightType = "return"
)

// Price per traveler, in cents.
const (
	PriceOneWayCents int64 = 2500
	PriceReturnCents int64 = 4500
)

// TicketPriceCents returns the total charge for an itinerary. Amounts are
// always derived from this table, never taken from client input.
func TicketPriceCents(flightType FlightType, travelers int) int64 {
	per := PriceOneWayCents
	if flightType == FlightTypeReturn {
		per = PriceReturnCents
	}
	return per * int64(travelers)
}

type Order struct {
	ID            string
	OrderNumber   string
	UserID        *string
	Email         string
	FlightType    FlightType
	FromLocation  string
	ToLocation    string
	DepartureDate time.Time
	ReturnDate    *time.Time
	Travelers     int
	Provider      string
	PaymentRef    string
	AmountCents   int64
	Currency      string
	TicketURL     *string
	Status        OrderStatus
	Notes         string
	Assigned      bool
	CreatedAt     time.Time
	PaidAt        *time.Time
	CompletedAt   *time.Time
}

type Passenger struct {
	ID          int64
	OrderID     string
	FirstName   string
	LastName    string
	Gender      string
	DateOfBirth time.Time
	Email       string
	PhoneCode   string
	Phone       string
	Nationality string
}

func (p Passenger) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
