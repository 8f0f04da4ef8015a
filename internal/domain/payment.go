package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

const (
	ProviderStripe      = "stripe"
	ProviderFlutterwave = "flutterwave"
)

// Payment is one attempt to collect an order's amount. An order may carry
// several (one per retry); only the most recent succeeded one is
// authoritative. Reference is unique per provider.
type Payment struct {
	ID           int64
	OrderID      string
	Provider     string
	Reference    string
	AmountCents  int64
	Currency     string
	Status       PaymentStatus
	CardBrand    string
	CardLast4    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
