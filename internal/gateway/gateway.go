package gateway

import "context"

// InitiateParams is the provider-neutral checkout request. Amounts arrive in
// cents; each adapter converts to whatever unit its provider expects.
type InitiateParams struct {
	OrderID       string
	OrderNumber   string
	AmountCents   int64
	Currency      string
	CustomerEmail string
	CustomerName  string
	CustomerPhone string
}

// Initiation is what every provider initiation boils down to: somewhere to
// send the customer, and the reference the provider will quote back.
type Initiation struct {
	PaymentURL string
	Reference  string
}

type Gateway interface {
	Name() string
	Initiate(ctx context.Context, params InitiateParams) (*Initiation, error)
}

// Registry resolves a provider name to its adapter. Callers never see
// provider-specific request or response shapes.
type Registry map[string]Gateway

func NewRegistry(gateways ...Gateway) Registry {
	r := make(Registry, len(gateways))
	for _, g := range gateways {
		r[g.Name()] = g
	}
	return r
}

func (r Registry) Get(name string) (Gateway, bool) {
	g, ok := r[name]
	return g, ok
}
