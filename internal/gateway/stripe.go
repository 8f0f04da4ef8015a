package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
)

const stripeBaseURL = "https://api.stripe.com"

// StripeGateway drives the hosted-checkout redirect model: one checkout
// session per initiation, session id as the provider reference.
type StripeGateway struct {
	secretKey  string
	appBaseURL string
	baseURL    string
	client     *http.Client
}

func NewStripeGateway(secretKey, appBaseURL, baseURL string) *StripeGateway {
	if baseURL == "" {
		baseURL = stripeBaseURL
	}
	return &StripeGateway{
		secretKey:  secretKey,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		baseURL:    baseURL,
		client:     &http.Client{Timeout: 20 * time.Second},
	}
}

func (g *StripeGateway) Name() string { return domain.ProviderStripe }

func (g *StripeGateway) Initiate(ctx context.Context, params InitiateParams) (*Initiation, error) {
	if g.secretKey == "" {
		return nil, domain.ConfigurationError{Key: "STRIPE_SECRET_KEY"}
	}
	if g.appBaseURL == "" {
		return nil, domain.ConfigurationError{Key: "APP_BASE_URL"}
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("customer_email", params.CustomerEmail)
	form.Set("success_url", fmt.Sprintf("%s/payment/success?orderId=%s", g.appBaseURL, params.OrderID))
	form.Set("cancel_url", fmt.Sprintf("%s/payment/cancel?orderId=%s", g.appBaseURL, params.OrderID))
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(params.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", "Flight reservation "+params.OrderNumber)
	form.Set("metadata[order_id]", params.OrderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/checkout/sessions",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, domain.GatewayError{Provider: domain.ProviderStripe, Message: msg}
	}

	var session struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode stripe session: %w", err)
	}
	if session.ID == "" || session.URL == "" {
		return nil, domain.GatewayError{Provider: domain.ProviderStripe, Message: "checkout session missing id or url"}
	}

	return &Initiation{PaymentURL: session.URL, Reference: session.ID}, nil
}

var _ Gateway = (*StripeGateway)(nil)
