package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/google/uuid"
)

const flutterwaveBaseURL = "https://api.flutterwave.com"

// FlutterwaveGateway drives the payment-link redirect model: we mint the
// transaction reference locally, post a payment request carrying it, and
// send the customer to the link in the response.
type FlutterwaveGateway struct {
	secretKey  string
	appBaseURL string
	baseURL    string
	client     *http.Client
	now        func() time.Time
}

func NewFlutterwaveGateway(secretKey, appBaseURL, baseURL string) *FlutterwaveGateway {
	if baseURL == "" {
		baseURL = flutterwaveBaseURL
	}
	return &FlutterwaveGateway{
		secretKey:  secretKey,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		baseURL:    baseURL,
		client:     &http.Client{Timeout: 20 * time.Second},
		now:        time.Now,
	}
}

func (g *FlutterwaveGateway) Name() string { return domain.ProviderFlutterwave }

// NewTxRef mints the locally unique transaction reference, DUM-{timestamp}-{random}.
func (g *FlutterwaveGateway) NewTxRef() string {
	return fmt.Sprintf("DUM-%d-%s", g.now().Unix(), uuid.NewString()[:8])
}

func (g *FlutterwaveGateway) Initiate(ctx context.Context, params InitiateParams) (*Initiation, error) {
	if g.secretKey == "" {
		return nil, domain.ConfigurationError{Key: "FLUTTERWAVE_SECRET_KEY"}
	}
	if g.appBaseURL == "" {
		return nil, domain.ConfigurationError{Key: "APP_BASE_URL"}
	}

	txRef := g.NewTxRef()
	payload, err := json.Marshal(map[string]interface{}{
		"tx_ref":       txRef,
		"amount":       fmt.Sprintf("%d.%02d", params.AmountCents/100, params.AmountCents%100),
		"currency":     params.Currency,
		"redirect_url": fmt.Sprintf("%s/payment/callback?orderId=%s", g.appBaseURL, params.OrderID),
		"customer": map[string]string{
			"email":       params.CustomerEmail,
			"name":        params.CustomerName,
			"phonenumber": params.CustomerPhone,
		},
		"customizations": map[string]string{
			"title":       "DummAir flight reservation",
			"description": "Reservation " + params.OrderNumber,
		},
		"meta": map[string]string{"order_id": params.OrderID},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v3/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flutterwave request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode flutterwave response: %w", err)
	}

	if resp.StatusCode >= 300 || body.Status != "success" {
		msg := body.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, domain.GatewayError{Provider: domain.ProviderFlutterwave, Message: msg}
	}
	if body.Data.Link == "" {
		return nil, domain.GatewayError{Provider: domain.ProviderFlutterwave, Message: "response missing payment link"}
	}

	return &Initiation{PaymentURL: body.Data.Link, Reference: txRef}, nil
}

var _ Gateway = (*FlutterwaveGateway)(nil)
