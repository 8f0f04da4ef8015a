package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/DummAir/DummAirApp-sub001/internal/kafka"
)

const defaultBaseURL = "https://api.resend.com"

// Sender delivers transactional email through the Resend HTTP API. One
// NotificationEvent maps to one send; order_created additionally copies the
// admin inbox.
type Sender struct {
	apiKey  string
	from    string
	adminTo string
	baseURL string
	client  *http.Client
}

func NewSender(apiKey, from, adminTo, baseURL string) *Sender {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Sender{
		apiKey:  apiKey,
		from:    from,
		adminTo: adminTo,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Sender) Send(ctx context.Context, event kafka.NotificationEvent) error {
	if s.apiKey == "" {
		return domain.ConfigurationError{Key: "RESEND_API_KEY"}
	}

	subject, body := Render(event)
	if event.Email != "" {
		if err := s.post(ctx, event.Email, subject, body); err != nil {
			return err
		}
	}

	if event.Type == "order_created" && s.adminTo != "" {
		adminSubject := fmt.Sprintf("New order %s awaiting fulfilment", event.OrderNumber)
		adminBody := fmt.Sprintf("<p>Order <strong>%s</strong> was created for %s (%s %s).</p>",
			event.OrderNumber, event.Email, formatAmount(event.AmountCents), event.Currency)
		if err := s.post(ctx, s.adminTo, adminSubject, adminBody); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) post(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"from":    s.from,
		"to":      []string{to},
		"subject": subject,
		"html":    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		return domain.GatewayError{Provider: "resend", Message: apiErr.Message}
	}
	return nil
}

// Render maps an event to its subject/body pair. Unknown types fall back to
// a generic subject rather than failing the send.
func Render(event kafka.NotificationEvent) (subject, body string) {
	name := event.Name
	if name == "" {
		name = "traveler"
	}

	switch event.Type {
	case "order_created":
		subject = fmt.Sprintf("Order %s received", event.OrderNumber)
		body = fmt.Sprintf("<p>Hi %s,</p><p>Your order <strong>%s</strong> was created. Complete the payment of %s %s to receive your ticket.</p>",
			name, event.OrderNumber, formatAmount(event.AmountCents), event.Currency)
	case "payment_confirmed":
		subject = fmt.Sprintf("Payment confirmed for order %s", event.OrderNumber)
		body = fmt.Sprintf("<p>Hi %s,</p><p>We received your payment of %s %s for order <strong>%s</strong>. Your ticket will arrive shortly.</p>",
			name, formatAmount(event.AmountCents), event.Currency, event.OrderNumber)
	case "ticket_ready":
		subject = fmt.Sprintf("Your ticket for order %s is ready", event.OrderNumber)
		body = fmt.Sprintf("<p>Hi %s,</p><p>Your ticket is ready. <a href=%q>Download it here</a>.</p>", name, event.TicketURL)
	case "order_completed":
		subject = fmt.Sprintf("Order %s completed", event.OrderNumber)
		body = fmt.Sprintf("<p>Hi %s,</p><p>Your order <strong>%s</strong> is complete. Thank you for flying with us.</p>", name, event.OrderNumber)
	case "payment_reminder":
		subject = fmt.Sprintf("Payment pending for order %s", event.OrderNumber)
		body = fmt.Sprintf("<p>Hi %s,</p><p>Order <strong>%s</strong> is still awaiting payment. Unpaid orders are removed after 48 hours.</p>", name, event.OrderNumber)
	case "email_verification":
		subject = "Verify your email address"
		body = fmt.Sprintf("<p>Hi %s,</p><p><a href=%q>Click here to verify your email</a>. The link expires in 24 hours.</p>", name, event.ActionURL)
	case "password_reset":
		subject = "Reset your password"
		body = fmt.Sprintf("<p>Hi %s,</p><p><a href=%q>Click here to reset your password</a>. The link expires in 1 hour.</p>", name, event.ActionURL)
	default:
		subject = "Update on your order"
		body = fmt.Sprintf("<p>Hi %s,</p><p>There is an update on your order %s.</p>", name, event.OrderNumber)
	}
	return subject, body
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
