package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/DummAir/DummAirApp-sub001/internal/kafka"
	"github.com/stretchr/testify/assert"
)

type sentEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func TestSender_Send(t *testing.T) {
	var sent []sentEmail
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_123", r.Header.Get("Authorization"))

		var msg sentEmail
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		sent = append(sent, msg)
		json.NewEncoder(w).Encode(map[string]string{"id": "email-1"})
	}))
	defer server.Close()

	sender := NewSender("re_123", "tickets@dummair.com", "admin@dummair.com", server.URL)

	err := sender.Send(context.Background(), kafka.NotificationEvent{
		Type:        "payment_confirmed",
		OrderNumber: "DUM-1756100000-AB12",
		Email:       "ada@example.com",
		Name:        "Ada",
		AmountCents: 4500,
		Currency:    "USD",
	})

	assert.NoError(t, err)
	assert.Len(t, sent, 1)
	assert.Equal(t, "tickets@dummair.com", sent[0].From)
	assert.Equal(t, []string{"ada@example.com"}, sent[0].To)
	assert.Equal(t, "Payment confirmed for order DUM-1756100000-AB12", sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "45.00 USD")
}

func TestSender_Send_OrderCreatedCopiesAdmin(t *testing.T) {
	var sent []sentEmail
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg sentEmail
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		sent = append(sent, msg)
		json.NewEncoder(w).Encode(map[string]string{"id": "email-1"})
	}))
	defer server.Close()

	sender := NewSender("re_123", "tickets@dummair.com", "admin@dummair.com", server.URL)

	err := sender.Send(context.Background(), kafka.NotificationEvent{
		Type:        "order_created",
		OrderNumber: "DUM-1756100000-AB12",
		Email:       "ada@example.com",
		AmountCents: 2500,
		Currency:    "USD",
	})

	assert.NoError(t, err)
	assert.Len(t, sent, 2)
	assert.Equal(t, []string{"ada@example.com"}, sent[0].To)
	assert.Equal(t, []string{"admin@dummair.com"}, sent[1].To)
	assert.Contains(t, sent[1].Subject, "awaiting fulfilment")
}

func TestSender_Send_MissingAPIKey(t *testing.T) {
	sender := NewSender("", "tickets@dummair.com", "", "")

	err := sender.Send(context.Background(), kafka.NotificationEvent{Type: "order_created", Email: "a@b.com"})

	var configErr domain.ConfigurationError
	assert.ErrorAs(t, err, &configErr)
	assert.Equal(t, "RESEND_API_KEY", configErr.Key)
}

func TestSender_Send_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid from address"})
	}))
	defer server.Close()

	sender := NewSender("re_123", "bogus", "", server.URL)

	err := sender.Send(context.Background(), kafka.NotificationEvent{Type: "ticket_ready", Email: "a@b.com"})

	var gatewayErr domain.GatewayError
	assert.ErrorAs(t, err, &gatewayErr)
	assert.Contains(t, gatewayErr.Error(), "invalid from address")
}

func TestRender(t *testing.T) {
	testCases := []struct {
		name            string
		event           kafka.NotificationEvent
		wantSubject     string
		wantBodySnippet string
	}{
		{
			"order created",
			kafka.NotificationEvent{Type: "order_created", OrderNumber: "DUM-1-AAAA", Name: "Ada", AmountCents: 2500, Currency: "USD"},
			"Order DUM-1-AAAA received",
			"25.00 USD",
		},
		{
			"ticket ready links the download",
			kafka.NotificationEvent{Type: "ticket_ready", OrderNumber: "DUM-1-AAAA", TicketURL: "https://files.test/t.pdf"},
			"Your ticket for order DUM-1-AAAA is ready",
			"https://files.test/t.pdf",
		},
		{
			"email verification",
			kafka.NotificationEvent{Type: "email_verification", ActionURL: "https://dummair.com/api/auth/verify-email?token=x"},
			"Verify your email address",
			"verify-email?token=x",
		},
		{
			"password reset",
			kafka.NotificationEvent{Type: "password_reset", ActionURL: "https://dummair.com/reset-password?token=x"},
			"Reset your password",
			"expires in 1 hour",
		},
		{
			"missing name falls back to traveler",
			kafka.NotificationEvent{Type: "order_completed", OrderNumber: "DUM-1-AAAA"},
			"Order DUM-1-AAAA completed",
			"Hi traveler",
		},
		{
			"unknown type gets generic subject",
			kafka.NotificationEvent{Type: "admin_message", OrderNumber: "DUM-1-AAAA"},
			"Update on your order",
			"DUM-1-AAAA",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			subject, body := Render(tc.event)
			assert.Equal(t, tc.wantSubject, subject)
			assert.Contains(t, body, tc.wantBodySnippet)
		})
	}
}
