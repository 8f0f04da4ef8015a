package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/DummAir/DummAirApp-sub001/internal/service/order"
	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	service       order.OrderUseCase
	webhookSecret string
}

func NewWebhookHandler(service order.OrderUseCase, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{service: service, webhookSecret: webhookSecret}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/stripe", h.stripe)
}

type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string `json:"id"`
			PaymentStatus string `json:"payment_status"`
		} `json:"object"`
	} `json:"data"`
}

func (h *WebhookHandler) stripe(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read body"})
		return
	}

	if h.webhookSecret != "" && !verifyStripeSignature(h.webhookSecret, c.GetHeader("Stripe-Signature"), body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var event stripeEvent
	if err := json.Unmarshal(body, &event); err != nil || event.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	if event.Type == "checkout.session.completed" {
		if event.Data.Object.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
			return
		}
		// Unknown references are acknowledged anyway: the provider retries
		// on non-2xx, and a reference we never issued will not appear later.
		if _, err := h.service.MarkPaid(c.Request.Context(), domain.ProviderStripe, event.Data.Object.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// verifyStripeSignature checks the t=...,v1=... header scheme: v1 is the
// hex HMAC-SHA256 of "{t}.{body}" under the endpoint secret.
func verifyStripeSignature(secret, header string, body []byte) bool {
	var timestamp, signature string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signature = value
		}
	}
	if timestamp == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
