package api

import (
	"net/http"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/service/order"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service order.OrderUseCase
}

func NewOrderHandler(service order.OrderUseCase) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) Register(router *gin.RouterGroup) {
	router.POST("/orders", h.create)
	router.POST("/payment", h.initiatePayment)
	router.POST("/retry-payment", h.retryPayment)
}

type passengerRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
	Email       string `json:"email"`
	PhoneCode   string `json:"phone_code"`
	Phone       string `json:"phone"`
	Nationality string `json:"nationality"`
}

type createOrderRequest struct {
	FlightType    string             `json:"flight_type"`
	From          string             `json:"from"`
	To            string             `json:"to"`
	DepartureDate string             `json:"departure_date"`
	ReturnDate    string             `json:"return_date"`
	Email         string             `json:"email"`
	Notes         string             `json:"notes"`
	Passengers    []passengerRequest `json:"passengers"`
}

func (h *OrderHandler) create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := order.CreateOrderInput{
		FlightType: req.FlightType,
		From:       req.From,
		To:         req.To,
		Email:      req.Email,
		Notes:      req.Notes,
	}
	if req.DepartureDate != "" {
		t, err := time.Parse("2006-01-02", req.DepartureDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "departure_date: expected YYYY-MM-DD"})
			return
		}
		input.DepartureDate = t
	}
	if req.ReturnDate != "" {
		t, err := time.Parse("2006-01-02", req.ReturnDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "return_date: expected YYYY-MM-DD"})
			return
		}
		input.ReturnDate = &t
	}
	for _, p := range req.Passengers {
		passenger := order.PassengerInput{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Gender:      p.Gender,
			Email:       p.Email,
			PhoneCode:   p.PhoneCode,
			Phone:       p.Phone,
			Nationality: p.Nationality,
		}
		if p.DateOfBirth != "" {
			if t, err := time.Parse("2006-01-02", p.DateOfBirth); err == nil {
				passenger.DateOfBirth = t
			}
		}
		input.Passengers = append(input.Passengers, passenger)
	}

	// Guest orders carry no owner; a valid session links the order to the
	// account once, at creation.
	if userID := c.GetString(ctxUserID); userID != "" {
		input.UserID = &userID
	}

	created, err := h.service.CreateOrder(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"orderId":     created.ID,
		"orderNumber": created.OrderNumber,
		"status":      string(created.Status),
		"amountCents": created.AmountCents,
		"currency":    created.Currency,
	})
}

type initiatePaymentRequest struct {
	OrderID       string `json:"order_id"`
	Provider      string `json:"provider"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
}

func (h *OrderHandler) initiatePayment(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OrderID == "" || req.Provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id and provider are required"})
		return
	}

	initiation, err := h.service.InitiatePayment(c.Request.Context(), order.InitiatePaymentInput{
		OrderID:       req.OrderID,
		Provider:      req.Provider,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_url": initiation.PaymentURL,
		"provider":    initiation.Provider,
		"reference":   initiation.Reference,
	})
}

type retryPaymentRequest struct {
	OrderID  string `json:"order_id"`
	Provider string `json:"provider"`
}

func (h *OrderHandler) retryPayment(c *gin.Context) {
	var req retryPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OrderID == "" || req.Provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id and provider are required"})
		return
	}

	initiation, err := h.service.RetryPayment(c.Request.Context(), req.OrderID, req.Provider)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_url": initiation.PaymentURL,
		"provider":    initiation.Provider,
		"reference":   initiation.Reference,
	})
}
