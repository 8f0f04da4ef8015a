package api

import (
	"io"
	"net/http"

	"github.com/DummAir/DummAirApp-sub001/internal/service/order"
	"github.com/gin-gonic/gin"
)

// 10 MiB is generous for a one-page ticket PDF.
const maxTicketBytes = 10 << 20

type AdminHandler struct {
	service order.OrderUseCase
}

func NewAdminHandler(service order.OrderUseCase) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/mark-completed", h.markCompleted)
	router.POST("/upload-ticket", h.uploadTicket)
}

type markCompletedRequest struct {
	OrderID string `json:"orderId"`
}

func (h *AdminHandler) markCompleted(c *gin.Context) {
	var req markCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	if _, err := h.service.MarkCompleted(c.Request.Context(), req.OrderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) uploadTicket(c *gin.Context) {
	orderID := c.PostForm("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	fileHeader, err := c.FormFile("ticket")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticket file is required"})
		return
	}
	if fileHeader.Size > maxTicketBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticket file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read ticket file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read ticket file"})
		return
	}

	updated, err := h.service.AttachTicket(c.Request.Context(), orderID, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ticketUrl": updated.TicketURL})
}
