package api

import (
	"net/http"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/DummAir/DummAirApp-sub001/internal/repository"
	"github.com/gin-gonic/gin"
)

// Fetches never page past this; old rows stay in the table but out of view.
const notificationsLimit = 50

type NotificationHandler struct {
	notifications repository.NotificationRepository
}

func NewNotificationHandler(notifications repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) Register(router *gin.RouterGroup) {
	router.GET("/notifications", h.list)
	router.PATCH("/notifications", h.markRead)
}

type notificationResponse struct {
	ID        int64   `json:"id"`
	OrderID   *string `json:"order_id,omitempty"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	ActionURL string  `json:"action_url,omitempty"`
	Read      bool    `json:"read"`
	CreatedAt string  `json:"created_at"`
}

func (h *NotificationHandler) list(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	items, err := h.notifications.ListByUser(c.Request.Context(), userID, notificationsLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, notificationResponse{
			ID:        n.ID,
			OrderID:   n.OrderID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			ActionURL: n.ActionURL,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

type markReadRequest struct {
	ID  int64 `json:"id"`
	All bool  `json:"all"`
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var err error
	switch {
	case req.All:
		err = h.notifications.MarkAllRead(c.Request.Context(), userID)
	case req.ID > 0:
		err = h.notifications.MarkRead(c.Request.Context(), userID, req.ID)
	default:
		err = domain.ValidationError{Field: "id", Msg: "an id or all=true is required"}
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
