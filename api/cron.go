package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/DummAir/DummAirApp-sub001/internal/service/order"
	"github.com/gin-gonic/gin"
)

type CronHandler struct {
	service    order.OrderUseCase
	cronSecret string
}

func NewCronHandler(service order.OrderUseCase, cronSecret string) *CronHandler {
	return &CronHandler{service: service, cronSecret: cronSecret}
}

func (h *CronHandler) Register(router *gin.RouterGroup) {
	router.GET("/cleanup-pending-orders", h.cleanupPendingOrders)
	router.POST("/cleanup-pending-orders", h.cleanupPendingOrders)
}

func (h *CronHandler) cleanupPendingOrders(c *gin.Context) {
	// An unset secret disables the endpoint rather than opening it.
	presented := c.GetHeader("X-Cron-Secret")
	if presented == "" {
		presented = bearerToken(c)
	}
	if h.cronSecret == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(h.cronSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid cron secret"})
		return
	}

	result, err := h.service.CleanupStalePendingOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checked": result.Checked, "deleted": result.Deleted})
}
