package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/DummAir/DummAirApp-sub001/api"
	"github.com/DummAir/DummAirApp-sub001/config"
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Orders        *api.OrderHandler
	Admin         *api.AdminHandler
	Auth          *api.AuthHandler
	Notifications *api.NotificationHandler
	Webhooks      *api.WebhookHandler
	Cron          *api.CronHandler
}

// NewRouter assembles the gin engine with the session middleware layering:
// order routes resolve a session when present, notification routes require
// one, admin routes additionally require the admin role.
func NewRouter(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	jwtSecret := cfg.Secrets.JWTSecret

	public := router.Group("/", api.SessionOptional(jwtSecret))
	h.Orders.Register(public)

	h.Auth.Register(router.Group("/auth"))

	session := router.Group("/", api.RequireSession(jwtSecret))
	h.Notifications.Register(session)

	admin := router.Group("/admin", api.RequireSession(jwtSecret), api.RequireAdmin())
	h.Admin.Register(admin)

	h.Webhooks.Register(router.Group("/webhooks"))
	h.Cron.Register(router.Group("/cron"))

	return router
}

// Run serves HTTP until the context is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, h Handlers) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
