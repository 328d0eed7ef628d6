package router

import (
	"fmt"
	"net/http"

	"github.com/avilar/recordatorio-bot/internal/interfaces/api/handler"
	"github.com/avilar/recordatorio-bot/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the dependencies for the router.
type Config struct {
	WebhookHandler *handler.WebhookHandler
	Logger         logger.Logger
}

// NewRouter creates and configures a new Echo router.
func NewRouter(cfg *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cfg.Logger.Info(fmt.Sprintf("REQUEST: method=%s, uri=%s, status=%d, latency=%s, req_id=%s",
				v.Method, v.URI, v.Status, v.Latency, v.RequestID,
			))
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Liveness probe for the hosting platform.
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "✅ Bot WhatsApp activo 🚀")
	})

	e.POST("/twilio/webhook", cfg.WebhookHandler.HandleInbound)

	cfg.Logger.Info("Router initialized with routes.")
	return e
}
