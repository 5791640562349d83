package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"api-gateway-go/internal/config"
)

// RegisterRoutes wires all route handlers onto the Echo instance. Static
// gateway endpoints take precedence over the catch-all proxy route.
// metricsHandler may be nil when metrics are disabled.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, gateway *GatewayHandler, health *HealthHandler, metricsHandler http.Handler) {
	e.GET(config.HealthPath, health.Health)
	e.GET(config.StatusPath, health.Status)
	e.GET("/", health.Root)

	if metricsHandler != nil && cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(metricsHandler))
	}

	e.Any("/*", gateway.Handle)
}
