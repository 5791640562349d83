package middleware

import (
	"github.com/labstack/echo/v4"

	"api-gateway-go/internal/model"
)

// SecurityHeaders returns an Echo middleware that strips hop-by-hop headers
// from the inbound request and sets default security headers on the response.
// The defaults are set before the handler runs, so a relayed backend response
// that sends its own values replaces them.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			model.RemoveHopByHop(c.Request().Header)

			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")

			return next(c)
		}
	}
}
