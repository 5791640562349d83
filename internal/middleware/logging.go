// Package middleware provides Echo middleware for logging, metrics and
// response hardening.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"api-gateway-go/internal/model"
)

// RequestLogger returns an Echo middleware that logs each request with slog.
// Proxied requests also carry the matched route prefix.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"remote_ip", c.RealIP(),
				"bytes_out", res.Size,
			}
			if r, ok := c.Get(model.RouteContextKey).(string); ok {
				attrs = append(attrs, "route", r)
			}
			if err != nil {
				attrs = append(attrs, "err", err)
			}

			logger.Info("request", attrs...)

			return err
		}
	}
}
