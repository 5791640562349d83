package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"api-gateway-go/internal/config"
	"api-gateway-go/internal/route"
)

func TestAppOptions_Validate(t *testing.T) {
	require.NoError(t, fx.ValidateApp(appOptions(&config.CLI{})))
}

func TestNewMetrics_Disabled(t *testing.T) {
	table, err := route.New(nil)
	require.NoError(t, err)

	assert.Nil(t, newMetrics(&config.Config{}, table))
}

func TestNewEcho_WiresMiddleware(t *testing.T) {
	cfg := &config.Config{
		Server:  config.ServerConfig{BodyMaxBytes: 16},
		Metrics: config.MetricsConfig{Enabled: true, Path: config.DefaultMetricsPath},
	}
	table, err := route.New(nil)
	require.NoError(t, err)
	m := newMetrics(cfg, table)
	require.NotNil(t, m)

	e := newEcho(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), m)
	e.POST("/upload", func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		return err
	})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
