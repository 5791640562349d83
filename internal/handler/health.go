package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"api-gateway-go/internal/service"
)

// Version is a string type for dependency injection of the build version.
type Version string

// routeStatus is one entry of the status endpoint's route list.
type routeStatus struct {
	Prefix  string `json:"prefix"`
	Backend string `json:"backend"`
}

type statusResponse struct {
	Status        string        `json:"status"`
	Version       string        `json:"version"`
	RewritePolicy string        `json:"rewrite_policy"`
	Routes        []routeStatus `json:"routes"`
}

// HealthHandler serves liveness, banner and status endpoints. None of them
// contact a backend.
type HealthHandler struct {
	service *service.GatewayService
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(svc *service.GatewayService, v Version) *HealthHandler {
	return &HealthHandler{service: svc, version: v}
}

// Health returns a plain "OK" for liveness checks.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Root returns the gateway banner.
func (h *HealthHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "API Gateway is running...")
}

// Status returns the gateway version and its route table.
func (h *HealthHandler) Status(c echo.Context) error {
	routes := h.service.Routes()
	out := statusResponse{
		Status:        "ok",
		Version:       string(h.version),
		RewritePolicy: string(h.service.Policy()),
		Routes:        make([]routeStatus, 0, len(routes)),
	}
	for _, r := range routes {
		out.Routes = append(out.Routes, routeStatus{
			Prefix:  r.Prefix,
			Backend: r.Backend.Redacted(),
		})
	}
	return c.JSON(http.StatusOK, out)
}
