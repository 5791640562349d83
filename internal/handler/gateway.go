package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"api-gateway-go/internal/metrics"
	"api-gateway-go/internal/model"
	"api-gateway-go/internal/service"
)

// maxDrainBytes bounds how much of an unread backend body is discarded
// before closing, so the connection can return to the pool.
const maxDrainBytes = 64 << 10

// GatewayHandler forwards inbound requests to the backend selected by the
// route table and relays the response back unchanged.
type GatewayHandler struct {
	service *service.GatewayService
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewGatewayHandler creates a GatewayHandler. m may be nil.
func NewGatewayHandler(svc *service.GatewayService, logger *slog.Logger, m *metrics.Metrics) *GatewayHandler {
	return &GatewayHandler{
		service: svc,
		logger:  logger.With("component", "gateway_handler"),
		metrics: m,
	}
}

// Handle proxies the request to its backend and streams the response back.
func (h *GatewayHandler) Handle(c echo.Context) error {
	req := c.Request()

	pr := &model.ProxyRequest{
		Ctx:           req.Context(),
		Method:        req.Method,
		Path:          req.URL.Path,
		RawPath:       req.URL.RawPath,
		RawQuery:      req.URL.RawQuery,
		Header:        req.Header,
		ContentLength: req.ContentLength,
		Body:          req.Body,
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.mapError(c, err)
	}
	c.Set(model.RouteContextKey, resp.Route)

	h.relay(c, resp)
	return nil
}

// relay copies status, headers and body of resp to the caller. Once the
// status line is written a failed copy can only truncate the response, so
// the failure is logged and counted instead of returned.
func (h *GatewayHandler) relay(c echo.Context, resp *model.ProxyResponse) {
	defer drainAndClose(resp.Body)

	dst := c.Response().Header()
	listed := model.ConnectionTokens(resp.Header)
	for key, vals := range resp.Header {
		if model.IsHopByHop(key) || listed[key] {
			continue
		}
		dst.Del(key)
		for _, v := range vals {
			dst.Add(key, v)
		}
	}
	if _, ok := resp.Header["Content-Type"]; !ok {
		// Suppress net/http content sniffing.
		dst["Content-Type"] = nil
	}

	c.Response().WriteHeader(resp.StatusCode)

	var w io.Writer = c.Response()
	if streaming(resp) {
		fw := &flushWriter{w: c.Response(), rc: http.NewResponseController(c.Response().Writer)}
		_ = fw.rc.Flush()
		w = fw
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("relaying response body",
			"err", service.NewRelayError(resp.Route, err),
			"path", c.Request().URL.Path,
		)
		if h.metrics != nil {
			h.metrics.RelayFailures.WithLabelValues(resp.Route).Inc()
		}
	}
}

// streaming reports whether resp should reach the caller as it arrives:
// event streams and bodies of undeclared length.
func streaming(resp *model.ProxyResponse) bool {
	if resp.ContentLength == -1 {
		return true
	}
	ct := resp.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "text/event-stream")
}

// flushWriter flushes after every write.
type flushWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err != nil {
		return n, err
	}
	if err := f.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return n, err
	}
	return n, nil
}

func (h *GatewayHandler) mapError(c echo.Context, err error) error {
	path := c.Request().URL.Path

	if errors.Is(err, service.ErrRouteNotFound) {
		h.logger.Debug("no route", "path", path)
		return c.String(http.StatusNotFound, "Service not found")
	}

	h.logger.Error("gateway error", "err", err, "path", path)

	if isTimeout(err) {
		return c.String(http.StatusGatewayTimeout, "upstream request timed out")
	}

	if errors.Is(err, context.Canceled) {
		return c.String(http.StatusBadGateway, "client disconnected")
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return c.String(http.StatusBadGateway, "upstream host unreachable")
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return c.String(http.StatusBadGateway, "upstream connection failed")
	}

	return c.String(http.StatusBadGateway, "upstream request failed")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.CopyN(io.Discard, body, maxDrainBytes)
	_ = body.Close()
}
