// Package service implements route resolution and request forwarding.
package service

import (
	"io"
	"log/slog"
	"net/http"

	"api-gateway-go/internal/client"
	"api-gateway-go/internal/config"
	"api-gateway-go/internal/model"
	"api-gateway-go/internal/route"
)

const userAgent = "api-gateway-go/1.0"

// GatewayService resolves inbound requests against the route table and
// forwards them to the selected backend. It is immutable after construction
// and safe for concurrent use.
type GatewayService struct {
	client         *client.BackendClient
	routes         *route.Table
	policy         route.RewritePolicy
	forwardHeaders []string
	logger         *slog.Logger
}

// NewGatewayService creates a GatewayService.
func NewGatewayService(c *client.BackendClient, routes *route.Table, cfg *config.Config, logger *slog.Logger) *GatewayService {
	headers := make([]string, 0, len(cfg.Upstream.ForwardHeaders))
	for _, h := range cfg.Upstream.ForwardHeaders {
		if model.IsHopByHop(h) {
			continue
		}
		headers = append(headers, http.CanonicalHeaderKey(h))
	}

	return &GatewayService{
		client:         c,
		routes:         routes,
		policy:         cfg.Upstream.Policy(),
		forwardHeaders: headers,
		logger:         logger.With("component", "gateway_service"),
	}
}

// Routes returns the route table in match order.
func (s *GatewayService) Routes() []route.Route {
	return s.routes.Routes()
}

// Policy returns the path rewrite policy in effect.
func (s *GatewayService) Policy() route.RewritePolicy {
	return s.policy
}

// Resolve returns the route for path, or an error matching ErrRouteNotFound.
func (s *GatewayService) Resolve(path string) (route.Route, error) {
	r, ok := s.routes.Resolve(path)
	if !ok {
		return route.Route{}, &GatewayError{Op: "resolve", Kind: ErrRouteNotFound}
	}
	return r, nil
}

// Forward sends a ProxyRequest to the backend selected by its path and
// returns the response. The caller is responsible for closing the response body.
//
// Only the method, rewritten URL and body are forwarded, plus the request
// headers named in upstream.forward_headers. No outbound call is made when no
// route matches.
func (s *GatewayService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	r, err := s.Resolve(pr.Path)
	if err != nil {
		return nil, err
	}

	target := s.policy.Target(r, pr.Path, pr.RawPath, pr.RawQuery)
	header := s.filterRequestHeaders(pr.Header)

	var body io.Reader
	var length int64
	if pr.HasBody() {
		body = pr.Body
		length = pr.ContentLength
	}

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"path", pr.Path,
		"route", r.Prefix,
		"target", target.Redacted(),
	)

	resp, err := s.client.DoStream(pr.Ctx, r.Prefix, pr.Method, target.String(), header, body, length)
	if err != nil {
		return nil, &GatewayError{
			Op:     "forward",
			Route:  r.Prefix,
			Target: target.Redacted(),
			Kind:   ErrDownstreamUnavailable,
			Cause:  err,
		}
	}

	return resp, nil
}

func (s *GatewayService) filterRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(s.forwardHeaders)+1)
	for _, key := range s.forwardHeaders {
		if vals := src.Values(key); len(vals) > 0 {
			dst[key] = append([]string(nil), vals...)
		}
	}
	if _, ok := dst["User-Agent"]; !ok {
		dst.Set("User-Agent", userAgent)
	}
	return dst
}
