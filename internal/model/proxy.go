// Package model defines shared types for the gateway.
package model

import (
	"context"
	"io"
	"net/http"
)

// ProxyRequest is a borrowed view of an inbound request to be forwarded.
// It must not be retained after the inbound request completes.
type ProxyRequest struct {
	Ctx      context.Context
	Method   string
	Path     string // decoded URL path, used for route matching
	RawPath  string // escaped form of Path; empty when Path needs no escaping
	RawQuery string // forwarded verbatim
	Header   http.Header
	// ContentLength follows http.Request: -1 means unknown, 0 means no body.
	ContentLength int64
	Body          io.ReadCloser
}

// ProxyResponse is the backend response to be relayed back to the caller.
// Route is the prefix that selected the backend.
type ProxyResponse struct {
	Route      string
	StatusCode int
	Header     http.Header
	// ContentLength is -1 when the backend did not declare a length.
	ContentLength int64
	Body          io.ReadCloser
}

// HasBody reports whether the request declares a body worth forwarding.
func (r *ProxyRequest) HasBody() bool {
	return r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody
}
