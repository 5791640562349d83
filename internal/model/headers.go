package model

import (
	"net/http"
	"strings"
)

// hopByHopHeaders are connection-scoped headers that a proxy must not forward
// in either direction (RFC 9110 section 7.6.1).
var hopByHopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Proxy-Connection":    true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// IsHopByHop reports whether the header name is connection-scoped.
func IsHopByHop(name string) bool {
	return hopByHopHeaders[http.CanonicalHeaderKey(name)]
}

// ConnectionTokens returns the canonical header names that h's Connection
// header declares as connection-scoped for this hop.
func ConnectionTokens(h http.Header) map[string]bool {
	tokens := make(map[string]bool)
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				tokens[http.CanonicalHeaderKey(name)] = true
			}
		}
	}
	return tokens
}

// RemoveHopByHop deletes the fixed hop-by-hop headers from h, plus any header
// named in its Connection header.
func RemoveHopByHop(h http.Header) {
	for name := range ConnectionTokens(h) {
		h.Del(name)
	}
	for name := range hopByHopHeaders {
		h.Del(name)
	}
}
