package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by GatewayService.Forward matches exactly
// one of them with errors.Is.
var (
	// ErrRouteNotFound means no configured prefix matched the request path.
	ErrRouteNotFound = errors.New("route not found")

	// ErrDownstreamUnavailable means the backend could not be reached or did
	// not produce a response in time.
	ErrDownstreamUnavailable = errors.New("downstream unavailable")

	// ErrRelayFailure means the backend responded but its body could not be
	// fully copied to the caller.
	ErrRelayFailure = errors.New("relay failure")
)

// GatewayError describes a failed forwarding step.
type GatewayError struct {
	Op     string // resolve, forward or relay
	Route  string // matched prefix, if any
	Target string // outbound URL, if built
	Kind   error  // one of the Err* kinds above
	Cause  error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Route != "" {
		msg += " route=" + e.Route
	}
	if e.Target != "" {
		msg += " target=" + e.Target
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause, so errors.Is matches either
// ErrDownstreamUnavailable or e.g. context.DeadlineExceeded.
func (e *GatewayError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// NewRelayError wraps a body copy failure for the given route.
func NewRelayError(route string, cause error) *GatewayError {
	return &GatewayError{Op: "relay", Route: route, Kind: ErrRelayFailure, Cause: cause}
}
