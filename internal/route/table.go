// Package route holds the gateway's static prefix-to-backend route table.
package route

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidRoute is returned by New when a route entry cannot be used.
var ErrInvalidRoute = errors.New("invalid route")

// Route maps a path prefix to a backend base URL.
type Route struct {
	Prefix  string
	Backend *url.URL
}

// Table is an ordered, immutable list of routes. It is built once at start-up
// and shared by all request goroutines without locking.
type Table struct {
	routes []Route
}

// New validates and normalizes routes into a Table. Prefixes must start with
// "/", must not be "/" alone, and must not overlap at a segment boundary, so
// that the first-match scan in Resolve is deterministic.
func New(routes []Route) (*Table, error) {
	t := &Table{routes: make([]Route, 0, len(routes))}

	for i, r := range routes {
		prefix, err := normalizePrefix(r.Prefix)
		if err != nil {
			return nil, fmt.Errorf("%w: routes[%d]: %w", ErrInvalidRoute, i, err)
		}
		if r.Backend == nil || !r.Backend.IsAbs() || r.Backend.Host == "" {
			return nil, fmt.Errorf("%w: routes[%d]: backend for %q must be an absolute URL", ErrInvalidRoute, i, prefix)
		}

		for _, existing := range t.routes {
			if Match(existing.Prefix, prefix) || Match(prefix, existing.Prefix) {
				return nil, fmt.Errorf("%w: routes[%d]: prefix %q overlaps %q", ErrInvalidRoute, i, prefix, existing.Prefix)
			}
		}

		backend := *r.Backend
		t.routes = append(t.routes, Route{Prefix: prefix, Backend: &backend})
	}

	return t, nil
}

// Resolve returns the first route whose prefix matches path. Only the URL
// path is considered; callers must not include the query string.
func (t *Table) Resolve(path string) (Route, bool) {
	for _, r := range t.routes {
		if Match(r.Prefix, path) {
			return r, true
		}
	}
	return Route{}, false
}

// Routes returns a copy of the table in match order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Prefixes returns the configured prefixes in match order.
func (t *Table) Prefixes() []string {
	out := make([]string, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r.Prefix)
	}
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Match reports whether path falls under prefix at a segment boundary:
// "/orders" matches "/orders" and "/orders/1" but not "/ordersXYZ".
func Match(prefix, path string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	return strings.HasSuffix(prefix, "/") || path[len(prefix)] == '/'
}

func normalizePrefix(prefix string) (string, error) {
	if prefix == "" || prefix[0] != '/' {
		return "", fmt.Errorf("prefix %q must start with '/'", prefix)
	}
	if strings.ContainsAny(prefix, "?#") {
		return "", fmt.Errorf("prefix %q must not contain a query or fragment", prefix)
	}
	trimmed := strings.TrimRight(prefix, "/")
	if trimmed == "" {
		return "", fmt.Errorf("prefix %q would shadow every path", prefix)
	}
	return trimmed, nil
}
