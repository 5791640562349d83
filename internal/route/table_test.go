package route

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func defaultTable(t *testing.T) *Table {
	t.Helper()
	table, err := New([]Route{
		{Prefix: "/orders", Backend: mustURL(t, "http://order-service:80")},
		{Prefix: "/payments", Backend: mustURL(t, "http://payment-service:80")},
		{Prefix: "/notifications", Backend: mustURL(t, "http://notification-service:80")},
	})
	require.NoError(t, err)
	return table
}

func TestMatch(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   bool
	}{
		{"/orders", "/orders", true},
		{"/orders", "/orders/", true},
		{"/orders", "/orders/123", true},
		{"/orders", "/orders/123/items", true},
		{"/orders", "/ordersXYZ", false},
		{"/orders", "/orders-archive/1", false},
		{"/orders", "/order", false},
		{"/orders", "/", false},
		{"/orders", "", false},
		{"/orders", "/payments/orders", false},
		{"/api/", "/api/v1", true},
		{"/api/v1", "/api/v1/orders", true},
	}

	for _, tt := range tests {
		t.Run(tt.prefix+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.prefix, tt.path))
		})
	}
}

func TestTable_Resolve(t *testing.T) {
	table := defaultTable(t)

	tests := []struct {
		path        string
		wantMatched bool
		wantHost    string
	}{
		{"/orders", true, "order-service:80"},
		{"/orders/42", true, "order-service:80"},
		{"/payments/7/refund", true, "payment-service:80"},
		{"/notifications/", true, "notification-service:80"},
		{"/ordersXYZ", false, ""},
		{"/inventory/1", false, ""},
		{"/health", false, ""},
		{"/", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, ok := table.Resolve(tt.path)
			require.Equal(t, tt.wantMatched, ok)
			if ok {
				assert.Equal(t, tt.wantHost, r.Backend.Host)
			}
		})
	}
}

func TestNew_NormalizesTrailingSlash(t *testing.T) {
	table, err := New([]Route{
		{Prefix: "/orders/", Backend: mustURL(t, "http://order-service")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/orders"}, table.Prefixes())
	_, ok := table.Resolve("/orders")
	assert.True(t, ok)
}

func TestNew_Rejects(t *testing.T) {
	backend := mustURL(t, "http://svc")

	tests := []struct {
		name   string
		routes []Route
	}{
		{"empty prefix", []Route{{Prefix: "", Backend: backend}}},
		{"relative prefix", []Route{{Prefix: "orders", Backend: backend}}},
		{"root prefix", []Route{{Prefix: "/", Backend: backend}}},
		{"query in prefix", []Route{{Prefix: "/orders?x=1", Backend: backend}}},
		{"nil backend", []Route{{Prefix: "/orders"}}},
		{"relative backend", []Route{{Prefix: "/orders", Backend: &url.URL{Path: "/svc"}}}},
		{"duplicate", []Route{
			{Prefix: "/orders", Backend: backend},
			{Prefix: "/orders/", Backend: backend},
		}},
		{"nested", []Route{
			{Prefix: "/api", Backend: backend},
			{Prefix: "/api/orders", Backend: backend},
		}},
		{"nested reversed", []Route{
			{Prefix: "/api/orders", Backend: backend},
			{Prefix: "/api", Backend: backend},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.routes)
			require.ErrorIs(t, err, ErrInvalidRoute)
		})
	}
}

func TestNew_SiblingPrefixesAllowed(t *testing.T) {
	backend := mustURL(t, "http://svc")
	table, err := New([]Route{
		{Prefix: "/orders", Backend: backend},
		{Prefix: "/orders-archive", Backend: backend},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestTable_RoutesIsCopy(t *testing.T) {
	table := defaultTable(t)

	routes := table.Routes()
	routes[0].Prefix = "/mutated"

	assert.Equal(t, "/orders", table.Routes()[0].Prefix)
}

func TestNew_CopiesBackendURL(t *testing.T) {
	backend := mustURL(t, "http://order-service")
	table, err := New([]Route{{Prefix: "/orders", Backend: backend}})
	require.NoError(t, err)

	backend.Host = "mutated"

	r, ok := table.Resolve("/orders/1")
	require.True(t, ok)
	assert.Equal(t, "order-service", r.Backend.Host)
}
