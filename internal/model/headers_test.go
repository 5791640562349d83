package model

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHopByHop(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Connection", true},
		{"keep-alive", true},
		{"TE", true},
		{"transfer-encoding", true},
		{"Content-Type", false},
		{"X-Request-Id", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHopByHop(tt.name))
		})
	}
}

func TestConnectionTokens(t *testing.T) {
	h := http.Header{}
	h.Add("Connection", "keep-alive, x-trace-hop")
	h.Add("Connection", " Close ,,x-other")

	assert.Equal(t, map[string]bool{
		"Keep-Alive":  true,
		"X-Trace-Hop": true,
		"Close":       true,
		"X-Other":     true,
	}, ConnectionTokens(h))

	assert.Empty(t, ConnectionTokens(http.Header{}))
}

func TestRemoveHopByHop(t *testing.T) {
	h := http.Header{
		"Connection":        {"X-Trace-Hop"},
		"X-Trace-Hop":       {"1"},
		"Upgrade":           {"websocket"},
		"Transfer-Encoding": {"chunked"},
		"Content-Type":      {"application/json"},
		"X-Request-Id":      {"abc"},
	}

	RemoveHopByHop(h)

	assert.Equal(t, http.Header{
		"Content-Type": {"application/json"},
		"X-Request-Id": {"abc"},
	}, h)
}
