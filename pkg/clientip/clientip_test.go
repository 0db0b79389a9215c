package clientip_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.0.2.10:5123",
			want:       "192.0.2.10",
		},
		{
			name:       "cloudflare wins over everything",
			headers:    map[string]string{"CF-Connecting-IP": "203.0.113.1", "X-Forwarded-For": "198.51.100.1", "X-Real-IP": "198.51.100.2"},
			remoteAddr: "10.0.0.1:80",
			want:       "203.0.113.1",
		},
		{
			name:       "digitalocean before forwarded-for",
			headers:    map[string]string{"DO-Connecting-IP": "203.0.113.2", "X-Forwarded-For": "198.51.100.1"},
			remoteAddr: "10.0.0.1:80",
			want:       "203.0.113.2",
		},
		{
			name:       "leftmost forwarded-for entry",
			headers:    map[string]string{"X-Forwarded-For": " 198.51.100.7 , 10.0.0.2, 10.0.0.3"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.7",
		},
		{
			name:       "real ip header",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.9",
		},
		{
			name:       "invalid header falls through",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip", "X-Real-IP": "198.51.100.9"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.9",
		},
		{
			name:       "unspecified address rejected",
			headers:    map[string]string{"CF-Connecting-IP": "0.0.0.0"},
			remoteAddr: "10.0.0.1:80",
			want:       "10.0.0.1",
		},
		{
			name:       "ipv6 normalized",
			headers:    map[string]string{"X-Real-IP": "2001:DB8:0:0::1"},
			remoteAddr: "10.0.0.1:80",
			want:       "2001:db8::1",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[::1]:443",
			want:       "::1",
		},
		{
			name:       "unparseable remote addr returned as is",
			remoteAddr: "pipe",
			want:       "pipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := make(http.Header)
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			req, err := request.New(http.MethodGet, "/", h, nil)
			require.NoError(t, err)
			req.RemoteAddr = tt.remoteAddr

			assert.Equal(t, tt.want, clientip.GetIP(req))
		})
	}
}
