package clientip

import (
	"net"
	"strings"

	"github.com/dmitrymomot/soloweb/core/request"
)

// Headers checked before RemoteAddr, most trusted first.
var proxyHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP returns the client address of req.
func GetIP(req *request.Request) string {
	for _, h := range proxyHeaders {
		v := req.Header.Get(h)
		if v == "" {
			continue
		}
		// X-Forwarded-For is "client, proxy1, proxy2".
		first, _, _ := strings.Cut(v, ",")
		if ip := normalize(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	if ip := normalize(host); ip != "" {
		return ip
	}
	return req.RemoteAddr
}

func normalize(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil || ip.Equal(net.IPv4zero) {
		return ""
	}
	return ip.String()
}
