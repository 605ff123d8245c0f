package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// Key builds the bucket identifier endpoint:method:client.
func Key(endpoint, method, clientAddress string) string {
	return endpoint + ":" + method + ":" + clientAddress
}

// ClientAddress resolves the caller address. Proxy headers are honoured only
// when trustProxy is set; otherwise a client could pick its own bucket.
// Order: first X-Forwarded-For hop, X-Real-IP, then the peer address.
func ClientAddress(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
