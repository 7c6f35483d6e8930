package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/mipastel/pedidos-backend/internal/authz"
)

// ActorFromRequest returns the authenticated actor seeded by Session.
func ActorFromRequest(r *http.Request) authz.Actor {
	if r == nil {
		return authz.Actor{}
	}
	actor, _ := authz.ActorFrom(r.Context())
	return actor
}

// ClientIP prefers proxy headers and falls back to the peer address.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
