package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mipastel/pedidos-backend/api/responses"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy caps POSTs per client IP on an auth endpoint. The
// per-username login throttle still applies behind it.
type AuthRateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, limit: ipLimit}
}

// scope is the counter key for ip, e.g. "ip:login:10.0.0.7".
func (p AuthRateLimitPolicy) scope(ip string) string {
	return fmt.Sprintf("ip:%s:%s", p.name, ip)
}

func (p AuthRateLimitPolicy) retryAfter() string {
	return strconv.Itoa(int(p.window.Seconds()))
}

// AuthRateLimit is a pass-through when the policy is zero or no store is
// configured.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	if store == nil || policy.window <= 0 || policy.limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			ok, hits, err := store.FixedWindowAllow(ctx, policy.scope(ip), int64(policy.limit), policy.window)
			switch {
			case err != nil:
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
			case !ok:
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":   policy.name,
						"ip":       ip,
						"attempts": hits,
						"limit":    policy.limit,
					}), "auth.rate_limited")
				}
				w.Header().Set("Retry-After", policy.retryAfter())
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "demasiadas solicitudes, intente mas tarde"))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
