package middleware

import (
	"net/http"

	"github.com/mipastel/pedidos-backend/api/responses"
	"github.com/mipastel/pedidos-backend/internal/authz"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

// RequireAdmin rejects non-admin actors; the denial is audited by the
// authorizer. It must run after Session.
func RequireAdmin(az *authz.Authorizer, action, resource string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := az.RequireAdmin(r.Context(), ActorFromRequest(r), action, resource); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
