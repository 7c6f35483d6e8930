package middleware

import (
	"context"
	"net/http"

	"github.com/mipastel/pedidos-backend/api/responses"
	"github.com/mipastel/pedidos-backend/internal/audit"
	"github.com/mipastel/pedidos-backend/internal/auth"
	"github.com/mipastel/pedidos-backend/internal/authz"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

// SessionVerifier resolves cookie credentials into an actor.
type SessionVerifier interface {
	Verify(ctx context.Context, username, token string) (authz.Actor, error)
}

// Session validates the session cookies and seeds the request context with
// the actor and client IP. Role and branch come from the verifier, never from
// the informational cookies.
func Session(verifier SessionVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := audit.WithIP(r.Context(), ClientIP(r))
			if verifier == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
				return
			}

			username, token := auth.Credentials(r)
			if username == "" || token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sesion requerida"))
				return
			}

			actor, err := verifier.Verify(ctx, username, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = authz.WithActor(ctx, actor)
			if logg != nil {
				ctx = logg.WithUsername(ctx, actor.Username)
				ctx = logg.WithActorRole(ctx, string(actor.Role))
				if actor.Branch != "" {
					ctx = logg.WithBranch(ctx, string(actor.Branch))
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
