package controllers

import (
	"net/http"
	"strings"

	"github.com/mipastel/pedidos-backend/api/middleware"
	"github.com/mipastel/pedidos-backend/api/responses"
	"github.com/mipastel/pedidos-backend/internal/audit"
	"github.com/mipastel/pedidos-backend/internal/auth"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

type loginFailure struct {
	Authenticated bool   `json:"authenticated"`
	Error         string `json:"error"`
}

// AuthLogin handles the login form. Bad credentials and throttling answer 200
// with authenticated=false so the login page can render the message; success
// sets the session cookies and redirects home.
func AuthLogin(svc auth.Service, cookies auth.CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := middleware.ClientIP(r)
		ctx := audit.WithIP(r.Context(), ip)
		if err := r.ParseForm(); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "formulario invalido"))
			return
		}

		username := strings.TrimSpace(r.PostFormValue("username"))
		password := r.PostFormValue("password")
		if username == "" || password == "" {
			responses.WriteSuccess(w, loginFailure{Error: "usuario y contrasena son requeridos"})
			return
		}

		session, err := svc.Login(ctx, auth.LoginInput{Username: username, Password: password, IP: ip})
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				responses.WriteSuccess(w, loginFailure{Error: pkgerrors.As(err).Message()})
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		auth.SetSessionCookies(w, session, cookies)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// AuthLogout audits when the cookies still carry a valid session, then
// clears them either way.
func AuthLogout(svc auth.Service, cookies auth.CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithIP(r.Context(), middleware.ClientIP(r))
		if username, token := auth.Credentials(r); username != "" && token != "" {
			if actor, err := svc.Verify(ctx, username, token); err == nil {
				svc.Logout(ctx, actor)
			} else if logg != nil {
				logg.Debug(logg.WithField(ctx, "username", username), "auth.logout_without_session")
			}
		}
		auth.ClearSessionCookies(w, cookies)
		http.Redirect(w, r, "/login", http.StatusFound)
	}
}
