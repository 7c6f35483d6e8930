package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"net/url"
	"time"

	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// Cookie names issued on login.
const (
	CookieSessionToken = "session_token"
	CookieUsername     = "username"
	CookieBranch       = "sucursal"
	CookieRole         = "rol"
)

// Session is the result of a successful login.
type Session struct {
	Username    string       `json:"username"`
	DisplayName string       `json:"nombre"`
	Branch      enums.Branch `json:"sucursal,omitempty"`
	Role        enums.Role   `json:"rol"`
	Token       string       `json:"-"`
	IssuedAt    time.Time    `json:"issued_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// SessionToken is hex(SHA-256(username || secret)). It is stable for a user
// until the secret changes.
func SessionToken(username, secret string) string {
	sum := sha256.Sum256([]byte(username + secret))
	return hex.EncodeToString(sum[:])
}

func tokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// CookieOptions controls the attributes of issued cookies.
type CookieOptions struct {
	MaxAge time.Duration
	Secure bool
}

// SetSessionCookies writes the four session cookies. The branch value is
// path-escaped since branch names carry spaces and accents.
func SetSessionCookies(w http.ResponseWriter, s *Session, opts CookieOptions) {
	maxAge := int(opts.MaxAge.Seconds())
	values := []struct{ name, value string }{
		{CookieSessionToken, s.Token},
		{CookieUsername, s.Username},
		{CookieBranch, url.PathEscape(string(s.Branch))},
		{CookieRole, string(s.Role)},
	}
	for _, v := range values {
		http.SetCookie(w, &http.Cookie{
			Name:     v.name,
			Value:    v.value,
			Path:     "/",
			MaxAge:   maxAge,
			Expires:  s.IssuedAt.Add(opts.MaxAge),
			HttpOnly: true,
			Secure:   opts.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ClearSessionCookies expires every session cookie.
func ClearSessionCookies(w http.ResponseWriter, opts CookieOptions) {
	for _, name := range []string{CookieSessionToken, CookieUsername, CookieBranch, CookieRole} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   opts.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// Credentials extracts username and token from request cookies.
func Credentials(r *http.Request) (username, token string) {
	if c, err := r.Cookie(CookieUsername); err == nil {
		username = c.Value
	}
	if c, err := r.Cookie(CookieSessionToken); err == nil {
		token = c.Value
	}
	return username, token
}
