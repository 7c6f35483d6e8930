package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mipastel/pedidos-backend/internal/audit"
	"github.com/mipastel/pedidos-backend/internal/authz"
	"github.com/mipastel/pedidos-backend/pkg/enums"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/logger"
	"github.com/mipastel/pedidos-backend/pkg/metrics"
	"github.com/mipastel/pedidos-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "usuario o contrasena incorrectos"
	throttledMessage          = "demasiados intentos fallidos, intente mas tarde"
	invalidSessionMessage     = "sesion invalida o expirada"
)

// Service authenticates users and validates sessions.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*Session, error)
	Verify(ctx context.Context, username, token string) (authz.Actor, error)
	Logout(ctx context.Context, actor authz.Actor)
	Lookup(username string) (User, bool)
}

// LoginInput is the submitted login form.
type LoginInput struct {
	Username string
	Password string
	IP       string
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Directory       *Directory
	Throttle        ThrottleStore
	Secret          string
	SessionDuration time.Duration
	Audit           audit.Recorder
	Metrics         *metrics.AuthMetrics
	Logger          *logger.Logger
	Clock           func() time.Time
}

type service struct {
	users    *Directory
	throttle ThrottleStore
	secret   string
	duration time.Duration
	audit    audit.Recorder
	metrics  *metrics.AuthMetrics
	logg     *logger.Logger
	now      func() time.Time
	verify   func(password, hash string) (bool, error)

	dummyOnce sync.Once
	dummyHash string
}

// NewService constructs the auth service.
func NewService(p ServiceParams) (Service, error) {
	if p.Directory == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if p.Throttle == nil {
		return nil, fmt.Errorf("throttle store is required")
	}
	if p.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if p.SessionDuration <= 0 {
		return nil, fmt.Errorf("session duration must be positive")
	}
	if p.Audit == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := p.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		users:    p.Directory,
		throttle: p.Throttle,
		secret:   p.Secret,
		duration: p.SessionDuration,
		audit:    p.Audit,
		metrics:  p.Metrics,
		logg:     logg,
		now:      now,
		verify:   security.VerifyPassword,
	}, nil
}

// Login checks the throttle before touching the user table, so a blocked
// username never reaches hash verification.
func (s *service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{"username": in.Username, "ip": in.IP})

	allowed, err := s.throttle.Allow(ctx, in.Username)
	if err != nil {
		s.logg.Error(ctx, "auth.throttle_unavailable", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "servicio de autenticacion no disponible")
	}
	if !allowed {
		s.fail(ctx, in, "throttled", metrics.LoginThrottled)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, throttledMessage)
	}

	user, ok := s.users.Lookup(in.Username)
	if !ok {
		// Burn comparable time so unknown usernames are not distinguishable.
		_, _ = s.verify(in.Password, s.dummy())
		s.fail(ctx, in, "unknown_user", metrics.LoginFailure)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	match, err := s.verify(in.Password, user.PasswordHash)
	if err != nil {
		s.logg.Error(ctx, "auth.hash_invalid", err)
	}
	if !match {
		s.fail(ctx, in, "invalid_password", metrics.LoginFailure)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	issued := s.now()
	session := &Session{
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Branch:      user.Branch,
		Role:        user.Role,
		Token:       SessionToken(user.Username, s.secret),
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(s.duration),
	}

	details := map[string]any{"rol": string(user.Role)}
	if user.Branch != "" {
		details["sucursal"] = string(user.Branch)
	}
	s.audit.Record(ctx, audit.Event{
		Actor:   user.Username,
		Action:  enums.AuditActionLogin,
		Status:  enums.AuditStatusSuccess,
		Details: details,
		IP:      in.IP,
	})
	s.metrics.IncLogin(metrics.LoginSuccess)
	s.logg.Info(ctx, "auth.login_success")
	return session, nil
}

// Verify recomputes the token and resolves role and branch from the user
// table; cookie-held role and branch are never trusted.
func (s *service) Verify(_ context.Context, username, token string) (authz.Actor, error) {
	if username == "" || token == "" {
		return authz.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidSessionMessage)
	}
	if !tokensEqual(SessionToken(username, s.secret), token) {
		return authz.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidSessionMessage)
	}
	user, ok := s.users.Lookup(username)
	if !ok {
		return authz.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidSessionMessage)
	}
	return authz.Actor{Username: user.Username, Role: user.Role, Branch: user.Branch}, nil
}

func (s *service) Logout(ctx context.Context, actor authz.Actor) {
	s.audit.Record(ctx, audit.Event{
		Actor:  actor.Username,
		Action: enums.AuditActionLogout,
		Status: enums.AuditStatusSuccess,
	})
	s.logg.Info(s.logg.WithField(ctx, "username", actor.Username), "auth.logout")
}

func (s *service) Lookup(username string) (User, bool) {
	return s.users.Lookup(username)
}

func (s *service) fail(ctx context.Context, in LoginInput, reason, outcome string) {
	s.audit.Record(ctx, audit.Event{
		Actor:   in.Username,
		Action:  enums.AuditActionLogin,
		Status:  enums.AuditStatusFailure,
		Details: map[string]any{"reason": reason},
		IP:      in.IP,
	})
	s.metrics.IncLogin(outcome)
	s.logg.Warn(s.logg.WithField(ctx, "reason", reason), "auth.login_failed")
}

func (s *service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := security.HashPassword("mi-pastel-placeholder", 0)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
