package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mipastel/pedidos-backend/internal/audit"
	"github.com/mipastel/pedidos-backend/internal/authz"
	"github.com/mipastel/pedidos-backend/pkg/enums"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/security"
)

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Record(_ context.Context, ev audit.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingAudit) count(action enums.AuditAction, status enums.AuditStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Action == action && ev.Status == status {
			n++
		}
	}
	return n
}

func cheapHash(t *testing.T, password string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

type harness struct {
	svc      *service
	audit    *recordingAudit
	clock    *fakeClock
	verifies int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	creds := []Credential{
		{Username: "jutiapa1", DisplayName: "Sucursal Jutiapa 1", Branch: enums.BranchJutiapa1, Role: enums.RoleOperator},
		{Username: AdminUsername, DisplayName: "Administrador", Role: enums.RoleAdmin},
	}
	dir := NewDirectory(creds, map[string]string{
		"jutiapa1":    cheapHash(t, "jut1pass"),
		AdminUsername: cheapHash(t, "admin123"),
	})

	h := &harness{audit: &recordingAudit{}, clock: newClock()}
	svc, err := NewService(ServiceParams{
		Directory:       dir,
		Throttle:        NewMemoryThrottle(ThrottlePolicy{MaxAttempts: 5, Window: 300 * time.Second}, h.clock.Now),
		Secret:          "test-secret",
		SessionDuration: 8 * time.Hour,
		Audit:           h.audit,
		Clock:           h.clock.Now,
	})
	require.NoError(t, err)
	h.svc = svc.(*service)
	h.svc.dummyHash = cheapHash(t, "placeholder")
	h.svc.dummyOnce.Do(func() {})
	h.svc.verify = func(password, hash string) (bool, error) {
		h.verifies++
		return security.VerifyPassword(password, hash)
	}
	return h
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Directory: NewDirectory(nil, nil), Throttle: NewMemoryThrottle(ThrottlePolicy{}, nil), Secret: "x"})
	assert.Error(t, err, "session duration is required")
}

func TestLoginSuccessIssuesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	s, err := h.svc.Login(ctx, LoginInput{Username: "jutiapa1", Password: "jut1pass", IP: "10.0.0.5"})
	require.NoError(t, err)
	assert.Equal(t, "jutiapa1", s.Username)
	assert.Equal(t, enums.BranchJutiapa1, s.Branch)
	assert.Equal(t, enums.RoleOperator, s.Role)
	assert.Equal(t, SessionToken("jutiapa1", "test-secret"), s.Token)
	assert.Equal(t, h.clock.Now().Add(8*time.Hour), s.ExpiresAt)

	require.Len(t, h.audit.events, 1)
	ev := h.audit.events[0]
	assert.Equal(t, enums.AuditActionLogin, ev.Action)
	assert.Equal(t, enums.AuditStatusSuccess, ev.Status)
	assert.Equal(t, "10.0.0.5", ev.IP)
	assert.Equal(t, "Jutiapa 1", ev.Details["sucursal"])
}

func TestLoginThrottlesAfterFiveFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := h.svc.Login(ctx, LoginInput{Username: "admin", Password: "wrong"})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
		assert.Equal(t, invalidCredentialsMessage, pkgerrors.As(err).Message())
	}
	assert.Equal(t, 5, h.verifies)

	_, err := h.svc.Login(ctx, LoginInput{Username: "admin", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, throttledMessage, pkgerrors.As(err).Message())
	assert.Equal(t, 5, h.verifies, "blocked attempt never reaches hash verification")
	assert.Equal(t, 6, h.audit.count(enums.AuditActionLogin, enums.AuditStatusFailure))

	// Still blocked with the right password inside the window.
	_, err = h.svc.Login(ctx, LoginInput{Username: "admin", Password: "admin123"})
	require.Error(t, err)

	h.clock.Advance(301 * time.Second)
	s, err := h.svc.Login(ctx, LoginInput{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, enums.RoleAdmin, s.Role)
	assert.Empty(t, s.Branch)
}

func TestLoginUnknownUserStillVerifies(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Login(context.Background(), LoginInput{Username: "nadie", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, invalidCredentialsMessage, pkgerrors.As(err).Message())
	assert.Equal(t, 1, h.verifies)
	require.Len(t, h.audit.events, 1)
	assert.Equal(t, "unknown_user", h.audit.events[0].Details["reason"])
}

func TestSuccessfulLoginStillCountsTowardThrottle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = h.svc.Login(ctx, LoginInput{Username: "jutiapa1", Password: "nope"})
	}
	_, err := h.svc.Login(ctx, LoginInput{Username: "jutiapa1", Password: "jut1pass"})
	require.NoError(t, err)

	_, err = h.svc.Login(ctx, LoginInput{Username: "jutiapa1", Password: "jut1pass"})
	require.Error(t, err)
	assert.Equal(t, throttledMessage, pkgerrors.As(err).Message())

	h.clock.Advance(301 * time.Second)
	_, err = h.svc.Login(ctx, LoginInput{Username: "jutiapa1", Password: "jut1pass"})
	assert.NoError(t, err)
}

func TestVerify(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	actor, err := h.svc.Verify(ctx, "jutiapa1", SessionToken("jutiapa1", "test-secret"))
	require.NoError(t, err)
	assert.Equal(t, "jutiapa1", actor.Username)
	assert.Equal(t, enums.BranchJutiapa1, actor.Branch)
	assert.False(t, actor.IsAdmin())

	_, err = h.svc.Verify(ctx, "jutiapa1", SessionToken("admin", "test-secret"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = h.svc.Verify(ctx, "fantasma", SessionToken("fantasma", "test-secret"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = h.svc.Verify(ctx, "", "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLogoutAudits(t *testing.T) {
	h := newHarness(t)
	h.svc.Logout(context.Background(), authz.Actor{Username: "admin", Role: enums.RoleAdmin})
	assert.Equal(t, 1, h.audit.count(enums.AuditActionLogout, enums.AuditStatusSuccess))
}
