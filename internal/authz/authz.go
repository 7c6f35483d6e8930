package authz

import (
	"context"
	"fmt"

	"github.com/mipastel/pedidos-backend/internal/audit"
	"github.com/mipastel/pedidos-backend/pkg/enums"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/logger"
	"github.com/mipastel/pedidos-backend/pkg/metrics"
)

// Actor is the authenticated caller. Branch is empty for admins.
type Actor struct {
	Username string
	Role     enums.Role
	Branch   enums.Branch
}

// IsAdmin reports whether the actor spans all branches.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

type actorKey struct{}

// WithActor seeds the actor into ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && actor.Username != ""
}

// Params wires an Authorizer.
type Params struct {
	Audit   audit.Recorder
	Metrics *metrics.AuthMetrics
	Logger  *logger.Logger
}

// Authorizer applies the role and branch rules and audits every denial.
type Authorizer struct {
	audit   audit.Recorder
	metrics *metrics.AuthMetrics
	logg    *logger.Logger
}

// New builds an Authorizer.
func New(p Params) (*Authorizer, error) {
	if p.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Authorizer{audit: p.Audit, metrics: p.Metrics, logg: logg}, nil
}

// RequireBranch passes admins and operators acting on their own branch.
func (a *Authorizer) RequireBranch(ctx context.Context, actor Actor, branch enums.Branch, action, resource string) error {
	if actor.Username == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sesion requerida")
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.Branch != "" && actor.Branch == branch {
		return nil
	}
	return a.deny(ctx, actor, action, resource, branch, "branch_mismatch",
		fmt.Sprintf("sin permiso para la sucursal %s", branch))
}

// ScopeBranch resolves the branch filter for a read. Operators are pinned to
// their own branch; admins get what they asked for, or no filter. An empty
// result means "all branches".
func (a *Authorizer) ScopeBranch(ctx context.Context, actor Actor, requested, action, resource string) (enums.Branch, error) {
	if actor.Username == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "sesion requerida")
	}
	if actor.IsAdmin() {
		if enums.IsAllBranches(requested) {
			return "", nil
		}
		branch, err := enums.ParseBranch(requested)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "sucursal invalida").
				WithDetails(map[string]any{"field": "sucursal"})
		}
		return branch, nil
	}

	if actor.Branch == "" {
		return "", a.deny(ctx, actor, action, resource, enums.Branch(requested), "operator_without_branch", "usuario sin sucursal asignada")
	}
	if enums.IsAllBranches(requested) || enums.Branch(requested) == actor.Branch {
		return actor.Branch, nil
	}
	return "", a.deny(ctx, actor, action, resource, enums.Branch(requested), "branch_mismatch",
		fmt.Sprintf("sin permiso para la sucursal %s", requested))
}

// RequireAdmin rejects non-admin actors.
func (a *Authorizer) RequireAdmin(ctx context.Context, actor Actor, action, resource string) error {
	if actor.Username == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sesion requerida")
	}
	if actor.IsAdmin() {
		return nil
	}
	return a.deny(ctx, actor, action, resource, "", "admin_required", "se requiere rol de administrador")
}

func (a *Authorizer) deny(ctx context.Context, actor Actor, action, resource string, branch enums.Branch, reason, message string) error {
	details := map[string]any{
		"attempted_action": action,
		"resource":         resource,
		"reason":           reason,
	}
	if branch != "" {
		details["sucursal"] = string(branch)
	}
	a.audit.Record(ctx, audit.Event{
		Actor:    actor.Username,
		Action:   enums.AuditActionPermissionDenied,
		Status:   enums.AuditStatusDenied,
		Resource: resource,
		Details:  details,
	})
	a.metrics.IncDenied(resource)
	a.logg.Warn(a.logg.WithFields(ctx, map[string]any{
		"username": actor.Username,
		"action":   action,
		"resource": resource,
		"reason":   reason,
	}), "authz.denied")
	return pkgerrors.New(pkgerrors.CodeForbidden, message)
}
