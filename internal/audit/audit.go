package audit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mipastel/pedidos-backend/pkg/enums"
	"github.com/mipastel/pedidos-backend/pkg/logger"
	"github.com/mipastel/pedidos-backend/pkg/metrics"
)

const anonymousActor = "anonymous"

// Event is one audit record.
type Event struct {
	Actor      string
	Action     enums.AuditAction
	Status     enums.AuditStatus
	Resource   string
	ResourceID int64
	Details    map[string]any
	IP         string
}

type ipKey struct{}

// WithIP stores the client address used for events recorded under ctx.
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

// IPFrom returns the client address stored by WithIP.
func IPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey{}).(string)
	return ip
}

// Recorder appends audit events. Implementations never fail the caller.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// Params wires an audit Log.
type Params struct {
	Writer  io.Writer
	Logger  *logger.Logger
	Metrics *metrics.AuditMetrics
	Clock   func() time.Time
}

// Log writes JSON lines to a single writer, one append per event.
type Log struct {
	mu      sync.Mutex
	out     io.Writer
	logg    *logger.Logger
	metrics *metrics.AuditMetrics
	now     func() time.Time
}

// New returns a Log over the provided writer.
func New(p Params) (*Log, error) {
	if p.Writer == nil {
		return nil, fmt.Errorf("audit writer required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := p.Clock
	if now == nil {
		now = time.Now
	}
	return &Log{out: p.Writer, logg: logg, metrics: p.Metrics, now: now}, nil
}

// Record encodes ev and appends it. Write failures go to the operational log.
func (l *Log) Record(ctx context.Context, ev Event) {
	if ev.IP == "" {
		ev.IP = IPFrom(ctx)
	}
	line := l.encode(ev)

	l.mu.Lock()
	_, err := l.out.Write(line)
	l.mu.Unlock()

	if err != nil {
		l.metrics.IncFailure()
		l.logg.Error(l.logg.WithFields(ctx, map[string]any{
			"audit_action": ev.Action.String(),
			"audit_status": ev.Status.String(),
		}), "audit.write_failed", err)
		return
	}
	l.metrics.IncEvent(ev.Action.String(), ev.Status.String())
}

func (l *Log) encode(ev Event) []byte {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)

	actor := ev.Actor
	if actor == "" {
		actor = anonymousActor
	}

	entry := zl.WithLevel(levelFor(ev.Status)).
		Str("timestamp", l.now().Truncate(time.Second).Format(time.RFC3339)).
		Str("action", ev.Action.String()).
		Str("username", actor).
		Str("status", ev.Status.String())

	details := ev.Details
	if details == nil {
		details = map[string]any{}
	}
	entry = entry.Interface("details", details)

	if ev.Resource != "" {
		entry = entry.Str("resource", ev.Resource)
	}
	if ev.ResourceID > 0 {
		entry = entry.Str("resource_id", strconv.FormatInt(ev.ResourceID, 10))
	}
	if ev.IP != "" {
		entry = entry.Str("ip_address", ev.IP)
	}
	entry.Send()
	return buf.Bytes()
}

func levelFor(status enums.AuditStatus) zerolog.Level {
	if status == enums.AuditStatusSuccess {
		return zerolog.InfoLevel
	}
	return zerolog.WarnLevel
}

// Discard drops every event; useful for tools that do not audit.
type Discard struct{}

func (Discard) Record(context.Context, Event) {}
