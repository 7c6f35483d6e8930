package metrics

import "github.com/prometheus/client_golang/prometheus"

// AuditMetrics counts audit events written and dropped.
type AuditMetrics struct {
	events   *prometheus.CounterVec
	failures prometheus.Counter
}

// NewAuditMetrics registers the audit metrics on the provided registerer.
func NewAuditMetrics(reg prometheus.Registerer) *AuditMetrics {
	if reg == nil {
		return &AuditMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_events_total",
		Help: "Audit events appended, by action and status.",
	}, []string{"action", "status"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Audit events that could not be written.",
	})
	reg.MustRegister(events, failures)
	return &AuditMetrics{events: events, failures: failures}
}

// IncEvent records an appended event.
func (a *AuditMetrics) IncEvent(action, status string) {
	if a == nil || a.events == nil {
		return
	}
	a.events.WithLabelValues(normalizeLabel(action), normalizeLabel(status)).Inc()
}

// IncFailure records a dropped event.
func (a *AuditMetrics) IncFailure() {
	if a == nil || a.failures == nil {
		return
	}
	a.failures.Inc()
}
