package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mipastel/pedidos-backend/pkg/enums"
	"github.com/mipastel/pedidos-backend/pkg/metrics"
)

var fixedClock = func() time.Time {
	return time.Date(2025, 1, 7, 10, 30, 15, 987654321, time.UTC)
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), sc.Text())
		out = append(out, m)
	}
	return out
}

func TestRecordWritesOneJSONLine(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Params{Writer: &buf, Clock: fixedClock})
	require.NoError(t, err)

	log.Record(context.Background(), Event{
		Actor:      "jutiapa1",
		Action:     enums.AuditActionCreate,
		Status:     enums.AuditStatusSuccess,
		Resource:   "pedido_normal",
		ResourceID: 42,
		Details:    map[string]any{"sucursal": "Jutiapa 1"},
		IP:         "10.0.0.5",
	})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, "2025-01-07T10:30:15Z", line["timestamp"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "CREATE", line["action"])
	assert.Equal(t, "jutiapa1", line["username"])
	assert.Equal(t, "SUCCESS", line["status"])
	assert.Equal(t, "pedido_normal", line["resource"])
	assert.Equal(t, "42", line["resource_id"])
	assert.Equal(t, "10.0.0.5", line["ip_address"])
	assert.Equal(t, "Jutiapa 1", line["details"].(map[string]any)["sucursal"])
}

func TestRecordDefaultsAndOptionalFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Params{Writer: &buf, Clock: fixedClock})
	require.NoError(t, err)

	log.Record(context.Background(), Event{Action: enums.AuditActionLogin, Status: enums.AuditStatusFailure})

	line := decodeLines(t, &buf)[0]
	assert.Equal(t, "anonymous", line["username"])
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, map[string]any{}, line["details"])
	assert.NotContains(t, line, "ip_address")
	assert.NotContains(t, line, "resource")
	assert.NotContains(t, line, "resource_id")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRecordSwallowsWriteFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewAuditMetrics(reg)
	log, err := New(Params{Writer: failingWriter{}, Metrics: m})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		log.Record(context.Background(), Event{Action: enums.AuditActionDelete, Status: enums.AuditStatusSuccess})
	})

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var failures float64
	for _, mf := range mfs {
		if mf.GetName() == "audit_write_failures_total" {
			failures = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, failures)
}

func TestRecordConcurrentAppendsStayWhole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Params{Writer: &buf})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log.Record(context.Background(), Event{
				Actor:      "admin",
				Action:     enums.AuditActionUpdate,
				Status:     enums.AuditStatusSuccess,
				ResourceID: int64(i + 1),
			})
		}(i)
	}
	wg.Wait()

	assert.Len(t, decodeLines(t, &buf), 50)
}

func TestNewRequiresWriter(t *testing.T) {
	_, err := New(Params{})
	assert.Error(t, err)
}

func TestRecordTakesIPFromContext(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Params{Writer: &buf, Clock: fixedClock})
	require.NoError(t, err)

	ctx := WithIP(context.Background(), "192.168.1.20")
	log.Record(ctx, Event{Actor: "admin", Action: enums.AuditActionLogout, Status: enums.AuditStatusSuccess})

	assert.Equal(t, "192.168.1.20", decodeLines(t, &buf)[0]["ip_address"])
}
