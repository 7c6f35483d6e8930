package dbtypes

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateScanAcceptsDriverShapes(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2025-01-07"))
	assert.Equal(t, "2025-01-07", d.String())

	require.NoError(t, d.Scan([]byte("2025-01-08T00:00:00Z")))
	assert.Equal(t, "2025-01-08", d.String())

	require.NoError(t, d.Scan(time.Date(2025, 1, 9, 15, 30, 0, 0, time.Local)))
	assert.Equal(t, "2025-01-09", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestDateValueAndJSON(t *testing.T) {
	d, err := ParseDate("2025-03-01")
	require.NoError(t, err)

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", v)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-03-01"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d.String(), back.String())
}

func TestDateOrdering(t *testing.T) {
	today, err := ParseDate("2025-05-10")
	require.NoError(t, err)

	assert.True(t, today.AddDays(-1).Before(today))
	assert.False(t, today.Before(today))
	assert.Equal(t, "2025-05-11", today.AddDays(1).String())
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("10/05/2025")
	assert.Error(t, err)
}
