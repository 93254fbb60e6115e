package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("reservations-test", reg)

	m.ObserveHTTPRequest("POST", "/api/reservations", 201, 15*time.Millisecond)
	m.ObserveHTTPRequest("POST", "/api/reservations", 201, 5*time.Millisecond)
	m.IncReservation("create", "created")
	m.IncAllocationRetry()
	m.ObserveDBQuery("exec", errors.New("boom"), time.Millisecond)
	m.SetDBPoolStats(3, 1, 2, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.httpRequestsTotal.WithLabelValues("reservations-test", "POST", "/api/reservations", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.reservationsTotal.WithLabelValues("reservations-test", "create", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.allocationRetries.WithLabelValues("reservations-test")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.dbOpenConnections.WithLabelValues("reservations-test")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/health", 200, time.Millisecond)
		m.ObserveDBQuery("query", nil, time.Millisecond)
		m.SetDBPoolStats(1, 1, 0, 0)
		m.IncReservation("create", "created")
		m.IncAllocationRetry()
	})
}
