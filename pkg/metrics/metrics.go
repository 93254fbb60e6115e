package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics Prometheus collectors of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	service string

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration   *prometheus.HistogramVec
	dbOpenConnections *prometheus.GaugeVec
	dbInUse           *prometheus.GaugeVec
	dbIdle            *prometheus.GaugeVec
	dbWaitCount       *prometheus.GaugeVec

	reservationsTotal *prometheus.CounterVec
	allocationRetries *prometheus.CounterVec
}

// New registers the collectors on the default registry
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		service: serviceName,

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),

		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),

		dbQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "operation", "status"}),

		dbOpenConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Number of established connections",
		}, []string{"service"}),

		dbInUse: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_in_use_connections",
			Help: "Number of connections currently in use",
		}, []string{"service"}),

		dbIdle: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_idle_connections",
			Help: "Number of idle connections",
		}, []string{"service"}),

		dbWaitCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_wait_count",
			Help: "Total number of connections waited for",
		}, []string{"service"}),

		reservationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reservations_total",
			Help: "Reservation operations by outcome",
		}, []string{"service", "operation", "outcome"}),

		allocationRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "table_allocation_retries_total",
			Help: "Booking attempts retried after a table conflict",
		}, []string{"service"}),
	}
}

// ObserveHTTPRequest records a finished HTTP request
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(m.service, method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(m.service, method, path).Observe(duration.Seconds())
}

// ObserveDBQuery records a finished query
func (m *Metrics) ObserveDBQuery(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(m.service, operation, status).Observe(duration.Seconds())
}

// SetDBPoolStats publishes connection pool gauges
func (m *Metrics) SetDBPoolStats(open, inUse, idle int, waitCount int64) {
	if m == nil {
		return
	}
	m.dbOpenConnections.WithLabelValues(m.service).Set(float64(open))
	m.dbInUse.WithLabelValues(m.service).Set(float64(inUse))
	m.dbIdle.WithLabelValues(m.service).Set(float64(idle))
	m.dbWaitCount.WithLabelValues(m.service).Set(float64(waitCount))
}

// IncReservation counts a reservation operation outcome (created, slot_unavailable, cancelled ...)
func (m *Metrics) IncReservation(operation, outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(m.service, operation, outcome).Inc()
}

// IncAllocationRetry counts a retried booking attempt
func (m *Metrics) IncAllocationRetry() {
	if m == nil {
		return
	}
	m.allocationRetries.WithLabelValues(m.service).Inc()
}
