package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор prometheus-коллекторов сервиса
type Metrics struct {
	serviceName string

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec
	dbOpenConns     *prometheus.GaugeVec
	dbInUseConns    *prometheus.GaugeVec
	dbIdleConns     *prometheus.GaugeVec

	txRetries          *prometheus.CounterVec
	admissionDecisions *prometheus.CounterVec
	paymentFailures    *prometheus.CounterVec
}

// New регистрирует метрики в глобальном регистре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry регистрирует метрики в переданном регистре
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		serviceName: serviceName,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "route"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "operation"}),
		dbOpenConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Open connections in the pool",
		}, []string{"service"}),
		dbInUseConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_in_use_connections",
			Help: "Connections currently in use",
		}, []string{"service"}),
		dbIdleConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_idle_connections",
			Help: "Idle connections in the pool",
		}, []string{"service"}),
		txRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "db_tx_retries_total",
			Help: "Keyed transactions retried after a deadlock or serialization conflict",
		}, []string{"service"}),
		admissionDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admission_decisions_total",
			Help: "Reservation admission outcomes",
		}, []string{"service", "outcome", "reason"}),
		paymentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_record_failures_total",
			Help: "Payments that could not be recorded",
		}, []string{"service"}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.dbQueryDuration,
		m.dbOpenConns,
		m.dbInUseConns,
		m.dbIdleConns,
		m.txRetries,
		m.admissionDecisions,
		m.paymentFailures,
	)

	return m
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(m.serviceName, method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(m.serviceName, method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveDBQuery(operation string, d time.Duration) {
	m.dbQueryDuration.WithLabelValues(m.serviceName, operation).Observe(d.Seconds())
}

// SetPoolStats публикует состояние connection pool
func (m *Metrics) SetPoolStats(stats sql.DBStats) {
	m.dbOpenConns.WithLabelValues(m.serviceName).Set(float64(stats.OpenConnections))
	m.dbInUseConns.WithLabelValues(m.serviceName).Set(float64(stats.InUse))
	m.dbIdleConns.WithLabelValues(m.serviceName).Set(float64(stats.Idle))
}

func (m *Metrics) IncTxRetry() {
	m.txRetries.WithLabelValues(m.serviceName).Inc()
}

// ObserveAdmission outcome: admitted | rejected; reason пустой для admitted
func (m *Metrics) ObserveAdmission(outcome, reason string) {
	m.admissionDecisions.WithLabelValues(m.serviceName, outcome, reason).Inc()
}

func (m *Metrics) IncPaymentFailure() {
	m.paymentFailures.WithLabelValues(m.serviceName).Inc()
}
