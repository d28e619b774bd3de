// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	authRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtimcp_auth_requests_total",
			Help: "Requests seen by the auth gate, by outcome.",
		},
		[]string{"outcome"},
	)

	oboExchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtimcp_obo_exchanges_total",
			Help: "On-behalf-of token exchanges, by result.",
		},
		[]string{"result"},
	)

	kustoOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtimcp_kusto_operations_total",
			Help: "Kusto operations executed, by operation and result.",
		},
		[]string{"operation", "result"},
	)

	kustoOperationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rtimcp_kusto_operation_duration_seconds",
			Help:    "Kusto operation latency by operation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	kustoConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rtimcp_kusto_connections",
			Help: "Cached Kusto cluster connections.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		authRequestsTotal,
		oboExchangesTotal,
		kustoOperationsTotal,
		kustoOperationDurationSeconds,
		kustoConnections,
	)
}

// Auth gate outcomes.
const (
	AuthBypassed      = "bypassed"
	AuthMissingHeader = "missing_header"
	AuthExchangeError = "exchange_failed"
	AuthAccepted      = "accepted"
	AuthPanic         = "panic"
)

func ObserveAuth(outcome string) {
	authRequestsTotal.WithLabelValues(outcome).Inc()
}

func ObserveExchange(err error) {
	oboExchangesTotal.WithLabelValues(result(err)).Inc()
}

func ObserveKustoOperation(operation string, elapsed time.Duration, err error) {
	kustoOperationsTotal.WithLabelValues(operation, result(err)).Inc()
	kustoOperationDurationSeconds.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveKustoRejection counts an operation refused before reaching a
// cluster because the service is not allowed.
func ObserveKustoRejection(operation string) {
	kustoOperationsTotal.WithLabelValues(operation, "rejected").Inc()
}

func SetKustoConnections(n int) {
	kustoConnections.Set(float64(n))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
