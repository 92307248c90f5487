// Package observability exposes the gateway's Prometheus metrics.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of backend calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"route"},
	)

	queryExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_executions_total",
			Help: "Query executions by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	staleResponsesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_stale_responses_dropped_total",
			Help: "Responses discarded because a newer execution superseded them.",
		},
	)

	overlayPrimitives = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "highlight_overlay_primitives",
			Help: "Primitives currently in the highlight overlay.",
		},
	)

	storeOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workspace_store_ops_total",
			Help: "Workspace store operations by op and outcome.",
		},
		[]string{"op", "outcome"},
	)

	storeOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workspace_store_op_duration_seconds",
			Help:    "Duration of workspace store operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(route string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(route).Observe(durationSeconds)
}

func ObserveQuery(mode string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	queryExecutionsTotal.WithLabelValues(mode, outcome).Inc()
}

func ObserveStoreOp(op string, err error, durationSeconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storeOpsTotal.WithLabelValues(op, outcome).Inc()
	storeOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncStaleResponseDropped() {
	staleResponsesDropped.Inc()
}

func SetOverlaySize(n int) {
	overlayPrimitives.Set(float64(n))
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
