// Package metrics provides Prometheus metrics collection for secure-drop.
package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global metrics - used by the application.
	// Using atomic.Pointer for lock-free initialization checks on hot path metrics.
	requestsTotal     atomic.Pointer[prometheus.CounterVec]
	requestDuration   atomic.Pointer[prometheus.HistogramVec]
	authFailuresTotal atomic.Pointer[prometheus.CounterVec]
	transfersTotal    atomic.Pointer[prometheus.CounterVec]
	transferBytes     atomic.Pointer[prometheus.CounterVec]
)

// Init initializes all Prometheus metrics and registers them with the provided registry.
// This should be called once at application startup.
func Init(reg prometheus.Registerer) error {
	requestsTotalVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "securedrop",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)
	if err := reg.Register(requestsTotalVec); err != nil {
		return fmt.Errorf("failed to register requestsTotal: %w", err)
	}

	requestDurationVec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "securedrop",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	if err := reg.Register(requestDurationVec); err != nil {
		return fmt.Errorf("failed to register requestDuration: %w", err)
	}

	authFailuresTotalVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "securedrop",
			Subsystem: "server",
			Name:      "auth_failures_total",
			Help:      "Total number of authentication and authorization failures",
		},
		[]string{"reason"},
	)
	if err := reg.Register(authFailuresTotalVec); err != nil {
		return fmt.Errorf("failed to register authFailuresTotal: %w", err)
	}

	transfersTotalVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "securedrop",
			Subsystem: "server",
			Name:      "transfers_total",
			Help:      "Total number of completed file transfers",
		},
		[]string{"direction"},
	)
	if err := reg.Register(transfersTotalVec); err != nil {
		return fmt.Errorf("failed to register transfersTotal: %w", err)
	}

	transferBytesVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "securedrop",
			Subsystem: "server",
			Name:      "transfer_bytes_total",
			Help:      "Total bytes moved by file transfers",
		},
		[]string{"direction"},
	)
	if err := reg.Register(transferBytesVec); err != nil {
		return fmt.Errorf("failed to register transferBytes: %w", err)
	}

	requestsTotal.Store(requestsTotalVec)
	requestDuration.Store(requestDurationVec)
	authFailuresTotal.Store(authFailuresTotalVec)
	transfersTotal.Store(transfersTotalVec)
	transferBytes.Store(transferBytesVec)

	return nil
}

// RecordRequest increments the requests counter for the given method, path, and status code.
// The path should be normalized (e.g., "/api/admin/tokens/:id") to keep label cardinality bounded.
func RecordRequest(method, path, statusCode string) {
	if counter := requestsTotal.Load(); counter != nil {
		counter.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordRequestDuration records the latency for a request, in seconds.
func RecordRequestDuration(method, path, statusCode string, durationSeconds float64) {
	if histogram := requestDuration.Load(); histogram != nil {
		histogram.WithLabelValues(method, path, statusCode).Observe(durationSeconds)
	}
}

// RecordAuthFailure increments the auth failures counter for the given reason.
// Common reasons: "invalid_session", "token_rejected", "missing_credential".
func RecordAuthFailure(reason string) {
	if counter := authFailuresTotal.Load(); counter != nil {
		counter.WithLabelValues(reason).Inc()
	}
}

// RecordTransfer records one completed transfer. Direction is "upload" or
// "download".
func RecordTransfer(direction string, bytes int64) {
	if counter := transfersTotal.Load(); counter != nil {
		counter.WithLabelValues(direction).Inc()
	}
	if counter := transferBytes.Load(); counter != nil {
		counter.WithLabelValues(direction).Add(float64(bytes))
	}
}

// Handler returns an HTTP handler for Prometheus metrics in text format.
// This handler should be registered at /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
