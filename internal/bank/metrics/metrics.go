// Package metrics registers the Prometheus instrumentation for the
// service: inbound HTTP traffic, delegated identity operations, and
// underwriting outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/banca-aurora/aurora/pkg/httpx"
)

type Metrics struct {
	// Inbound HTTP traffic by route pattern.
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Delegated identity operations by outcome.
	Delegations *prometheus.CounterVec

	// Step-attributed delegation failures.
	DelegationFailures *prometheus.CounterVec

	// Underwriting outcomes.
	Decisions *prometheus.CounterVec
}

// New creates a Metrics instance with everything registered on the
// default registerer.
func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurora_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aurora_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		Delegations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurora_identity_delegations_total",
			Help: "Identity provider delegations by operation and outcome",
		}, []string{"operation", "outcome"}),

		DelegationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurora_identity_delegation_failures_total",
			Help: "Failed identity delegations by operation, step and error kind",
		}, []string{"operation", "step", "kind"}),

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurora_loan_decisions_total",
			Help: "Loan underwriting outcomes by status",
		}, []string{"status"}),
	}
}

// RecordDelegation counts a delegated operation's outcome.
func (m *Metrics) RecordDelegation(operation, outcome string) {
	if m != nil {
		m.Delegations.WithLabelValues(operation, outcome).Inc()
	}
}

// RecordDelegationFailure counts a step-attributed delegation failure.
func (m *Metrics) RecordDelegationFailure(operation, step, kind string) {
	if m != nil {
		m.DelegationFailures.WithLabelValues(operation, step, kind).Inc()
	}
}

// RecordDecision counts an underwriting outcome.
func (m *Metrics) RecordDecision(status string) {
	if m != nil {
		m.Decisions.WithLabelValues(status).Inc()
	}
}

// HTTPMiddleware instruments requests with the matched route pattern as
// the label, keeping cardinality bounded. The mux is consulted directly
// because the middleware runs before route matching happens.
func (m *Metrics) HTTPMiddleware(mux *http.ServeMux) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			_, route := mux.Handler(r)
			if route == "" {
				route = "unmatched"
			}

			m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
