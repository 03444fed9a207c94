// Package metrics registers the service's Prometheus collectors and the
// HTTP middleware that feeds them.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for GraphQL operations.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planit_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planit_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	graphqlOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planit_graphql_operations_total",
		Help: "GraphQL root fields resolved, by field and outcome.",
	}, []string{"operation", "outcome"})

	friendEdgesHealed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planit_friend_edges_healed_total",
		Help: "One-sided friend edges pruned by the reconciler.",
	})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planit_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by operation.",
	}, []string{"operation"})
)

// Middleware records request totals and latency by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveOperation counts one resolved GraphQL root field.
func ObserveOperation(operation string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	graphqlOperations.WithLabelValues(operation, outcome).Inc()
}

// FriendEdgesHealed adds n to the reconciler counter.
func FriendEdgesHealed(n int) {
	if n > 0 {
		friendEdgesHealed.Add(float64(n))
	}
}

// RateLimited counts one rejected request for operation.
func RateLimited(operation string) {
	rateLimited.WithLabelValues(operation).Inc()
}

// Unmatched routes are labelled with a constant so arbitrary paths cannot
// grow label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := strings.TrimSpace(rctx.RoutePattern()); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
