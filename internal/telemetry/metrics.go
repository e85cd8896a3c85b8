// Package telemetry holds the Prometheus collectors and the OpenTelemetry
// tracer provider.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jobflow"

// Metrics records HTTP and session outcomes. It satisfies app.AuthObserver.
type Metrics struct {
	requests            *prometheus.CounterVec
	duration            *prometheus.HistogramVec
	authOutcomes        *prometheus.CounterVec
	cookieWriteFailures prometheus.Counter
	sessionsPruned      prometheus.Counter
}

// NewMetrics registers the collectors with reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_outcomes_total",
			Help:      "Session resolution outcomes.",
		}, []string{"outcome"}),
		cookieWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_cookie_write_failures_total",
			Help:      "Session cookies that could not be written because the response had started.",
		}),
		sessionsPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_pruned_total",
			Help:      "Expired sessions removed by the sweeper.",
		}),
	}
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveAuth implements app.AuthObserver.
func (m *Metrics) ObserveAuth(outcome string) {
	m.authOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveCookieWriteFailure implements app.AuthObserver.
func (m *Metrics) ObserveCookieWriteFailure() {
	m.cookieWriteFailures.Inc()
}

// SessionsPruned adds n to the sweeper counter.
func (m *Metrics) SessionsPruned(n int64) {
	if n > 0 {
		m.sessionsPruned.Add(float64(n))
	}
}
