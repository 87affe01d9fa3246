package obs

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nearby"

// Search outcomes recorded by ObserveSearch.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the application collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	requests      prometheus.Counter
	searches      *prometheus.CounterVec
	sourceErrors  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	logger        *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of search requests",
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of completed searches by order and outcome",
		}, []string{"orderby", "outcome"}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Total number of failed or empty source fetches",
		}, []string{"source"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of source fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		logger: logger,
	}
	m.registry.MustRegister(m.requests, m.searches, m.sourceErrors, m.fetchDuration)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requests.Inc()
}

// ObserveSearch counts a finished search.
func (m *Metrics) ObserveSearch(orderBy, outcome string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(orderBy, outcome).Inc()
}

// IncSourceErrors increments the error counter of a source.
func (m *Metrics) IncSourceErrors(source string) {
	if m == nil {
		return
	}
	m.sourceErrors.WithLabelValues(source).Inc()
}

// ObserveFetch records how long a source fetch took.
func (m *Metrics) ObserveFetch(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// MetricsHandler returns a handler for /metrics requests in Prometheus format.
func (m *Metrics) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(m.logger.Handler(), slog.LevelError),
	})
}

// HealthHandler returns a handler for /healthz requests.
func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	}
}
