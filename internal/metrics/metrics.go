package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ordercomposer"

// Metrics holds the HTTP and domain collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	latencyMS   *prometheus.HistogramVec
	lineChanges *prometheus.CounterVec
	activations *prometheus.CounterVec
	searches    prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		latencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		lineChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "line_items_changed_total",
			Help:      "Line items created, updated or deleted, by operation.",
		}, []string{"operation"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "activations_total",
			Help:      "Activation attempts by outcome.",
		}, []string{"outcome"}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "searches_total",
			Help:      "Catalog searches served.",
		}),
	}

	reg.MustRegister(m.requests, m.latencyMS, m.lineChanges, m.activations, m.searches)
	return m
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latencyMS.WithLabelValues(route).Observe(float64(elapsed.Microseconds()) / 1000)
}

// LineItemsChanged adds n to the counter of the given operation.
func (m *Metrics) LineItemsChanged(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.lineChanges.WithLabelValues(operation).Add(float64(n))
}

// Activation records the outcome of an activation attempt.
func (m *Metrics) Activation(outcome string) {
	if m == nil {
		return
	}
	m.activations.WithLabelValues(outcome).Inc()
}

// CatalogSearch counts a served catalog search.
func (m *Metrics) CatalogSearch() {
	if m == nil {
		return
	}
	m.searches.Inc()
}

// Handler exposes the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
