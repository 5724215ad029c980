package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "walkgoal"

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing, so services can be built without instrumentation.
type Metrics struct {
	registry   *prometheus.Registry
	entries    prometheus.Counter
	minutes    prometheus.Counter
	rejections *prometheus.CounterVec
	requests   *prometheus.CounterVec
	progress   prometheus.Gauge
}

// New registers the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		entries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_submitted_total",
			Help:      "Walking entries accepted.",
		}),
		minutes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minutes_submitted_total",
			Help:      "Walking minutes accepted.",
		}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_rejections_total",
			Help:      "Entry submissions rejected, by reason.",
		}, []string{"reason"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		progress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_percentage",
			Help:      "Group progress toward the goal as of the last snapshot.",
		}),
	}
}

func (m *Metrics) EntrySubmitted(minutes int) {
	if m == nil {
		return
	}
	m.entries.Inc()
	m.minutes.Add(float64(minutes))
}

func (m *Metrics) EntryRejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveProgress(percentage float64) {
	if m == nil {
		return
	}
	m.progress.Set(percentage)
}

func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
