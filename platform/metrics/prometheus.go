package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the service metrics on a private registry.
type Manager struct {
	Registry        *prometheus.Registry
	HousesCreated   prometheus.Counter
	SyncFailures    prometheus.Counter
	Compensations   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewManager creates and registers the metrics under namespace.
func NewManager(namespace string) *Manager {
	m := &Manager{
		Registry: prometheus.NewRegistry(),
		HousesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "houses_created_total",
			Help:      "Houses stored and accepted by the system of record.",
		}),
		SyncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "house_sync_failures_total",
			Help:      "Creates whose publish to the system of record failed.",
		}),
		Compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "house_compensations_total",
			Help:      "Compensating deletes after a failed publish, by result.",
		}, []string{"result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.Registry.MustRegister(
		m.HousesCreated,
		m.SyncFailures,
		m.Compensations,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Manager) Created() {
	m.HousesCreated.Inc()
}

func (m *Manager) SyncFailed() {
	m.SyncFailures.Inc()
}

func (m *Manager) Compensated(err error) {
	result := "deleted"
	if err != nil {
		result = "failed"
	}
	m.Compensations.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware observes request latency labelled by the matched chi route.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
