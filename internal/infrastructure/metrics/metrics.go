// Package metrics exposes dashboard statistics and HTTP timings to Prometheus.
//
// Metrics uses its own registry so tests and multiple instances never
// collide on the global default registerer.
package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/smarthome-core/internal/dashboard"
	"github.com/nerrad567/smarthome-core/internal/device"
)

// unmatchedRoute labels requests no route matched.
const unmatchedRoute = "unmatched"

// Metrics holds the Prometheus collectors for one dashboard instance.
type Metrics struct {
	registry *prometheus.Registry

	activeDevices  prometheus.Gauge
	totalDevices   prometheus.Gauge
	energyKWh      prometheus.Gauge
	avgClimateTemp prometheus.Gauge
	mutations      *prometheus.CounterVec
	changedDevices *prometheus.CounterVec

	requestTiming *prometheus.SummaryVec
	errorCounter  *prometheus.CounterVec
}

// New creates the collectors under namespace and registers them, together
// with the Go runtime and process collectors, on a fresh registry.
func New(namespace string) *Metrics {
	ns := strings.NewReplacer("-", "_", " ", "_").Replace(namespace)

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		activeDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "active_devices",
			Help:      "Number of devices currently switched on.",
		}),
		totalDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "devices",
			Help:      "Number of devices in the catalogue.",
		}),
		energyKWh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "energy_kwh",
			Help:      "Estimated energy use of the active devices.",
		}),
		avgClimateTemp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "avg_climate_temperature_celsius",
			Help:      "Average setpoint of active climate devices, NaN when none is active.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "mutations_total",
			Help:      "Dashboard mutations by operation.",
		}, []string{"op"}),
		changedDevices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "device_changes_total",
			Help:      "Device changes by category.",
		}, []string{"category"}),
		requestTiming: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request timing by route.",
		}, []string{"method", "route"}),
		errorCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_errors_total",
			Help:      "HTTP responses with status >= 400 by route and code.",
		}, []string{"route", "code"}),
	}
	m.avgClimateTemp.Set(math.NaN())

	m.registry.MustRegister(
		m.activeDevices,
		m.totalDevices,
		m.energyKWh,
		m.avgClimateTemp,
		m.mutations,
		m.changedDevices,
		m.requestTiming,
		m.errorCounter,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordStats implements dashboard.StatsRecorder.
func (m *Metrics) RecordStats(_ context.Context, s device.Stats, _ time.Time) {
	m.activeDevices.Set(float64(s.ActiveCount))
	m.totalDevices.Set(float64(s.TotalCount))
	m.energyKWh.Set(s.EnergyKWh)
	if s.AvgClimateTemp != nil {
		m.avgClimateTemp.Set(*s.AvgClimateTemp)
	} else {
		m.avgClimateTemp.Set(math.NaN())
	}
}

// Notify implements dashboard.Notifier.
func (m *Metrics) Notify(_ context.Context, n dashboard.Notification) {
	m.mutations.WithLabelValues(string(n.Op)).Inc()
	for _, d := range n.Changed {
		m.changedDevices.WithLabelValues(string(d.Category)).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware times each request by its chi route pattern and counts error
// responses.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := routePattern(r)
		m.requestTiming.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status >= http.StatusBadRequest {
			m.errorCounter.WithLabelValues(route, strconv.Itoa(status)).Inc()
		}
	})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}
