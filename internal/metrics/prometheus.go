package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the global container of Prometheus collectors for the core.
type Metrics struct {
	// HTTP ingress metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Business metrics
	OptimizeOperationsTotal *prometheus.CounterVec
	OptimizeDuration        *prometheus.HistogramVec
	RerouteOperationsTotal  *prometheus.CounterVec
	SolverDuration          *prometheus.HistogramVec
	RoutesProduced          *prometheus.HistogramVec
	UnassignedDeliveries    *prometheus.HistogramVec
	MatrixBuildDuration     *prometheus.HistogramVec
	MatrixCacheHits         *prometheus.CounterVec
	ResultCacheHits         *prometheus.CounterVec

	// System metrics
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	// Service info
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics initializes the metrics registry under the given
// namespace/subsystem.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"route"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		OptimizeOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimize_operations_total",
				Help:      "Total number of optimize operations by result status",
			},
			[]string{"status"},
		),

		OptimizeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimize_duration_seconds",
				Help:      "Duration of the full optimize pipeline",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"status"},
		),

		RerouteOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reroute_operations_total",
				Help:      "Total number of reroute operations by reason and status",
			},
			[]string{"reason", "status"},
		),

		SolverDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solver_duration_seconds",
				Help:      "Duration of the VRP solver run",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"status"},
		),

		RoutesProduced: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "routes_produced",
				Help:      "Number of routes produced by a successful solve",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
			[]string{"operation"},
		),

		UnassignedDeliveries: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "unassigned_deliveries",
				Help:      "Number of deliveries left unassigned by a solve",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
			},
			[]string{"operation"},
		),

		MatrixBuildDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_build_duration_seconds",
				Help:      "Duration of distance/time matrix construction",
				Buckets:   []float64{.001, .01, .05, .1, .5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),

		MatrixCacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_cache_hits_total",
				Help:      "Matrix cache hit/miss counts",
			},
			[]string{"result"},
		),

		ResultCacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "result_cache_hits_total",
				Help:      "Optimization result cache hit/miss counts",
			},
			[]string{"result"},
		),

		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics registry, lazily initializing it with
// default names if InitMetrics was never called.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("routingcore", "")
	}
	return defaultMetrics
}

// RecordHTTPRequest records metrics for one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(route string, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordOptimize records metrics for one optimize pipeline run.
func (m *Metrics) RecordOptimize(status string, duration time.Duration) {
	m.OptimizeOperationsTotal.WithLabelValues(status).Inc()
	m.OptimizeDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordReroute records metrics for one reroute invocation.
func (m *Metrics) RecordReroute(reason string, status string) {
	m.RerouteOperationsTotal.WithLabelValues(reason, status).Inc()
}

// RecordSolve records metrics for one solver run.
func (m *Metrics) RecordSolve(status string, duration time.Duration, routes, unassigned int) {
	m.SolverDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.RoutesProduced.WithLabelValues("solve").Observe(float64(routes))
	m.UnassignedDeliveries.WithLabelValues("solve").Observe(float64(unassigned))
}

// RecordMatrixBuild records metrics for one matrix build, by source
// ("haversine", "euclidean", "api").
func (m *Metrics) RecordMatrixBuild(source string, duration time.Duration) {
	m.MatrixBuildDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordMatrixCacheResult records a matrix cache hit or miss.
func (m *Metrics) RecordMatrixCacheResult(hit bool) {
	m.MatrixCacheHits.WithLabelValues(cacheResultLabel(hit)).Inc()
}

// RecordResultCacheResult records an optimization-result cache hit or miss.
func (m *Metrics) RecordResultCacheResult(hit bool) {
	m.ResultCacheHits.WithLabelValues(cacheResultLabel(hit)).Inc()
}

func cacheResultLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// SetServiceInfo sets the service_info gauge.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts a dedicated HTTP server exposing /metrics and
// /health on the given port. Used when metrics.port differs from the main
// HTTP port.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
