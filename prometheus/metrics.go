package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clientdb_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // operation can be "create", "list", "access", "update", "ensure_schema"
	)

	// Resolve outcome counter
	ResolveCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clientdb_resolve_total",
			Help: "Total number of client database resolutions by outcome",
		},
		[]string{"outcome"}, // outcome can be "ok", "not_found", "unreachable", "error"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clientdb_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"service", "endpoint", "method", "status"},
	)

	// Error counters
	ErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clientdb_errors_total",
			Help: "Total number of routing subsystem errors",
		},
		[]string{"type"}, // type can be "provisioning_failed", "conflict", "control_plane", etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clientdb_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint", "method", "status"},
	)

	// Provisioning duration
	ProvisionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clientdb_provision_duration_seconds",
			Help:    "Duration of end-to-end tenant provisioning in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Health check duration
	HealthCheckDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clientdb_health_check_duration_seconds",
			Help:    "Duration of aggregate health checks in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Gauge metrics
var (
	// Registered tenants
	RegisteredTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clientdb_registered_tenants",
			Help: "Number of tenants in the control-plane registry",
		},
	)

	// Healthy tenants as of the last health check
	HealthyTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clientdb_healthy_tenants",
			Help: "Number of reachable client databases as of the last health check",
		},
	)

	// Cached client connections
	CachedConnectionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clientdb_cached_connections",
			Help: "Number of live cached client database connections",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clientdb_info",
			Help: "Information about the client database routing service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(ResolveCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(ErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ProvisionDuration)
	prometheus.MustRegister(HealthCheckDuration)

	// Register gauges
	prometheus.MustRegister(RegisteredTenantsGauge)
	prometheus.MustRegister(HealthyTenantsGauge)
	prometheus.MustRegister(CachedConnectionsGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordTenantOperation increments the tenant operation counter
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordResolve increments the resolve counter for the given outcome
func RecordResolve(outcome string) {
	ResolveCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordError increments the error counter for the given type
func RecordError(errType string) {
	ErrorCounter.With(prometheus.Labels{"type": errType}).Inc()
}

// TrackProvision measures end-to-end provisioning duration
func TrackProvision() func() {
	startTime := time.Now()
	return func() {
		ProvisionDuration.Observe(time.Since(startTime).Seconds())
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware(serviceLabel string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			// Record metrics after the request is processed
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method
			endpoint := c.Path()

			HTTPRequestCounter.With(prometheus.Labels{
				"service":  serviceLabel,
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			RequestDuration.With(prometheus.Labels{
				"service":  serviceLabel,
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
