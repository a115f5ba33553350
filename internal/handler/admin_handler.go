package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/registry"
	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/tenantdb"
	"github.com/Sherrmann013/OktaDeploy1-sub002/pkg/logger"
	"github.com/Sherrmann013/OktaDeploy1-sub002/prometheus"
)

const serviceVersion = "1.0.0"

// AdminHandler serves the remote administration API used to manage deployed
// instances: connectivity checks, aggregate health, system info and schema
// migration execution.
type AdminHandler struct {
	router    *tenantdb.Router
	reg       *registry.Registry
	env       string
	startedAt time.Time
}

// NewAdminHandler wires the admin API to the routing facade and the registry.
func NewAdminHandler(router *tenantdb.Router, reg *registry.Registry, env string) *AdminHandler {
	return &AdminHandler{
		router:    router,
		reg:       reg,
		env:       env,
		startedAt: time.Now(),
	}
}

// Ping handles the admin connectivity test
func (h *AdminHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "pong",
		"service": "client-db-service",
		"version": serviceVersion,
		"time":    time.Now().Format(time.RFC3339),
	})
}

// Health returns the aggregate health report across the control plane and
// every client database. Responds 503 when the control plane is down so
// remote monitors see the failure without parsing the body.
func (h *AdminHandler) Health(c echo.Context) error {
	log := logger.FromEcho(c)

	start := time.Now()
	report := h.router.GetHealth(c.Request().Context())
	prometheus.HealthCheckDuration.Observe(time.Since(start).Seconds())

	prometheus.HealthyTenantsGauge.Set(float64(report.HealthyTenantCount))
	prometheus.RegisteredTenantsGauge.Set(float64(report.TenantCount))
	prometheus.CachedConnectionsGauge.Set(float64(h.router.CachedConnections()))

	status := http.StatusOK
	if report.Status == tenantdb.StatusCritical {
		log.Error("Health check reports control plane unreachable")
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}

// Info returns system information and database status
func (h *AdminHandler) Info(c echo.Context) error {
	log := logger.FromEcho(c)

	response := echo.Map{
		"service":            "client-db-service",
		"version":            serviceVersion,
		"environment":        h.env,
		"uptime":             time.Since(h.startedAt).String(),
		"cached_connections": h.router.CachedConnections(),
	}

	tenants, err := h.reg.ListTenants(c.Request().Context())
	if err != nil {
		log.Error("Failed to read tenant registry for info", zap.Error(err))
		response["control_plane"] = "error"
		return c.JSON(http.StatusServiceUnavailable, response)
	}
	response["control_plane"] = "ok"
	response["tenant_count"] = len(tenants)

	return c.JSON(http.StatusOK, response)
}

// ExecuteMigration re-runs idempotent schema provisioning for one tenant,
// the documented recovery path after a partial provisioning failure.
func (h *AdminHandler) ExecuteMigration(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("ensure_schema")

	var req struct {
		TenantID uint `json:"tenant_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse migration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.TenantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	if err := h.router.EnsureSchema(c.Request().Context(), req.TenantID); err != nil {
		log.Error("Schema provisioning failed", zap.Uint("tenant_id", req.TenantID), zap.Error(err))
		prometheus.RecordError("provisioning_failed")
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	log.Info("Schema provisioning completed", zap.Uint("tenant_id", req.TenantID))
	return c.JSON(http.StatusOK, echo.Map{
		"message":   "schema provisioning completed",
		"tenant_id": req.TenantID,
	})
}
