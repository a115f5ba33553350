package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/model"
	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/registry"
	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/tenantdb"
	"github.com/Sherrmann013/OktaDeploy1-sub002/pkg/logger"
	"github.com/Sherrmann013/OktaDeploy1-sub002/prometheus"
)

// TenantHandler serves the operator-facing tenant management endpoints.
type TenantHandler struct {
	router *tenantdb.Router
	reg    *registry.Registry
}

// NewTenantHandler wires the handler to the routing facade and the registry.
func NewTenantHandler(router *tenantdb.Router, reg *registry.Registry) *TenantHandler {
	return &TenantHandler{router: router, reg: reg}
}

// CreateTenant handles tenant creation, provisioning the isolated database
// end to end.
func (h *TenantHandler) CreateTenant(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("create")

	// Parse request
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		log.Error("Invalid tenant data", zap.String("name", req.Name))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	defer prometheus.TrackProvision()()

	tenant, err := h.router.CreateTenant(c.Request().Context(), req.Name)
	if err != nil {
		log.Error("Failed to create tenant", zap.String("name", req.Name), zap.Error(err))
		if errors.Is(err, registry.ErrConflict) {
			prometheus.RecordError("conflict")
		} else {
			prometheus.RecordError("provisioning_failed")
		}
		resp := echo.Map{"error": err.Error()}
		if tenant != nil {
			// Registered but incomplete: the operator can finish it through
			// the migrations endpoint.
			resp["tenant"] = tenant
			resp["recovery"] = "re-run schema provisioning for this tenant"
		}
		return c.JSON(statusForError(err), resp)
	}

	log.Info("Tenant created",
		zap.String("name", tenant.Name),
		zap.Uint("id", tenant.ID),
		zap.String("storage_identifier", tenant.StorageIdentifier))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully",
		"tenant":  tenant,
	})
}

// ListTenants returns every tenant descriptor, ordered by name.
func (h *TenantHandler) ListTenants(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("list")

	tenants, err := h.reg.ListTenants(c.Request().Context())
	if err != nil {
		log.Error("Failed to list tenants", zap.Error(err))
		prometheus.RecordError("control_plane")
		return c.JSON(statusForError(err), echo.Map{"error": "failed to list tenants"})
	}

	prometheus.RegisteredTenantsGauge.Set(float64(len(tenants)))
	return c.JSON(http.StatusOK, tenants)
}

// GetTenant retrieves one tenant descriptor.
func (h *TenantHandler) GetTenant(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("access")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid tenant ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	tenant, err := h.reg.GetTenant(c.Request().Context(), uint(id))
	if err != nil {
		log.Error("Tenant lookup failed", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, tenant)
}

// CheckConnection resolves the tenant's client database through the
// connection cache and probes it, reporting reachability without touching
// any client data.
func (h *TenantHandler) CheckConnection(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("access")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid tenant ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	handle, err := h.router.GetTenantStore(c.Request().Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, tenantdb.ErrTenantNotFound):
			prometheus.RecordResolve("not_found")
		case errors.Is(err, tenantdb.ErrTenantUnreachable):
			prometheus.RecordResolve("unreachable")
		default:
			prometheus.RecordResolve("error")
		}
		log.Error("Client database resolution failed", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	if err := handle.Store.Ping(c.Request().Context()); err != nil {
		prometheus.RecordResolve("unreachable")
		log.Error("Client database probe failed", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"tenant_id": handle.TenantID,
			"reachable": false,
			"error":     err.Error(),
		})
	}

	prometheus.RecordResolve("ok")
	return c.JSON(http.StatusOK, echo.Map{
		"tenant_id": handle.TenantID,
		"reachable": true,
	})
}

// UpdateTenant applies an administrative update: status change or
// connection-descriptor rotation. A rotation drops the cached connection so
// the next access dials with the new descriptor.
func (h *TenantHandler) UpdateTenant(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid tenant ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var req struct {
		Name                 string `json:"name,omitempty"`
		Status               string `json:"status,omitempty"`
		ConnectionDescriptor string `json:"connection_descriptor,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	fields := map[string]interface{}{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Status != "" {
		if !model.ValidStatus(req.Status) {
			log.Error("Invalid tenant status", zap.String("status", req.Status))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		fields["status"] = req.Status
	}
	if req.ConnectionDescriptor != "" {
		fields["connection_descriptor"] = req.ConnectionDescriptor
	}
	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no updatable fields provided"})
	}

	tenant, err := h.reg.UpdateTenant(c.Request().Context(), uint(id), fields)
	if err != nil {
		log.Error("Failed to update tenant", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	if req.ConnectionDescriptor != "" {
		h.router.InvalidateTenant(uint(id))
		log.Info("Cached connection invalidated after descriptor rotation", zap.Uint64("id", id))
	}

	log.Info("Tenant updated", zap.Uint("id", tenant.ID), zap.String("status", tenant.Status))
	return c.JSON(http.StatusOK, tenant)
}
