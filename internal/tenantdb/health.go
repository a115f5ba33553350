package tenantdb

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Aggregate status values for the health report.
const (
	StatusHealthy  = "HEALTHY"
	StatusDegraded = "DEGRADED"
	StatusCritical = "CRITICAL"
)

// healthyRatioThreshold is the fraction of reachable client databases at or
// above which the system reports HEALTHY. Deployment-specific tuning should
// happen here, in review, not via configuration.
const healthyRatioThreshold = 0.8

// TenantHealth is the probe result for one client database.
type TenantHealth struct {
	TenantID uint          `json:"tenant_id"`
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Healthy  bool          `json:"healthy"`
	Latency  time.Duration `json:"latency"`
	Error    string        `json:"error,omitempty"`
}

// Report describes the reachability of the control plane and every known
// client database at one point in time.
type Report struct {
	Status              string         `json:"status"`
	ControlPlaneHealthy bool           `json:"control_plane_healthy"`
	ControlPlaneError   string         `json:"control_plane_error,omitempty"`
	HealthyRatio        float64        `json:"healthy_ratio"`
	TenantCount         int            `json:"tenant_count"`
	HealthyTenantCount  int            `json:"healthy_tenant_count"`
	Tenants             []TenantHealth `json:"tenants"`
	CheckedAt           time.Time      `json:"checked_at"`
}

// HealthChecker walks the registry and probes every client database through
// the connection cache, so a previously healthy tenant does not pay a fresh
// connection on every check.
type HealthChecker struct {
	reg          Registry
	cache        *Cache
	probeTimeout time.Duration
	log          *zap.Logger
}

// NewHealthChecker creates a checker with the given per-probe timeout.
func NewHealthChecker(reg Registry, cache *Cache, probeTimeout time.Duration, log *zap.Logger) *HealthChecker {
	return &HealthChecker{
		reg:          reg,
		cache:        cache,
		probeTimeout: probeTimeout,
		log:          log,
	}
}

// Check produces the aggregate report. It never returns an error: per-tenant
// failures are folded into the report, and a control-plane failure
// short-circuits to CRITICAL because nothing works without the registry.
func (h *HealthChecker) Check(ctx context.Context) *Report {
	report := &Report{
		CheckedAt: time.Now(),
		Tenants:   []TenantHealth{},
	}

	cpCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	err := h.reg.Ping(cpCtx)
	cancel()
	if err != nil {
		h.log.Error("control plane unreachable", zap.Error(err))
		report.Status = StatusCritical
		report.ControlPlaneError = err.Error()
		return report
	}
	report.ControlPlaneHealthy = true

	tenants, err := h.reg.ListTenants(ctx)
	if err != nil {
		h.log.Error("tenant registry read failed", zap.Error(err))
		report.Status = StatusCritical
		report.ControlPlaneHealthy = false
		report.ControlPlaneError = err.Error()
		return report
	}

	report.TenantCount = len(tenants)
	report.Tenants = make([]TenantHealth, len(tenants))

	// Probes are independent: they run in parallel, in no particular order,
	// and one unreachable client database only marks that tenant.
	var wg sync.WaitGroup
	for i, tenant := range tenants {
		wg.Add(1)
		go func(i int, id uint, name, status string) {
			defer wg.Done()
			report.Tenants[i] = h.probe(id, name, status)
		}(i, tenant.ID, tenant.Name, tenant.Status)
	}
	wg.Wait()

	for _, th := range report.Tenants {
		if th.Healthy {
			report.HealthyTenantCount++
		}
	}

	if report.TenantCount == 0 {
		report.HealthyRatio = 1.0
	} else {
		report.HealthyRatio = float64(report.HealthyTenantCount) / float64(report.TenantCount)
	}
	if report.HealthyRatio >= healthyRatioThreshold {
		report.Status = StatusHealthy
	} else {
		report.Status = StatusDegraded
	}

	return report
}

func (h *HealthChecker) probe(tenantID uint, name, status string) TenantHealth {
	th := TenantHealth{TenantID: tenantID, Name: name, Status: status}

	probeCtx, cancel := context.WithTimeout(context.Background(), h.probeTimeout)
	defer cancel()

	start := time.Now()
	handle, err := h.cache.Resolve(probeCtx, tenantID)
	if err == nil {
		err = handle.Store.Ping(probeCtx)
	}
	th.Latency = time.Since(start)

	if err != nil {
		h.log.Warn("client database probe failed",
			zap.Uint("tenant_id", tenantID), zap.String("tenant", name), zap.Error(err))
		th.Error = err.Error()
		return th
	}
	th.Healthy = true
	return th
}
