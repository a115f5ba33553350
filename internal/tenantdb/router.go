package tenantdb

import (
	"context"

	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/model"
)

// Router is the single entry point the rest of the application uses to reach
// client databases. Pure composition: no business logic lives here.
type Router struct {
	cache  *Cache
	prov   *Provisioner
	health *HealthChecker
}

// NewRouter composes the cache, provisioner and health checker into the
// public facade.
func NewRouter(cache *Cache, prov *Provisioner, health *HealthChecker) *Router {
	return &Router{cache: cache, prov: prov, health: health}
}

// GetTenantStore returns the live handle for the tenant's database.
func (r *Router) GetTenantStore(ctx context.Context, tenantID uint) (*Handle, error) {
	return r.cache.Resolve(ctx, tenantID)
}

// CreateTenant provisions a new tenant and its isolated database.
func (r *Router) CreateTenant(ctx context.Context, name string) (*model.Tenant, error) {
	return r.prov.Provision(ctx, name)
}

// EnsureSchema re-runs idempotent schema creation for a tenant, the recovery
// path after a partial provisioning failure.
func (r *Router) EnsureSchema(ctx context.Context, tenantID uint) error {
	return r.prov.EnsureSchema(ctx, tenantID)
}

// GetHealth reports aggregate reachability of the control plane and every
// client database.
func (r *Router) GetHealth(ctx context.Context) *Report {
	return r.health.Check(ctx)
}

// InvalidateTenant drops the cached connection for a tenant, used after its
// connection descriptor is rotated.
func (r *Router) InvalidateTenant(tenantID uint) {
	r.cache.Invalidate(tenantID)
}

// CachedConnections returns the number of live client connections.
func (r *Router) CachedConnections() int {
	return r.cache.Size()
}

// Shutdown closes every cached client connection. Call once at process exit.
func (r *Router) Shutdown() {
	r.cache.InvalidateAll()
}
