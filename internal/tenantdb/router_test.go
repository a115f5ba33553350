package tenantdb

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(reg *fakeRegistry, engine *fakeEngine, dialer *fakeDialer) *Router {
	cache := newTestCache(reg, dialer)
	prov := newTestProvisioner(reg, engine, dialer, cache)
	health := newTestHealthChecker(reg, cache)
	return NewRouter(cache, prov, health)
}

func TestRouterEndToEnd(t *testing.T) {
	reg := newFakeRegistry()
	engine := &fakeEngine{}
	dialer := newFakeDialer()
	router := newTestRouter(reg, engine, dialer)

	// Create a tenant, then immediately route to its store.
	tenant, err := router.CreateTenant(context.Background(), "Acme Corp")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tenant.StorageIdentifier, "acme_corp_"))

	h, err := router.GetTenantStore(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, h.TenantID)
	assert.Equal(t, 1, router.CachedConnections())

	report := router.GetHealth(context.Background())
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, 1, report.TenantCount)
}

func TestRouterGetTenantStoreNotFound(t *testing.T) {
	router := newTestRouter(newFakeRegistry(), &fakeEngine{}, newFakeDialer())

	_, err := router.GetTenantStore(context.Background(), 999999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestRouterInvalidateAndShutdown(t *testing.T) {
	reg := newFakeRegistry()
	engine := &fakeEngine{}
	dialer := newFakeDialer()
	router := newTestRouter(reg, engine, dialer)

	a, err := router.CreateTenant(context.Background(), "Acme")
	require.NoError(t, err)
	_, err = router.CreateTenant(context.Background(), "Beta")
	require.NoError(t, err)
	require.Equal(t, 2, router.CachedConnections())

	router.InvalidateTenant(a.ID)
	assert.Equal(t, 1, router.CachedConnections())

	router.Shutdown()
	assert.Equal(t, 0, router.CachedConnections())
}
