package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/registry"
)

// Cache memoizes live client database handles keyed by tenant id. Misses for
// the same tenant coalesce into one connection attempt; misses for different
// tenants proceed fully in parallel, so one slow client database never blocks
// resolution of another.
type Cache struct {
	reg         Registry
	dialer      Dialer
	dialTimeout time.Duration
	log         *zap.Logger

	mu      sync.RWMutex
	handles map[uint]*Handle
	group   singleflight.Group
}

// NewCache creates an empty cache. dialTimeout bounds every connection
// attempt including the verification probe.
func NewCache(reg Registry, dialer Dialer, dialTimeout time.Duration, log *zap.Logger) *Cache {
	return &Cache{
		reg:         reg,
		dialer:      dialer,
		dialTimeout: dialTimeout,
		log:         log,
		handles:     make(map[uint]*Handle),
	}
}

// Resolve returns the live handle for the tenant, establishing and caching a
// connection on first access. A failed attempt is never cached, so a later
// call retries once the client database recovers.
func (c *Cache) Resolve(ctx context.Context, tenantID uint) (*Handle, error) {
	c.mu.RLock()
	h, ok := c.handles[tenantID]
	c.mu.RUnlock()
	if ok {
		return h, nil
	}

	// The registry lookup runs under the caller's context; if the tenant is
	// unknown there is nothing to coalesce.
	tenant, err := c.reg.GetTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrTenantNotFound, tenantID)
		}
		return nil, err
	}

	v, err, _ := c.group.Do(strconv.FormatUint(uint64(tenantID), 10), func() (interface{}, error) {
		// Another caller may have won the race before this flight started.
		c.mu.RLock()
		h, ok := c.handles[tenantID]
		c.mu.RUnlock()
		if ok {
			return h, nil
		}

		// Detached context: the first caller cancelling must not fail the
		// coalesced waiters. The dial timeout bounds the attempt instead.
		dialCtx, cancel := context.WithTimeout(context.Background(), c.dialTimeout)
		defer cancel()

		store, err := c.dialer.Dial(dialCtx, tenant.ConnectionDescriptor)
		if err != nil {
			return nil, fmt.Errorf("%w: tenant %d: %v", ErrTenantUnreachable, tenantID, err)
		}
		if err := store.Ping(dialCtx); err != nil {
			if cerr := store.Close(); cerr != nil {
				c.log.Warn("closing unverified client connection failed",
					zap.Uint("tenant_id", tenantID), zap.Error(cerr))
			}
			return nil, fmt.Errorf("%w: tenant %d: %v", ErrTenantUnreachable, tenantID, err)
		}

		handle := &Handle{TenantID: tenantID, Store: store}
		c.mu.Lock()
		c.handles[tenantID] = handle
		c.mu.Unlock()

		c.log.Info("client database connection established",
			zap.Uint("tenant_id", tenantID), zap.String("tenant", tenant.Name))
		return handle, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// Register installs a freshly provisioned handle so the next Resolve is a
// cache hit. An existing handle for the same tenant is replaced and its
// connection closed best-effort in the background, like Invalidate.
func (c *Cache) Register(h *Handle) {
	c.mu.Lock()
	old, ok := c.handles[h.TenantID]
	c.handles[h.TenantID] = h
	c.mu.Unlock()
	if !ok || old == h {
		return
	}
	go func() {
		if err := old.Store.Close(); err != nil {
			c.log.Warn("closing displaced client connection failed",
				zap.Uint("tenant_id", h.TenantID), zap.Error(err))
		}
	}()
}

// Invalidate drops the cached handle, e.g. after a connection-descriptor
// rotation. The underlying connection is closed best-effort in the
// background: in-flight operations may still hold a reference, and a close
// failure is logged, never propagated.
func (c *Cache) Invalidate(tenantID uint) {
	c.mu.Lock()
	h, ok := c.handles[tenantID]
	delete(c.handles, tenantID)
	c.mu.Unlock()
	if !ok {
		return
	}
	go func() {
		if err := h.Store.Close(); err != nil {
			c.log.Warn("closing invalidated client connection failed",
				zap.Uint("tenant_id", tenantID), zap.Error(err))
		}
	}()
}

// InvalidateAll drops every cached handle. Only used at process shutdown.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	handles := c.handles
	c.handles = make(map[uint]*Handle)
	c.mu.Unlock()
	for id, h := range handles {
		if err := h.Store.Close(); err != nil {
			c.log.Warn("closing client connection on shutdown failed",
				zap.Uint("tenant_id", id), zap.Error(err))
		}
	}
}

// Size returns the number of cached handles.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handles)
}
