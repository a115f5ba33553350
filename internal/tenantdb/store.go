// Package tenantdb routes logical client (tenant) identifiers to isolated
// per-client databases: it caches live connections, provisions new client
// databases with their full table set, and aggregates health across the
// control plane and every client store.
package tenantdb

import (
	"context"

	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/model"
)

// Store is a live handle to one isolated client database.
type Store interface {
	// Ping is the liveness probe: a minimal round-trip confirming the
	// connection is usable.
	Ping(ctx context.Context) error
	// Migrate creates the given tables if absent. Safe to re-run against a
	// partially initialized database.
	Migrate(ctx context.Context, models ...interface{}) error
	// Close releases the underlying connection pool.
	Close() error
}

// Dialer establishes connections to client databases from their opaque
// connection descriptors.
type Dialer interface {
	Dial(ctx context.Context, dsn string) (Store, error)
}

// Engine is the privileged surface of the database server, used only during
// provisioning. It is distinct from any tenant connection.
type Engine interface {
	// CreateDatabase creates an isolated database. Returns ErrStorageExists
	// when the name is already taken.
	CreateDatabase(ctx context.Context, name string) error
	// DSNFor derives the connection descriptor for a database on this engine.
	DSNFor(name string) string
}

// Registry is the subset of the control-plane accessor this package needs.
// Satisfied by *registry.Registry.
type Registry interface {
	Ping(ctx context.Context) error
	ListTenants(ctx context.Context) ([]model.Tenant, error)
	GetTenant(ctx context.Context, id uint) (*model.Tenant, error)
	InsertTenant(ctx context.Context, tenant *model.Tenant) error
	UpdateTenant(ctx context.Context, id uint, fields map[string]interface{}) (*model.Tenant, error)
}

// Handle pairs a tenant id with its live store. Handles live in memory only
// and survive until explicit invalidation or process shutdown.
type Handle struct {
	TenantID uint
	Store    Store
}
