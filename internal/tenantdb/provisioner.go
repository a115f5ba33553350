package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/model"
	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/registry"
)

// Provisioner turns a tenant creation request into a fully usable isolated
// database: derive a unique database name, create it, persist the
// descriptor, create the client table set and pre-warm the connection cache.
type Provisioner struct {
	reg            Registry
	engine         Engine
	dialer         Dialer
	cache          *Cache
	dialTimeout    time.Duration
	migrateTimeout time.Duration
	log            *zap.Logger

	// Stamps are strictly monotonic per process so concurrent requests for
	// the same name can never derive the same identifier.
	stampMu   sync.Mutex
	lastStamp int64
}

// NewProvisioner wires a provisioner to the registry, the privileged engine,
// the dialer and the connection cache.
func NewProvisioner(reg Registry, engine Engine, dialer Dialer, cache *Cache, dialTimeout, migrateTimeout time.Duration, log *zap.Logger) *Provisioner {
	return &Provisioner{
		reg:            reg,
		engine:         engine,
		dialer:         dialer,
		cache:          cache,
		dialTimeout:    dialTimeout,
		migrateTimeout: migrateTimeout,
		log:            log,
	}
}

// NormalizeStorageName lower-cases the display name and replaces every
// character outside [a-z0-9_] with an underscore, yielding an
// identifier-safe database name fragment.
func NormalizeStorageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (p *Provisioner) nextStamp() int64 {
	p.stampMu.Lock()
	defer p.stampMu.Unlock()
	stamp := time.Now().UnixMilli()
	if stamp <= p.lastStamp {
		stamp = p.lastStamp + 1
	}
	p.lastStamp = stamp
	return stamp
}

func (p *Provisioner) storageIdentifier(name string) string {
	return fmt.Sprintf("%s_%d", NormalizeStorageName(name), p.nextStamp())
}

// Provision creates a new tenant end to end. If table creation fails after
// the descriptor is persisted, the descriptor is returned alongside
// ErrProvisioning: the tenant is registered but incomplete, and EnsureSchema
// is the recovery path. The freshly created database is deliberately not
// dropped on failure.
func (p *Provisioner) Provision(ctx context.Context, name string) (*model.Tenant, error) {
	// Derive the database name and create it. The millisecond stamp makes a
	// collision astronomically unlikely; if one happens anyway, retry exactly
	// once with a fresh stamp.
	storageID := p.storageIdentifier(name)
	if err := p.engine.CreateDatabase(ctx, storageID); err != nil {
		if !errors.Is(err, ErrStorageExists) {
			return nil, fmt.Errorf("%w: create database %s: %v", ErrProvisioning, storageID, err)
		}
		p.log.Warn("storage identifier collision, retrying with fresh stamp",
			zap.String("storage_identifier", storageID))
		storageID = p.storageIdentifier(name)
		if err := p.engine.CreateDatabase(ctx, storageID); err != nil {
			return nil, fmt.Errorf("%w: create database %s: %v", ErrProvisioning, storageID, err)
		}
	}

	tenant := &model.Tenant{
		Name:                 name,
		StorageIdentifier:    storageID,
		ConnectionDescriptor: p.engine.DSNFor(storageID),
		Status:               model.TenantStatusActive,
	}
	if err := p.reg.InsertTenant(ctx, tenant); err != nil {
		// No descriptor was persisted; the empty database stays behind under
		// a name that will never be reused.
		return nil, err
	}

	handle, err := p.initializeSchema(tenant)
	if err != nil {
		p.log.Error("tenant registered but schema creation incomplete",
			zap.Uint("tenant_id", tenant.ID),
			zap.String("storage_identifier", storageID),
			zap.Error(err))
		return tenant, fmt.Errorf("%w: tenant %d schema: %v", ErrProvisioning, tenant.ID, err)
	}
	p.cache.Register(handle)

	p.log.Info("tenant provisioned",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("tenant", name),
		zap.String("storage_identifier", storageID))
	return tenant, nil
}

// initializeSchema opens a connection to the tenant's database and creates
// the full client table set.
func (p *Provisioner) initializeSchema(tenant *model.Tenant) (*Handle, error) {
	dialCtx, cancel := context.WithTimeout(context.Background(), p.dialTimeout)
	defer cancel()
	store, err := p.dialer.Dial(dialCtx, tenant.ConnectionDescriptor)
	if err != nil {
		return nil, err
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), p.migrateTimeout)
	defer cancel()
	if err := store.Migrate(migrateCtx, model.ClientTables()...); err != nil {
		if cerr := store.Close(); cerr != nil {
			p.log.Warn("closing connection after failed schema creation",
				zap.Uint("tenant_id", tenant.ID), zap.Error(cerr))
		}
		return nil, err
	}
	return &Handle{TenantID: tenant.ID, Store: store}, nil
}

// EnsureSchema re-runs table creation for an already registered tenant.
// Every table creation is create-if-absent, so this is idempotent and
// completes a partially provisioned database instead of erroring.
func (p *Provisioner) EnsureSchema(ctx context.Context, tenantID uint) error {
	if _, err := p.reg.GetTenant(ctx, tenantID); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrTenantNotFound, tenantID)
		}
		return err
	}

	handle, err := p.cache.Resolve(ctx, tenantID)
	if err != nil {
		return err
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), p.migrateTimeout)
	defer cancel()
	if err := handle.Store.Migrate(migrateCtx, model.ClientTables()...); err != nil {
		return fmt.Errorf("%w: tenant %d schema: %v", ErrProvisioning, tenantID, err)
	}

	p.log.Info("tenant schema ensured", zap.Uint("tenant_id", tenantID))
	return nil
}
