package tenantdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/model"
	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/registry"
)

// fakeRegistry is an in-memory Registry for exercising the cache,
// provisioner and health checker without a control-plane database.
type fakeRegistry struct {
	mu      sync.Mutex
	tenants map[uint]model.Tenant
	nextID  uint
	pingErr error
	listErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{tenants: make(map[uint]model.Tenant)}
}

func (r *fakeRegistry) add(name, storageID, dsn string) model.Tenant {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t := model.Tenant{
		ID:                   r.nextID,
		Name:                 name,
		StorageIdentifier:    storageID,
		ConnectionDescriptor: dsn,
		Status:               model.TenantStatusActive,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	r.tenants[t.ID] = t
	return t
}

func (r *fakeRegistry) Ping(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pingErr
}

func (r *fakeRegistry) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]model.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeRegistry) GetTenant(ctx context.Context, id uint) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return &t, nil
}

func (r *fakeRegistry) InsertTenant(ctx context.Context, tenant *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tenants {
		if existing.StorageIdentifier == tenant.StorageIdentifier {
			return registry.ErrConflict
		}
	}
	r.nextID++
	tenant.ID = r.nextID
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = time.Now()
	r.tenants[tenant.ID] = *tenant
	return nil
}

func (r *fakeRegistry) UpdateTenant(ctx context.Context, id uint, fields map[string]interface{}) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, registry.ErrNotFound
	}
	if v, ok := fields["status"].(string); ok {
		t.Status = v
	}
	if v, ok := fields["name"].(string); ok {
		t.Name = v
	}
	if v, ok := fields["connection_descriptor"].(string); ok {
		t.ConnectionDescriptor = v
	}
	t.UpdatedAt = time.Now()
	r.tenants[id] = t
	return &t, nil
}

func (r *fakeRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tenants)
}

// fakeStore simulates one isolated client database with its own row space.
type fakeStore struct {
	mu           sync.Mutex
	dsn          string
	rows         map[string]string
	migrateCalls int
	pingErr      error
	migrateErr   error
	closed       bool
}

func (s *fakeStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store closed")
	}
	return s.pingErr
}

func (s *fakeStore) Migrate(ctx context.Context, models ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.migrateCalls++
	return s.migrateErr
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStore) put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[key] = value
}

func (s *fakeStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[key]
	return v, ok
}

func (s *fakeStore) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStore) migrateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.migrateCalls
}

// fakeDialer counts connection attempts and can be told to fail or stall for
// specific DSNs.
type fakeDialer struct {
	mu             sync.Mutex
	dials          int
	dialDelay      time.Duration
	dialErr        map[string]error
	pingErr        map[string]error
	migrateFailAll bool
	stores         map[string][]*fakeStore
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		dialErr: make(map[string]error),
		pingErr: make(map[string]error),
		stores:  make(map[string][]*fakeStore),
	}
}

func (d *fakeDialer) Dial(ctx context.Context, dsn string) (Store, error) {
	d.mu.Lock()
	delay := d.dialDelay
	d.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if err := d.dialErr[dsn]; err != nil {
		return nil, err
	}
	s := &fakeStore{dsn: dsn, rows: make(map[string]string), pingErr: d.pingErr[dsn]}
	if d.migrateFailAll {
		s.migrateErr = fmt.Errorf("relation creation failed")
	}
	d.stores[dsn] = append(d.stores[dsn], s)
	return s, nil
}

func (d *fakeDialer) setMigrateFailAll(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.migrateFailAll = fail
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) setDialErr(dsn string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.dialErr, dsn)
	} else {
		d.dialErr[dsn] = err
	}
}

func (d *fakeDialer) setPingErr(dsn string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.pingErr, dsn)
	} else {
		d.pingErr[dsn] = err
	}
}

func (d *fakeDialer) storesFor(dsn string) []*fakeStore {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeStore(nil), d.stores[dsn]...)
}

// fakeEngine records created databases and can fail a configurable number of
// creation attempts with ErrStorageExists.
type fakeEngine struct {
	mu          sync.Mutex
	created     []string
	existsLeft  int
	createError error
}

func (e *fakeEngine) CreateDatabase(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.createError != nil {
		return e.createError
	}
	if e.existsLeft > 0 {
		e.existsLeft--
		return fmt.Errorf("%w: %s", ErrStorageExists, name)
	}
	e.created = append(e.created, name)
	return nil
}

func (e *fakeEngine) DSNFor(name string) string {
	return "host=localhost dbname=" + name
}

func (e *fakeEngine) createdNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.created...)
}
