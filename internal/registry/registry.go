// Package registry is the single source of truth for the tenant registry
// held in the control-plane database. All operations here touch only the
// control plane, never a tenant's own database.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/model"
)

var (
	// ErrNotFound means the requested tenant has no registry entry.
	ErrNotFound = errors.New("tenant not found in registry")
	// ErrConflict means a tenant with the same storage identifier already exists.
	ErrConflict = errors.New("storage identifier already registered")
	// ErrUnavailable means the control-plane database itself could not be reached.
	ErrUnavailable = errors.New("control plane unavailable")
)

// Postgres error code for unique constraint violations.
const pgUniqueViolation = "23505"

// Registry provides transactional access to the tenant table.
type Registry struct {
	db *gorm.DB
}

// New creates a registry backed by the given control-plane database handle.
func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// Migrate creates the tenant table if it does not exist yet.
func (r *Registry) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&model.Tenant{}); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping verifies the control-plane database is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ListTenants returns every tenant descriptor ordered by name, so listings
// are deterministic regardless of insertion order.
func (r *Registry) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	if result := r.db.WithContext(ctx).Order("name asc").Find(&tenants); result.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, result.Error)
	}
	return tenants, nil
}

// GetTenant returns the descriptor for the given tenant id.
func (r *Registry) GetTenant(ctx context.Context, id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if result := r.db.WithContext(ctx).First(&tenant, id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, result.Error)
	}
	return &tenant, nil
}

// InsertTenant persists a new descriptor, assigning id and timestamps.
// A storage-identifier collision surfaces as ErrConflict.
func (r *Registry) InsertTenant(ctx context.Context, tenant *model.Tenant) error {
	if result := r.db.WithContext(ctx).Create(tenant); result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", ErrConflict, tenant.StorageIdentifier)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, result.Error)
	}
	return nil
}

// UpdateTenant applies a partial update and returns the refreshed descriptor.
// The updated_at timestamp is always advanced by gorm on update.
func (r *Registry) UpdateTenant(ctx context.Context, id uint, fields map[string]interface{}) (*model.Tenant, error) {
	result := r.db.WithContext(ctx).Model(&model.Tenant{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetTenant(ctx, id)
}
