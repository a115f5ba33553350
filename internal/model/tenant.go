package model

import (
	"time"
)

// Tenant status values. Status changes and descriptor rotations are
// administrative; the storage identifier never changes after creation.
const (
	TenantStatusActive    = "ACTIVE"
	TenantStatusSuspended = "SUSPENDED"
	TenantStatusArchived  = "ARCHIVED"
)

// Tenant is the control-plane descriptor for one client organization.
// Each tenant owns a fully separate database; the registry row here is the
// only place the tenant is represented in shared storage.
type Tenant struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(100);not null;index"`
	// StorageIdentifier is the database name of the tenant's isolated store.
	// Globally unique and never reused, even after the tenant is archived.
	StorageIdentifier string `json:"storage_identifier" gorm:"type:varchar(120);uniqueIndex;not null"`
	// ConnectionDescriptor is an opaque DSN for the tenant's database. It is
	// handed to the driver as-is and excluded from JSON because it carries
	// credentials.
	ConnectionDescriptor string    `json:"-" gorm:"type:text;not null"`
	Status               string    `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ValidStatus reports whether s is one of the known tenant statuses.
func ValidStatus(s string) bool {
	switch s {
	case TenantStatusActive, TenantStatusSuspended, TenantStatusArchived:
		return true
	}
	return false
}
