package model

import (
	"time"

	"gorm.io/gorm"
)

// The types below are the fixed table set created inside every client
// database. None of them carries a client-identifying column: isolation is
// one-database-per-client, so there is no shared table to accidentally query
// across clients.

// DirectoryUser is a directory-service user record synced from the identity
// provider.
type DirectoryUser struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Login        string         `json:"login" gorm:"type:varchar(255);uniqueIndex;not null"`
	Email        string         `json:"email" gorm:"type:varchar(255);index"`
	FirstName    string         `json:"first_name" gorm:"type:varchar(100)"`
	LastName     string         `json:"last_name" gorm:"type:varchar(100)"`
	Status       string         `json:"status" gorm:"type:varchar(30);index"`
	EmployeeType string         `json:"employee_type" gorm:"type:varchar(50)"`
	ExternalID   string         `json:"external_id" gorm:"type:varchar(100);index"`
	LastSyncedAt *time.Time     `json:"last_synced_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// Integration is a per-client external-service integration and its settings.
type Integration struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Kind      string    `json:"kind" gorm:"type:varchar(50);not null"` // e.g. 'identity_provider', 'ticketing'
	Config    string    `json:"config" gorm:"type:jsonb"`
	Enabled   bool      `json:"enabled" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LayoutSetting stores dashboard layout preferences.
type LayoutSetting struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Key       string    `json:"key" gorm:"type:varchar(100);uniqueIndex;not null"`
	Value     string    `json:"value" gorm:"type:jsonb"`
	UpdatedBy string    `json:"updated_by" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DashboardCard is the configuration of one card on the client dashboard.
type DashboardCard struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"type:varchar(100);not null"`
	Kind      string    `json:"kind" gorm:"type:varchar(50);not null"`
	Position  int       `json:"position" gorm:"index"`
	Config    string    `json:"config" gorm:"type:jsonb"`
	Visible   bool      `json:"visible" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MonitoringCard is the configuration of one card on the monitoring view.
type MonitoringCard struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"type:varchar(100);not null"`
	Source    string    `json:"source" gorm:"type:varchar(100)"`
	Position  int       `json:"position" gorm:"index"`
	Config    string    `json:"config" gorm:"type:jsonb"`
	Visible   bool      `json:"visible" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppMapping maps a directory application to an integration.
type AppMapping struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	AppName       string    `json:"app_name" gorm:"type:varchar(100);not null;index"`
	IntegrationID uint      `json:"integration_id" gorm:"index;not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Integration Integration `json:"integration,omitempty" gorm:"foreignKey:IntegrationID"`
}

// GroupMapping maps a directory group to an employee-type classification.
type GroupMapping struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	GroupName    string    `json:"group_name" gorm:"type:varchar(255);not null;index"`
	EmployeeType string    `json:"employee_type" gorm:"type:varchar(50);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuditLogEntry records an administrative action against this client's data.
type AuditLogEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Actor     string    `json:"actor" gorm:"type:varchar(255);index"`
	Action    string    `json:"action" gorm:"type:varchar(100);not null"`
	Target    string    `json:"target" gorm:"type:varchar(255)"`
	UserID    *uint     `json:"user_id,omitempty" gorm:"index"`
	Detail    string    `json:"detail" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *DirectoryUser `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// ClientTables returns the full table set for a client database, in
// dependency order: tables with foreign-key references come after their
// targets. AutoMigrate is create-if-absent, so replaying this set against a
// partially provisioned database completes it instead of failing.
func ClientTables() []interface{} {
	return []interface{}{
		&DirectoryUser{},
		&Integration{},
		&LayoutSetting{},
		&DashboardCard{},
		&MonitoringCard{},
		&AppMapping{},
		&GroupMapping{},
		&AuditLogEntry{},
	}
}
