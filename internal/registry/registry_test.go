package registry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/model"
)

func newMockRegistry(t *testing.T) (*Registry, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return New(db), mock
}

func tenantRows(tenants ...model.Tenant) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "name", "storage_identifier", "connection_descriptor", "status", "created_at", "updated_at",
	})
	for _, tn := range tenants {
		rows.AddRow(tn.ID, tn.Name, tn.StorageIdentifier, tn.ConnectionDescriptor, tn.Status, tn.CreatedAt, tn.UpdatedAt)
	}
	return rows
}

func TestRegistryPing(t *testing.T) {
	reg, mock := newMockRegistry(t)
	mock.ExpectPing()
	assert.NoError(t, reg.Ping(context.Background()))
}

func TestRegistryPingUnavailable(t *testing.T) {
	reg, mock := newMockRegistry(t)
	mock.ExpectPing().WillReturnError(assert.AnError)
	err := reg.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRegistryListTenantsOrderedByName(t *testing.T) {
	reg, mock := newMockRegistry(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "tenants" ORDER BY name asc`).
		WillReturnRows(tenantRows(
			model.Tenant{ID: 2, Name: "Acme", StorageIdentifier: "acme_1", Status: model.TenantStatusActive, CreatedAt: now, UpdatedAt: now},
			model.Tenant{ID: 1, Name: "Beta", StorageIdentifier: "beta_1", Status: model.TenantStatusSuspended, CreatedAt: now, UpdatedAt: now},
		))

	tenants, err := reg.ListTenants(context.Background())
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "Acme", tenants[0].Name)
	assert.Equal(t, "Beta", tenants[1].Name)
}

func TestRegistryGetTenant(t *testing.T) {
	reg, mock := newMockRegistry(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "tenants" WHERE`).
		WillReturnRows(tenantRows(model.Tenant{
			ID: 7, Name: "Acme", StorageIdentifier: "acme_1",
			ConnectionDescriptor: "host=localhost dbname=acme_1",
			Status:               model.TenantStatusActive, CreatedAt: now, UpdatedAt: now,
		}))

	tenant, err := reg.GetTenant(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), tenant.ID)
	assert.Equal(t, "acme_1", tenant.StorageIdentifier)
}

func TestRegistryGetTenantNotFound(t *testing.T) {
	reg, mock := newMockRegistry(t)
	mock.ExpectQuery(`SELECT \* FROM "tenants" WHERE`).
		WillReturnRows(tenantRows())

	_, err := reg.GetTenant(context.Background(), 999999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryInsertTenant(t *testing.T) {
	reg, mock := newMockRegistry(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tenants"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	tenant := &model.Tenant{
		Name:                 "Acme",
		StorageIdentifier:    "acme_1700000000000",
		ConnectionDescriptor: "host=localhost dbname=acme_1700000000000",
		Status:               model.TenantStatusActive,
	}
	require.NoError(t, reg.InsertTenant(context.Background(), tenant))
	assert.Equal(t, uint(3), tenant.ID)
}

func TestRegistryInsertTenantConflict(t *testing.T) {
	reg, mock := newMockRegistry(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tenants"`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})
	mock.ExpectRollback()

	err := reg.InsertTenant(context.Background(), &model.Tenant{
		Name:              "Acme",
		StorageIdentifier: "acme_1700000000000",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegistryUpdateTenant(t *testing.T) {
	reg, mock := newMockRegistry(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tenants" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "tenants" WHERE`).
		WillReturnRows(tenantRows(model.Tenant{
			ID: 5, Name: "Acme", StorageIdentifier: "acme_1",
			Status: model.TenantStatusSuspended, CreatedAt: now, UpdatedAt: now,
		}))

	tenant, err := reg.UpdateTenant(context.Background(), 5, map[string]interface{}{
		"status": model.TenantStatusSuspended,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TenantStatusSuspended, tenant.Status)
}

func TestRegistryUpdateTenantNotFound(t *testing.T) {
	reg, mock := newMockRegistry(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tenants" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := reg.UpdateTenant(context.Background(), 999999, map[string]interface{}{
		"status": model.TenantStatusArchived,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}
