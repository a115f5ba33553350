package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Sherrmann013/OktaDeploy1-sub002/pkg/database"
)

// Postgres error code for duplicate_database.
const pgDuplicateDatabase = "42P04"

// Storage identifiers are produced by NormalizeStorageName plus a numeric
// suffix, so anything outside this shape is rejected before it gets near a
// CREATE DATABASE statement.
var storageNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// gormStore adapts a gorm handle to the Store interface.
type gormStore struct {
	db *gorm.DB
}

func (s *gormStore) Ping(ctx context.Context) error {
	return database.Ping(ctx, s.db)
}

func (s *gormStore) Migrate(ctx context.Context, models ...interface{}) error {
	return database.Migrate(ctx, s.db, models...)
}

func (s *gormStore) Close() error {
	return database.Close(s.db)
}

// DB exposes the underlying gorm handle for per-client CRUD by the rest of
// the application.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// GormDB unwraps a Store produced by GormDialer. Returns nil for stores from
// other dialers (test doubles).
func GormDB(s Store) *gorm.DB {
	if gs, ok := s.(*gormStore); ok {
		return gs.DB()
	}
	return nil
}

// GormDialer opens client databases through gorm with a shared set of pool
// options.
type GormDialer struct {
	opts database.Options
}

// NewGormDialer creates a dialer applying the given pool options to every
// client connection.
func NewGormDialer(opts database.Options) *GormDialer {
	return &GormDialer{opts: opts}
}

// Dial opens a connection to the database identified by dsn. The descriptor
// is opaque here: it goes to the driver untouched. The open itself is lazy;
// the ping under ctx is the reachability gate, so the whole attempt is
// bounded by the caller's deadline.
func (d *GormDialer) Dial(ctx context.Context, dsn string) (Store, error) {
	db, err := database.Connect(dsn, d.opts)
	if err != nil {
		return nil, err
	}
	if err := database.Ping(ctx, db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return &gormStore{db: db}, nil
}

// PostgresEngine issues privileged commands (database creation) against the
// server named by an admin DSN.
type PostgresEngine struct {
	db       *gorm.DB
	adminDSN string
}

// NewPostgresEngine opens the privileged connection and verifies it is
// reachable under ctx. The admin DSN must belong to a role with CREATEDB
// rights.
func NewPostgresEngine(ctx context.Context, adminDSN string, opts database.Options) (*PostgresEngine, error) {
	db, err := database.Connect(adminDSN, opts)
	if err != nil {
		return nil, err
	}
	if err := database.Ping(ctx, db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return &PostgresEngine{db: db, adminDSN: adminDSN}, nil
}

// CreateDatabase creates an isolated database with the given name.
func (e *PostgresEngine) CreateDatabase(ctx context.Context, name string) error {
	if !storageNamePattern.MatchString(name) {
		return fmt.Errorf("invalid storage identifier %q", name)
	}
	// CREATE DATABASE cannot be parameterized; the pattern check above is
	// what makes the interpolation safe.
	if err := e.db.WithContext(ctx).Exec("CREATE DATABASE " + name).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgDuplicateDatabase {
			return fmt.Errorf("%w: %s", ErrStorageExists, name)
		}
		return err
	}
	return nil
}

// DSNFor derives a client database DSN from the admin DSN by swapping the
// dbname field. The rest of the descriptor (host, credentials, sslmode) is
// carried over unchanged.
func (e *PostgresEngine) DSNFor(name string) string {
	fields := strings.Fields(e.adminDSN)
	replaced := false
	for i, f := range fields {
		if strings.HasPrefix(f, "dbname=") {
			fields[i] = "dbname=" + name
			replaced = true
		}
	}
	if !replaced {
		fields = append(fields, "dbname="+name)
	}
	return strings.Join(fields, " ")
}

// Close releases the privileged connection.
func (e *PostgresEngine) Close() error {
	return database.Close(e.db)
}
