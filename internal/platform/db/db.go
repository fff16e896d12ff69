package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/inventory-management/internal"
	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
	permissionDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/permission"
	userDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/user"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// partialIndexes cannot be expressed as gorm tags; they hold the two
// uniqueness rules that must survive concurrent writers.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_permissions_active ON user_permissions (user_id, permission_id) WHERE archived = false`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active ON users (lower(username)) WHERE archived = false`,
}

// Open connects gorm to the configured driver and applies the pool settings.
func Open(cfg internal.DatabaseConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.Source)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.Source)
	default:
		return nil, fmt.Errorf("platform/db: unsupported driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("platform/db: open: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("platform/db: underlying db: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// in-memory sqlite is per connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return gdb, nil
}

// SQLX wraps the gorm connection pool for hand-written queries.
func SQLX(gdb *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("platform/db: underlying db: %w", err)
	}
	driverName := "pgx"
	if gdb.Dialector.Name() == DriverSQLite {
		driverName = "sqlite3"
	}
	return sqlx.NewDb(sqlDB, driverName), nil
}

// AutoMigrate creates the schema for development and tests. Production
// databases are migrated with the goose files under db/migrations.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&userDatamodel.User{},
		&userDatamodel.UserSession{},
		&permissionDatamodel.Permission{},
		&permissionDatamodel.UserPermission{},
		&auditDatamodel.AuditLog{},
	); err != nil {
		return fmt.Errorf("platform/db: automigrate: %w", err)
	}

	for _, stmt := range partialIndexes {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("platform/db: create index: %w", err)
		}
	}
	return nil
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
