// Package dbtest opens throwaway sqlite databases for repository tests.
package dbtest

import (
	"fmt"

	platformdb "github.com/frahmantamala/inventory-management/internal/platform/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLite returns an in-memory database with the full schema applied.
// The pool is pinned to one connection so every query sees the same memory
// database; never issue a query on the root handle from inside a transaction.
func NewSQLite() (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("dbtest: open: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := platformdb.AutoMigrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}
