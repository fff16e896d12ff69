package dbtest

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"testing/fstest"

	migrations "github.com/frahmantamala/inventory-management/db/migrations"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteDialect rewrites the postgres-only column types of the migrations.
var sqliteDialect = strings.NewReplacer(
	"BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY",
	"TIMESTAMPTZ", "DATETIME",
	"now()", "CURRENT_TIMESTAMP",
)

// NewMigratedSQLite returns an in-memory database built by running the
// embedded goose migrations, with foreign keys enforced.
func NewMigratedSQLite() (*gorm.DB, error) {
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

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("dbtest: enable foreign keys: %w", err)
	}

	files, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return nil, err
	}
	rewritten := fstest.MapFS{}
	for _, name := range files {
		body, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return nil, err
		}
		rewritten[name] = &fstest.MapFile{Data: []byte(sqliteDialect.Replace(string(body)))}
	}

	goose.SetBaseFS(rewritten)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, err
	}
	if err := goose.UpContext(context.Background(), sqlDB, "."); err != nil {
		return nil, fmt.Errorf("dbtest: migrate: %w", err)
	}
	return gdb, nil
}
