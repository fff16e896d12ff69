package cmd

import (
	"context"
	"fmt"

	migrations "github.com/frahmantamala/inventory-management/db/migrations"
	platformdb "github.com/frahmantamala/inventory-management/internal/platform/db"
	"github.com/frahmantamala/inventory-management/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	gormlogger "gorm.io/gorm/logger"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "", "sql migrations directory (defaults to the embedded files)")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	log := logger.LoggerWrapper()

	if cfg.Database.Driver == platformdb.DriverSQLite {
		gdb, err := platformdb.Open(cfg.Database, gormlogger.Warn)
		if err != nil {
			return err
		}
		log.Info("sqlite schema is managed by automigrate")
		return platformdb.AutoMigrate(gdb)
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose: %w", err)
	}
	goose.SetTableName("schema_migrations")

	dir := migrateDir
	if dir == "" {
		goose.SetBaseFS(migrations.FS)
		dir = "."
	}

	if migrateRollback {
		if err := goose.DownContext(ctx, db, dir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		log.Info("rolled back latest migration")
		return nil
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	log.Info("migrations applied")
	return nil
}
