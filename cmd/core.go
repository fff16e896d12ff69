package cmd

import (
	"log/slog"

	"github.com/frahmantamala/inventory-management/internal/audit"
	auditPostgres "github.com/frahmantamala/inventory-management/internal/audit/postgres"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/internal/grant"
	grantPostgres "github.com/frahmantamala/inventory-management/internal/grant/postgres"
	"github.com/frahmantamala/inventory-management/internal/permission"
	permissionPostgres "github.com/frahmantamala/inventory-management/internal/permission/postgres"
	"github.com/frahmantamala/inventory-management/internal/user"
	userPostgres "github.com/frahmantamala/inventory-management/internal/user/postgres"
	"github.com/frahmantamala/inventory-management/pkg/logger"
	"gorm.io/gorm"
)

// core holds the services shared by the server and the admin commands.
// Every change they make is audited through the bus.
type core struct {
	db          *gorm.DB
	bus         *events.EventBus
	audit       *audit.Service
	users       *user.Service
	permissions *permission.Service
	grants      *grant.Service
}

func newCore(gdb *gorm.DB, bcryptCost int, log *slog.Logger) *core {
	bus := events.NewEventBus(log)
	auditService := audit.NewService(auditPostgres.NewAuditRepository(gdb), log)
	auditService.RegisterEventHandlers(bus)

	return &core{
		db:          gdb,
		bus:         bus,
		audit:       auditService,
		users:       user.NewService(userPostgres.NewUserRepository(gdb), bus, bcryptCost, log),
		permissions: permission.NewService(permissionPostgres.NewPermissionRepository(gdb), bus, log),
		grants:      grant.NewService(grantPostgres.NewGrantRepository(gdb), bus, log),
	}
}

// openCore loads the config and connects the services without the HTTP or
// session layers.
func openCore() (*core, func(), error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, nil, err
	}
	gdb, sqlxDB, err := initDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	c := newCore(gdb, cfg.Security.BCryptCost, logger.LoggerWrapper())
	return c, func() { _ = sqlxDB.Close() }, nil
}
