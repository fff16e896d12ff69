package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/access"
	accessPostgres "github.com/frahmantamala/inventory-management/internal/access/postgres"
	"github.com/frahmantamala/inventory-management/internal/audit"
	"github.com/frahmantamala/inventory-management/internal/grant"
	"github.com/frahmantamala/inventory-management/internal/permission"
	platformdb "github.com/frahmantamala/inventory-management/internal/platform/db"
	"github.com/frahmantamala/inventory-management/internal/session"
	sessionPostgres "github.com/frahmantamala/inventory-management/internal/session/postgres"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/internal/transport/rest"
	"github.com/frahmantamala/inventory-management/internal/user"
	"github.com/frahmantamala/inventory-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	Gorm   *gorm.DB
	DB     *sqlx.DB
	Redis  *redis.Client
	Router *chi.Mux
	Logger *slog.Logger
}

func (d *Dependencies) Close() {
	if err := d.Redis.Close(); err != nil {
		d.Logger.Error("Redis close error", "error", err)
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "env", deps.Config.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	gdb, sqlxDB, err := initDB(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c := newCore(gdb, config.Security.BCryptCost, log)

	authority := session.NewAuthority(session.Dependencies{
		Repo:      sessionPostgres.NewSessionRepository(gdb),
		Store:     session.NewRedisStore(redisClient),
		Users:     c.users,
		Catalog:   c.permissions,
		Grants:    c.grants,
		Tokens:    session.NewJWTTokenGenerator(config.Security.AccessTokenSecret, config.Security.AccessTokenDuration),
		Publisher: c.bus,
	}, config.Security.SessionTTL, log)

	gate := access.NewGate(accessPostgres.NewLiveLookup(sqlxDB), c.grants, log)

	base := transport.NewBaseHandler(log)
	handlers := rest.Handlers{
		Health: rest.NewHealthHandler(sqlxDB, redisClient),
		Session: session.NewHandler(base, authority, session.CookieConfig{
			Name:   config.Security.SessionCookieName,
			Secure: config.Security.SecureCookie,
		}),
		User:       user.NewHandler(base, c.users),
		Permission: permission.NewHandler(base, c.permissions),
		Grant:      grant.NewHandler(base, c.grants),
		Access:     access.NewHandler(base, gate),
		Audit:      audit.NewHandler(base, c.audit),
		Gate:       access.NewMiddleware(base, gate),
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, handlers, rest.Options{
		Production:     config.IsProduction(),
		TrustProxy:     config.Server.TrustProxy,
		AllowedOrigins: config.Server.AllowedOrigins,
		LoginPerMinute: config.RateLimit.LoginPerMinute,
	})

	return &Dependencies{
		Config: config,
		Gorm:   gdb,
		DB:     sqlxDB,
		Redis:  redisClient,
		Router: router,
		Logger: log,
	}, nil
}

// initDB opens gorm for the repositories and shares its pool with sqlx.
// sqlite databases are created in place; postgres is migrated by goose.
func initDB(config *internal.Config) (*gorm.DB, *sqlx.DB, error) {
	level := gormlogger.Warn
	if config.Logging.Level == "debug" {
		level = gormlogger.Info
	}

	gdb, err := platformdb.Open(config.Database, level)
	if err != nil {
		return nil, nil, err
	}

	if config.Database.Driver == platformdb.DriverSQLite {
		if err := platformdb.AutoMigrate(gdb); err != nil {
			return nil, nil, err
		}
	}

	sqlxDB, err := platformdb.SQLX(gdb)
	if err != nil {
		return nil, nil, err
	}
	return gdb, sqlxDB, nil
}
