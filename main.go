package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/finolhu/kinship-engine/pkg/config"
	"github.com/finolhu/kinship-engine/pkg/database"
	"github.com/finolhu/kinship-engine/pkg/handlers"
	"github.com/finolhu/kinship-engine/pkg/logging"
	"github.com/finolhu/kinship-engine/pkg/middleware"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck // flush on shutdown is best-effort

	ctx := context.Background()
	connString := cfg.Database.ConnectionString()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database_url", logging.SanitizeConnectionString(connString)))

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connString,
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrationDB, err := sql.Open("pgx", connString)
	if err != nil {
		logger.Fatal("failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("failed to close migration connection", zap.Error(err))
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, db, logger)
	healthHandler.RegisterRoutes(mux)

	// Every request gets a pinned connection so downstream repository
	// calls and rebuild transactions share one connection.
	handler := middleware.RequestLogger(logger)(middleware.ConnScope(db, logger)(mux))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("starting kinship-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
