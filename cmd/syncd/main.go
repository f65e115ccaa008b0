package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	syncapp "github.com/partnerhub/backend/internal/application/billingsync"
	"github.com/partnerhub/backend/internal/infrastructure/config"
	"github.com/partnerhub/backend/internal/infrastructure/logger"
	"github.com/partnerhub/backend/internal/infrastructure/persistence"
	"github.com/partnerhub/backend/internal/infrastructure/persistence/models"
	"github.com/partnerhub/backend/internal/infrastructure/scheduler"
	"github.com/partnerhub/backend/internal/infrastructure/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting billing sync daemon",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.AutoMigrate(
		&models.BillingConnectionModel{},
		&models.RemoteCustomerModel{},
		&models.RemoteInvoiceModel{},
		&models.RemoteQuoteModel{},
		&models.RemoteSubscriptionModel{},
	); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Initialize tracing (no-op provider when telemetry is disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Register database query tracing (if enabled)
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Error("Failed to register database tracing", zap.Error(err))
	}

	// Wire the sync service and its scheduler
	store := persistence.NewGormStore(db.DB)
	syncService := syncapp.NewSyncService(store, cfg.Billing, log)

	syncScheduler, err := scheduler.NewBillingSyncScheduler(
		scheduler.NewBillingSyncSchedulerConfig(cfg.Sync),
		syncService,
		log,
	)
	if err != nil {
		log.Fatal("Failed to create sync scheduler", zap.Error(err))
	}
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down billing sync daemon")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := syncScheduler.Stop(ctx); err != nil {
		log.Error("Error stopping sync scheduler", zap.Error(err))
	}

	log.Info("Billing sync daemon stopped")
}
