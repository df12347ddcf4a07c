package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "estatehub-backend/internal/api/http"
	"estatehub-backend/internal/config"
	"estatehub-backend/internal/engine"
	"estatehub-backend/internal/identity"
	"estatehub-backend/internal/logger"
	"estatehub-backend/internal/metrics"
	"estatehub-backend/internal/repository"
	"estatehub-backend/internal/repository/memory"
	"estatehub-backend/internal/repository/postgres"
	"estatehub-backend/internal/security"
	"estatehub-backend/internal/service"
	"estatehub-backend/internal/storage"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting EstateHub Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())

	ctx := context.Background()

	// Initialize Directory Store
	dir, closeDir, err := openDirectory(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open directory store", "error", err)
		log.Fatalf("Failed to open directory store: %v", err)
	}
	defer closeDir()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.AccessTokenTTL())

	// Initialize Artifact Storage
	artifacts, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize artifact storage", "type", cfg.Storage.Type, "error", err)
		log.Fatalf("Failed to initialize artifact storage: %v", err)
	}

	// Initialize Notifier
	var notifier service.Notifier
	if cfg.Email.SendGridAPIKey != "" {
		logger.Info("Email notifications enabled", "from", cfg.Email.FromAddress)
		notifier = service.NewSendGridNotifier(cfg.Email.SendGridAPIKey, cfg.Email.FromAddress, cfg.Email.FromName)
	} else {
		logger.Warn("No SendGrid API key configured, notifications will only be logged")
		notifier = service.NewLogNotifier()
	}

	// Initialize Engine
	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
	workflow := engine.New(dir, identity.ContextProvider{}, artifacts, notifier, engineMetrics)

	// Set up HTTP server
	limiter := httpapi.NewRateLimiter(cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst)
	router := httpapi.NewRouter(httpapi.RouterDeps{
		Workflow:  workflow,
		Tokens:    tokenManager,
		Artifacts: artifacts,
		Limiter:   limiter,
		Gatherer:  prometheus.DefaultGatherer,
		Config:    cfg,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepLimiter(sweepCtx, limiter)

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to serve", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

// openDirectory returns the configured Directory Store and its close func.
func openDirectory(ctx context.Context, cfg *config.Config) (repository.Directory, func(), error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory directory store, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Database.MaxOpenConn > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConn)
	}

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate schema: %w", err)
		}
		logger.Info("Database schema migrated")
	}

	return postgres.NewStore(db), func() { db.Close() }, nil
}

func sweepLimiter(ctx context.Context, limiter *httpapi.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep(10 * time.Minute)
		}
	}
}
