package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"estatehub-backend/internal/config"
	"estatehub-backend/internal/jobs"
	"estatehub-backend/internal/logger"
	"estatehub-backend/internal/repository/postgres"
	"estatehub-backend/internal/scheduler"
	"estatehub-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'send-invoice-reminders', 'all-daily')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting EstateHub Cronjob Runner...", "log_level", cfg.Log.Level)

	if cfg.Database.Driver == "memory" {
		log.Fatalf("Cronjob runner needs a persistent database, driver %q is not supported", cfg.Database.Driver)
	}

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	var notifier service.Notifier
	if cfg.Email.SendGridAPIKey != "" {
		notifier = service.NewSendGridNotifier(cfg.Email.SendGridAPIKey, cfg.Email.FromAddress, cfg.Email.FromName)
	} else {
		logger.Warn("No SendGrid API key configured, reminders will only be logged")
		notifier = service.NewLogNotifier()
	}

	jobServices := &jobs.Services{
		Ledger:   service.NewPaymentLedger(store, nil),
		Estates:  service.NewEstateService(store),
		Notifier: notifier,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to register cron jobs: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "send-invoice-reminders":
		jobRunner.SendInvoiceReminders()
	case "all-daily":
		jobRunner.RunAllDailyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - send-invoice-reminders\n")
		fmt.Printf("  - all-daily\n")
		os.Exit(1)
	}
}
