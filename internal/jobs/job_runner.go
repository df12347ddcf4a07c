package jobs

import (
	"context"
	"time"

	"estatehub-backend/internal/config"
	"estatehub-backend/internal/logger"
	"estatehub-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Ledger   service.PaymentLedger
	Estates  service.EstateService
	Notifier service.Notifier
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	jobFunc(context.Background())
	logger.Info("Job completed", "job", jobName, "duration_ms", time.Since(start).Milliseconds())
}

// RunAllDailyJobs runs all daily jobs (for manual execution)
func (jr *JobRunner) RunAllDailyJobs() {
	jr.SendInvoiceReminders()
}
