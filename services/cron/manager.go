package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/learnhub/model"
	"gorm.io/gorm"
)

const (
	JobReconcileUserStats = "reconcile_user_stats"
	JobPurgeEventLogs     = "purge_event_logs"

	reconcileSchedule = "0 0 * * * *" // hourly
	purgeSchedule     = "0 0 3 * * *" // daily at 3 AM
)

// Maintainer is the achievement upkeep the scheduled jobs drive
type Maintainer interface {
	RecomputeUserStats(ctx context.Context) (int, error)
	PurgeEventLogs(ctx context.Context, cutoff time.Time) (int64, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron          *cron.Cron
	db            *gorm.DB
	maintainer    Maintainer
	retentionDays int
	jobTimeout    time.Duration
}

// NewCronManager creates a new cron manager. Job runs are logged to db.
func NewCronManager(db *gorm.DB, maintainer Maintainer, retentionDays int) *CronManager {
	if retentionDays < 1 {
		retentionDays = 30
	}

	// Seconds precision; a job still running when its next tick fires is skipped
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	return &CronManager{
		cron:          c,
		db:            db,
		maintainer:    maintainer,
		retentionDays: retentionDays,
		jobTimeout:    5 * time.Minute,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	log.Info("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Infow("Cron jobs started", "jobs", len(m.cron.Entries()))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *CronManager) Stop() {
	log.Info("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Info("Cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	jobs := []struct {
		schedule string
		name     string
		run      func(ctx context.Context) (string, error)
	}{
		{reconcileSchedule, JobReconcileUserStats, m.ReconcileUserStats},
		{purgeSchedule, JobPurgeEventLogs, m.PurgeEventLogs},
	}

	for _, job := range jobs {
		if _, err := m.cron.AddFunc(job.schedule, func() { m.RunJob(job.name, job.run) }); err != nil {
			return fmt.Errorf("failed to register %s: %w", job.name, err)
		}
	}

	log.Info("All cron jobs registered successfully")
	return nil
}

// RunJob runs one job and records the run in cron_job_logs
func (m *CronManager) RunJob(name string, run func(ctx context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), m.jobTimeout)
	defer cancel()

	entry := m.logJobStart(name)

	message, err := run(ctx)
	if err != nil {
		m.logJobError(entry, err)
		return
	}
	m.logJobComplete(entry, message)
}

// ReconcileUserStats rebuilds user stats from the award rows
func (m *CronManager) ReconcileUserStats(ctx context.Context) (string, error) {
	n, err := m.maintainer.RecomputeUserStats(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("reconciled stats for %d users", n), nil
}

// PurgeEventLogs drops event log rows older than the retention window
func (m *CronManager) PurgeEventLogs(ctx context.Context) (string, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -m.retentionDays)
	n, err := m.maintainer.PurgeEventLogs(ctx, cutoff)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("purged %d event logs older than %d days", n, m.retentionDays), nil
}

func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	log.Infow("[CRON] Starting job", "job", jobName)

	entry := &model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now().UTC(),
	}
	if err := m.db.Create(entry).Error; err != nil {
		log.Warnw("[CRON] failed to record job start", "job", jobName, "error", err)
	}
	return entry
}

func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string) {
	log.Infow("[CRON] Completed job", "job", entry.JobName, "message", message)
	m.finish(entry, map[string]interface{}{
		"status":  "completed",
		"message": message,
	})
}

func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	log.Errorw("[CRON] Error in job", "job", entry.JobName, "error", err)
	m.finish(entry, map[string]interface{}{
		"status":    "failed",
		"error_msg": err.Error(),
	})
}

func (m *CronManager) finish(entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	now := time.Now().UTC()
	updates["completed_at"] = now
	updates["duration"] = now.Sub(entry.StartedAt).Milliseconds()

	if err := m.db.Model(entry).Updates(updates).Error; err != nil {
		log.Warnw("[CRON] failed to record job result", "job", entry.JobName, "error", err)
	}
}
