package app

import (
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learnhub/config"
	"github.com/sahilchouksey/learnhub/database"
	"github.com/sahilchouksey/learnhub/messaging"
	"github.com/sahilchouksey/learnhub/services"
	"github.com/sahilchouksey/learnhub/services/cron"
	"github.com/sahilchouksey/learnhub/services/rules"
)

// runAchievementWorker consumes lesson events, awards achievements and runs the maintenance jobs
func runAchievementWorker(env *config.EnvironmentVariable) error {
	store, err := openStore(env, database.AchievementModels)
	if err != nil {
		return err
	}
	defer store.Close()

	bus, err := connectBus(env, "achievement-worker")
	if err != nil {
		return err
	}

	redisCache := connectRedis(env)
	defer closeRedis(redisCache)

	svc := services.NewAchievementService(store.DB(), rules.NewRuleSet(env.SILVER_THRESHOLD), bus, redisCache)

	if err := registerWorkerHandlers(bus, svc); err != nil {
		bus.Close()
		return err
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if env.CRON_ENABLED {
		cronManager = cron.NewCronManager(store.DB(), svc, env.EVENT_LOG_RETENTION_DAYS)
		if err := cronManager.Start(); err != nil {
			// Don't fail the worker, just log the warning
			fiberlog.Warnw("failed to start cron jobs", "error", err)
			cronManager = nil
		}
	}

	fiberlog.Info("achievement worker listening")
	sig := waitForSignal()
	fiberlog.Infow("shutdown signal received", "signal", sig.String())

	// Drain first so in-flight awards finish before the jobs and the DB go away
	if err := bus.Close(); err != nil {
		fiberlog.Warnw("failed to drain bus", "error", err)
	}
	if cronManager != nil {
		cronManager.Stop()
	}
	return nil
}

func registerWorkerHandlers(sub messaging.Subscriber, svc *services.AchievementService) error {
	if err := sub.Subscribe(messaging.EventLessonCompleted, svc.Recorded(svc.HandleLessonCompleted)); err != nil {
		return err
	}
	return sub.Subscribe(messaging.EventUserEnrolled, svc.Recorded(svc.RecordOnly))
}
