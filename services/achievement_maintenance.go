package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learnhub/messaging"
	"github.com/sahilchouksey/learnhub/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Recorded wraps a bus handler so every consumed event lands in the event log.
// Events already logged as processed are skipped, which absorbs bus redeliveries.
func (s *AchievementService) Recorded(handler messaging.Handler) messaging.Handler {
	return func(ctx context.Context, event messaging.DomainEvent) error {
		processed, err := s.isProcessed(ctx, event.EventID)
		if err != nil {
			log.Warnw("failed to check event log", "eventId", event.EventID, "error", err)
		} else if processed {
			log.Debugw("skipping already processed event", "eventId", event.EventID)
			return nil
		}

		handlerErr := handler(ctx, event)

		if err := s.RecordEvent(ctx, event, handlerErr); err != nil {
			log.Warnw("failed to record event", "eventId", event.EventID, "error", err)
		}
		return handlerErr
	}
}

// RecordOnly is a handler that just logs the event
func (s *AchievementService) RecordOnly(ctx context.Context, event messaging.DomainEvent) error {
	return nil
}

func (s *AchievementService) isProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.EventLog{}).
		Where("event_id = ? AND status = ?", eventID, model.EventLogProcessed).
		Count(&count).Error
	return count > 0, err
}

// RecordEvent upserts the event log row for event with the handler outcome
func (s *AchievementService) RecordEvent(ctx context.Context, event messaging.DomainEvent, handlerErr error) error {
	entry := model.EventLog{
		EventID:     event.EventID,
		EventType:   event.EventType,
		AggregateID: event.AggregateID,
		Payload:     datatypes.JSON(event.Data),
		Status:      model.EventLogProcessed,
		ReceivedAt:  time.Now().UTC(),
	}
	if handlerErr != nil {
		entry.Status = model.EventLogFailed
		entry.Error = handlerErr.Error()
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "error", "received_at"}),
	}).Create(&entry).Error
}

// PurgeEventLogs deletes event log rows received before cutoff
func (s *AchievementService) PurgeEventLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("received_at < ?", cutoff).Delete(&model.EventLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge event logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// statsFromAwardsSQL rebuilds user_stats rows from the award table in a single statement.
// The WHERE keeps SQLite from reading ON CONFLICT as a join constraint.
const statsFromAwardsSQL = `INSERT INTO user_stats
	(user_id, total_points, total_achievements, bronze_count, silver_count, gold_count, platinum_count, updated_at)
SELECT ua.user_id,
	COALESCE(SUM(ua.points), 0),
	COUNT(*),
	SUM(CASE WHEN a.type = ? THEN 1 ELSE 0 END),
	SUM(CASE WHEN a.type = ? THEN 1 ELSE 0 END),
	SUM(CASE WHEN a.type = ? THEN 1 ELSE 0 END),
	SUM(CASE WHEN a.type = ? THEN 1 ELSE 0 END),
	?
FROM user_achievements ua
JOIN achievements a ON a.id = ua.achievement_id
WHERE 1 = 1
GROUP BY ua.user_id
ON CONFLICT (user_id) DO UPDATE SET
	total_points = excluded.total_points,
	total_achievements = excluded.total_achievements,
	bronze_count = excluded.bronze_count,
	silver_count = excluded.silver_count,
	gold_count = excluded.gold_count,
	platinum_count = excluded.platinum_count,
	updated_at = excluded.updated_at`

// RecomputeUserStats rebuilds every user's stats from their awards and returns how many users were written
func (s *AchievementService) RecomputeUserStats(ctx context.Context) (int, error) {
	var written int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Awards increment user_stats under ROW EXCLUSIVE, so they wait for the rebuild to commit
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("LOCK TABLE user_stats IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return fmt.Errorf("failed to lock user stats: %w", err)
			}
		}

		n, err := upsertStatsFromAwards(tx, time.Now().UTC())
		if err != nil {
			return err
		}
		written = n
		return zeroStatsWithoutAwards(tx)
	})
	if err != nil {
		return 0, err
	}
	return int(written), nil
}

func upsertStatsFromAwards(tx *gorm.DB, now time.Time) (int64, error) {
	res := tx.Exec(statsFromAwardsSQL,
		model.AchievementBronze, model.AchievementSilver, model.AchievementGold, model.AchievementPlatinum, now)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to rebuild stats from awards: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// zeroStatsWithoutAwards checks the award table at write time rather than a list of user IDs read earlier
func zeroStatsWithoutAwards(tx *gorm.DB) error {
	err := tx.Model(&model.UserStats{}).
		Where("NOT EXISTS (SELECT 1 FROM user_achievements ua WHERE ua.user_id = user_stats.user_id)").
		Updates(map[string]interface{}{
			"total_points":       0,
			"total_achievements": 0,
			"bronze_count":       0,
			"silver_count":       0,
			"gold_count":         0,
			"platinum_count":     0,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to reset stats without awards: %w", err)
	}
	return nil
}

// IsPublishFailure reports whether err means the change committed but its event was lost
func IsPublishFailure(err error) bool {
	return errors.Is(err, ErrEventPublish)
}
