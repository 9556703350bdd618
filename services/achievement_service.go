package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learnhub/domain"
	"github.com/sahilchouksey/learnhub/messaging"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/sahilchouksey/learnhub/services/rules"
	"github.com/sahilchouksey/learnhub/utils/cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const achievementsCacheKey = "achievements:all"

// AchievementService owns achievements, awards and per-user stats
type AchievementService struct {
	db        *gorm.DB
	rules     *rules.RuleSet
	publisher messaging.Publisher
	cache     *cache.RedisCache
	cacheTTL  time.Duration
}

// NewAchievementService creates a new achievement service. publisher and redisCache may be nil:
// without a publisher awards are not announced, without a cache listings always hit the database.
func NewAchievementService(db *gorm.DB, ruleSet *rules.RuleSet, publisher messaging.Publisher, redisCache *cache.RedisCache) *AchievementService {
	return &AchievementService{
		db:        db,
		rules:     ruleSet,
		publisher: publisher,
		cache:     redisCache,
		cacheTTL:  time.Minute,
	}
}

// UpdateAchievementInput holds the mutable achievement fields; nil means unchanged
type UpdateAchievementInput struct {
	Points         *int
	Threshold      *int
	ClearThreshold bool
	IsActive       *bool
}

// AwardResult is the outcome of AwardAchievement
type AwardResult struct {
	UserAchievement *model.UserAchievement
	// Awarded is false when the user already held the achievement
	Awarded bool
}

// ListAchievements returns every achievement definition
func (s *AchievementService) ListAchievements(ctx context.Context) ([]model.Achievement, error) {
	load := func() (interface{}, error) {
		achievements := make([]model.Achievement, 0)
		if err := s.db.WithContext(ctx).Order("id ASC").Find(&achievements).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch achievements: %w", err)
		}
		return achievements, nil
	}

	if s.cache == nil {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return v.([]model.Achievement), nil
	}

	var achievements []model.Achievement
	if err := s.cache.RememberJSON(ctx, achievementsCacheKey, s.cacheTTL, &achievements, load); err != nil {
		return nil, err
	}
	return achievements, nil
}

// CreateAchievement validates and stores an achievement definition
func (s *AchievementService) CreateAchievement(ctx context.Context, params domain.AchievementParams) (*model.Achievement, error) {
	achievement, err := domain.NewAchievement(params)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(achievement).Error; err != nil {
		return nil, fmt.Errorf("failed to create achievement: %w", err)
	}

	s.invalidateListing(ctx)
	return achievement, nil
}

// UpdateAchievement changes points, threshold or active flag through the domain rules
func (s *AchievementService) UpdateAchievement(ctx context.Context, id uint, input UpdateAchievementInput) (*model.Achievement, error) {
	var achievement model.Achievement
	if err := s.db.WithContext(ctx).First(&achievement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAchievementNotFound
		}
		return nil, fmt.Errorf("failed to fetch achievement: %w", err)
	}

	if input.Points != nil {
		if err := domain.UpdateAchievementPoints(&achievement, *input.Points); err != nil {
			return nil, err
		}
	}
	if input.ClearThreshold {
		achievement.Threshold = nil
	} else if input.Threshold != nil {
		if err := domain.UpdateAchievementThreshold(&achievement, input.Threshold); err != nil {
			return nil, err
		}
	}
	if input.IsActive != nil {
		if *input.IsActive {
			domain.ActivateAchievement(&achievement)
		} else {
			domain.DeactivateAchievement(&achievement)
		}
	}

	err := s.db.WithContext(ctx).Model(&achievement).Select("points", "threshold", "is_active").Updates(&achievement).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update achievement: %w", err)
	}

	s.invalidateListing(ctx)
	return &achievement, nil
}

func (s *AchievementService) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, achievementsCacheKey); err != nil {
		log.Warnw("failed to invalidate achievement cache", "error", err)
	}
}

// GetUserAchievements returns a user's awards, oldest first, with their achievement
func (s *AchievementService) GetUserAchievements(ctx context.Context, userID uint) ([]model.UserAchievement, error) {
	awards := make([]model.UserAchievement, 0)
	err := s.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&awards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user achievements: %w", err)
	}
	return awards, nil
}

// GetUserStats returns a user's stats, creating a zeroed row on first access
func (s *AchievementService) GetUserStats(ctx context.Context, userID uint) (*model.UserStats, error) {
	return getOrCreateStats(s.db.WithContext(ctx), userID)
}

func getOrCreateStats(db *gorm.DB, userID uint) (*model.UserStats, error) {
	stats := model.UserStats{UserID: userID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to create user stats: %w", err)
	}
	if err := db.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch user stats: %w", err)
	}
	return &stats, nil
}

// AwardAchievement grants an achievement once per user. The award row and the stats increment
// commit together; a repeated or concurrent award returns the existing row and changes nothing.
// AchievementAwarded is published after commit; a publish failure is returned wrapped in ErrEventPublish.
func (s *AchievementService) AwardAchievement(ctx context.Context, userID, achievementID uint) (*AwardResult, error) {
	var result AwardResult
	var achievement model.Achievement

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.UserAchievement
		err := tx.Where("user_id = ? AND achievement_id = ?", userID, achievementID).First(&existing).Error
		if err == nil {
			result.UserAchievement = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing award: %w", err)
		}

		if err := tx.First(&achievement, achievementID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAchievementNotFound
			}
			return fmt.Errorf("failed to fetch achievement: %w", err)
		}

		award := model.UserAchievement{
			UserID:        userID,
			AchievementID: achievement.ID,
			Points:        achievement.Points,
			AwardedAt:     time.Now().UTC(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&award)
		if res.Error != nil {
			return fmt.Errorf("failed to create award: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			if err := tx.Where("user_id = ? AND achievement_id = ?", userID, achievementID).First(&existing).Error; err != nil {
				return fmt.Errorf("failed to reload award: %w", err)
			}
			result.UserAchievement = &existing
			return nil
		}

		if _, err := getOrCreateStats(tx, userID); err != nil {
			return err
		}
		updates := map[string]interface{}{
			"total_points":       gorm.Expr("total_points + ?", achievement.Points),
			"total_achievements": gorm.Expr("total_achievements + ?", 1),
			"updated_at":         time.Now().UTC(),
		}
		if col := achievement.Type.CountColumn(); col != "" {
			updates[col] = gorm.Expr(col+" + ?", 1)
		}
		if err := tx.Model(&model.UserStats{}).Where("user_id = ?", userID).UpdateColumns(updates).Error; err != nil {
			return fmt.Errorf("failed to update user stats: %w", err)
		}

		award.Achievement = achievement
		result.UserAchievement = &award
		result.Awarded = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Awarded {
		return &result, nil
	}

	log.Infow("achievement awarded", "userId", userID, "achievementId", achievement.ID, "points", achievement.Points)

	if s.publisher == nil {
		return &result, nil
	}
	event, err := messaging.NewAchievementAwardedEvent(messaging.AchievementAwardedData{
		UserID:          userID,
		AchievementID:   achievement.ID,
		AchievementName: achievement.Name,
		Points:          achievement.Points,
		AwardedAt:       result.UserAchievement.AwardedAt,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		return &result, fmt.Errorf("%w: %v", ErrEventPublish, err)
	}
	return &result, nil
}

// HandleLessonCompleted runs every rule against a LessonCompleted event and awards what fires.
// Rules are evaluated in registry order; the first error aborts the pass.
func (s *AchievementService) HandleLessonCompleted(ctx context.Context, event messaging.DomainEvent) error {
	var data messaging.LessonCompletedData
	if err := event.Decode(&data); err != nil {
		return err
	}
	if data.UserID == 0 {
		return fmt.Errorf("event %s has no user id", event.EventID)
	}

	if _, err := s.GetUserStats(ctx, data.UserID); err != nil {
		return err
	}

	ruleEvent := rules.Event{
		Kind:       rules.LessonCompleted,
		UserID:     data.UserID,
		LessonID:   data.LessonID,
		Subject:    model.Subject(data.Subject),
		OccurredAt: data.CompletedAt,
	}

	for _, rule := range s.rules.All() {
		ok, err := rule.CanAward(ctx, ruleEvent)
		if err != nil {
			return fmt.Errorf("rule %s failed: %w", rule.ID, err)
		}
		if !ok {
			continue
		}

		achievement, err := s.achievementForRule(ctx, rule)
		if err != nil {
			return err
		}

		if _, err := s.AwardAchievement(ctx, data.UserID, achievement.ID); err != nil {
			return fmt.Errorf("failed to award %s to user %d: %w", achievement.Name, data.UserID, err)
		}
	}

	return nil
}

// achievementForRule finds the active achievement matching the rule, creating one when none exists
func (s *AchievementService) achievementForRule(ctx context.Context, rule rules.Rule) (*model.Achievement, error) {
	var achievement model.Achievement
	err := s.db.WithContext(ctx).
		Where("type = ? AND category = ? AND is_active = ?", rule.Type, rule.Category, true).
		Order("id ASC").
		First(&achievement).Error
	if err == nil {
		return &achievement, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find achievement for rule %s: %w", rule.ID, err)
	}

	threshold := rule.Threshold
	return s.CreateAchievement(ctx, domain.AchievementParams{
		Name:        rule.AchievementName(),
		Description: "Awarded for " + strings.ToLower(string(rule.Category)),
		Type:        rule.Type,
		Category:    rule.Category,
		Points:      rule.Points,
		Threshold:   &threshold,
	})
}
