package domain

import (
	"strings"

	"github.com/sahilchouksey/learnhub/model"
)

// AchievementParams is the input for NewAchievement
type AchievementParams struct {
	Name        string
	Description string
	Type        model.AchievementType
	Category    model.AchievementCategory
	Points      int
	Threshold   *int
	Icon        *string
}

// NewAchievement validates params and returns an unsaved, active achievement
func NewAchievement(p AchievementParams) (*model.Achievement, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, ErrEmptyAchievementName
	}

	description := strings.TrimSpace(p.Description)
	if description == "" {
		return nil, ErrEmptyAchievementDescription
	}

	if !p.Type.IsValid() {
		return nil, ErrInvalidAchievementType
	}
	if !p.Category.IsValid() {
		return nil, ErrInvalidAchievementCategory
	}

	a := &model.Achievement{
		Name:        name,
		Description: description,
		Type:        p.Type,
		Category:    p.Category,
		Icon:        p.Icon,
		IsActive:    true,
	}

	if err := UpdateAchievementPoints(a, p.Points); err != nil {
		return nil, err
	}
	if err := UpdateAchievementThreshold(a, p.Threshold); err != nil {
		return nil, err
	}

	return a, nil
}

// UpdateAchievementPoints sets a non-negative point value
func UpdateAchievementPoints(a *model.Achievement, points int) error {
	if points < 0 {
		return ErrNegativePoints
	}
	a.Points = points
	return nil
}

// UpdateAchievementThreshold sets the threshold; nil clears it
func UpdateAchievementThreshold(a *model.Achievement, threshold *int) error {
	if threshold != nil && *threshold < 1 {
		return ErrInvalidThreshold
	}
	a.Threshold = threshold
	return nil
}

func ActivateAchievement(a *model.Achievement) {
	a.IsActive = true
}

func DeactivateAchievement(a *model.Achievement) {
	a.IsActive = false
}

// IsEligibleForUser checks the achievement's threshold against a user's stats.
// Inactive achievements are never eligible.
func IsEligibleForUser(a *model.Achievement, stats *model.UserStats) bool {
	if !a.IsActive {
		return false
	}
	if a.Threshold == nil || stats == nil {
		return true
	}

	switch a.Category {
	case model.CategoryLessonCompletion:
		return stats.TotalAchievements >= *a.Threshold
	case model.CategorySubjectMastery:
		return stats.TotalPoints >= *a.Threshold
	default:
		return true
	}
}
