package model

import (
	"time"
)

// AchievementType is the tier of an achievement
type AchievementType string

const (
	AchievementBronze   AchievementType = "BRONZE"
	AchievementSilver   AchievementType = "SILVER"
	AchievementGold     AchievementType = "GOLD"
	AchievementPlatinum AchievementType = "PLATINUM"
)

// IsValid reports whether t is a known achievement type
func (t AchievementType) IsValid() bool {
	switch t {
	case AchievementBronze, AchievementSilver, AchievementGold, AchievementPlatinum:
		return true
	}
	return false
}

// AchievementCategory groups achievements by what they reward
type AchievementCategory string

const (
	CategoryLessonCompletion AchievementCategory = "LESSON_COMPLETION"
	CategoryStreak           AchievementCategory = "STREAK"
	CategorySubjectMastery   AchievementCategory = "SUBJECT_MASTERY"
	CategoryTimeBased        AchievementCategory = "TIME_BASED"
	CategorySpecial          AchievementCategory = "SPECIAL"
)

// IsValid reports whether c is a known achievement category
func (c AchievementCategory) IsValid() bool {
	switch c {
	case CategoryLessonCompletion, CategoryStreak, CategorySubjectMastery, CategoryTimeBased, CategorySpecial:
		return true
	}
	return false
}

// Achievement is an award definition
type Achievement struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	Name        string              `gorm:"type:varchar(255);not null" json:"name"`
	Description string              `gorm:"type:text;not null" json:"description"`
	Type        AchievementType     `gorm:"type:varchar(20);not null;index:idx_achievement_type_category" json:"type"`
	Category    AchievementCategory `gorm:"type:varchar(30);not null;index:idx_achievement_type_category" json:"category"`
	Points      int                 `gorm:"not null;default:0" json:"points"`
	Threshold   *int                `json:"threshold"`
	Icon        *string             `gorm:"type:varchar(255)" json:"icon"`
	IsActive    bool                `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// UserAchievement records that a user earned an achievement. A user earns each achievement once.
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_achievement" json:"userId"`
	AchievementID uint      `gorm:"not null;uniqueIndex:idx_user_achievement" json:"achievementId"`
	Points        int       `gorm:"not null" json:"points"`
	AwardedAt     time.Time `gorm:"not null" json:"awardedAt"`

	Achievement Achievement `gorm:"foreignKey:AchievementID;constraint:OnDelete:CASCADE" json:"achievement"`
}

// UserStats aggregates a user's awards
type UserStats struct {
	UserID            uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	TotalPoints       int       `gorm:"not null;default:0" json:"totalPoints"`
	TotalAchievements int       `gorm:"not null;default:0" json:"totalAchievements"`
	BronzeCount       int       `gorm:"not null;default:0" json:"bronzeCount"`
	SilverCount       int       `gorm:"not null;default:0" json:"silverCount"`
	GoldCount         int       `gorm:"not null;default:0" json:"goldCount"`
	PlatinumCount     int       `gorm:"not null;default:0" json:"platinumCount"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CountColumn returns the user_stats column tracking awards of type t
func (t AchievementType) CountColumn() string {
	switch t {
	case AchievementBronze:
		return "bronze_count"
	case AchievementSilver:
		return "silver_count"
	case AchievementGold:
		return "gold_count"
	case AchievementPlatinum:
		return "platinum_count"
	}
	return ""
}
