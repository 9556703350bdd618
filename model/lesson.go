package model

import (
	"time"

	"gorm.io/gorm"
)

// Subject is the curriculum area a lesson belongs to
type Subject string

const (
	SubjectMath    Subject = "MATH"
	SubjectScience Subject = "SCIENCE"
	SubjectEnglish Subject = "ENGLISH"
	SubjectHistory Subject = "HISTORY"
)

// Subjects lists every known subject
var Subjects = []Subject{SubjectMath, SubjectScience, SubjectEnglish, SubjectHistory}

// IsValid reports whether s is a known subject
func (s Subject) IsValid() bool {
	for _, known := range Subjects {
		if s == known {
			return true
		}
	}
	return false
}

// Lesson is an admin-owned unit of study
type Lesson struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	Subject   Subject        `gorm:"type:varchar(20);not null;index" json:"subject"`
	Grade     int            `gorm:"not null;index" json:"grade"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Enrollment links a user to a lesson; at most one row per pair
type Enrollment struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	LessonID   uint      `gorm:"primaryKey;autoIncrement:false" json:"lessonId"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolledAt"`

	Lesson Lesson `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
}

// Completion records a user finishing a lesson. Rows are append-only.
type Completion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	LessonID    uint      `gorm:"not null;index" json:"lessonId"`
	Subject     Subject   `gorm:"type:varchar(20);not null" json:"subject"`
	CompletedAt time.Time `gorm:"not null" json:"completedAt"`

	Lesson Lesson `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
}
