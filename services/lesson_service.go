package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/learnhub/domain"
	"github.com/sahilchouksey/learnhub/messaging"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/sahilchouksey/learnhub/utils/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LessonService handles lesson CRUD plus enrollment and completion
type LessonService struct {
	db        *gorm.DB
	publisher messaging.Publisher
}

// NewLessonService creates a new lesson service
func NewLessonService(db *gorm.DB, publisher messaging.Publisher) *LessonService {
	return &LessonService{db: db, publisher: publisher}
}

// CreateLessonInput is the input for CreateLesson
type CreateLessonInput struct {
	Title   string
	Subject model.Subject
	Grade   int
}

// UpdateLessonInput holds the mutable lesson fields; nil means unchanged
type UpdateLessonInput struct {
	Title *string
	Grade *int
}

// LessonPage is one page of a lesson listing
type LessonPage struct {
	Lessons    []model.Lesson
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// CreateLesson validates and stores a lesson
func (s *LessonService) CreateLesson(ctx context.Context, input CreateLessonInput) (*model.Lesson, error) {
	lesson, err := domain.NewLesson(input.Title, input.Subject, input.Grade)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(lesson).Error; err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}
	return lesson, nil
}

// ListLessons filters, sorts and paginates lessons
func (s *LessonService) ListLessons(ctx context.Context, opts query.LessonQueryOptions) (*LessonPage, error) {
	builder := query.NewLessonQueryBuilder(opts)
	db := s.db.WithContext(ctx).Model(&model.Lesson{})

	var total int64
	if err := builder.ApplyFilters(db.Session(&gorm.Session{})).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}

	lessons := make([]model.Lesson, 0)
	if err := builder.Apply(db.Session(&gorm.Session{})).Find(&lessons).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch lessons: %w", err)
	}

	return &LessonPage{
		Lessons:    lessons,
		Total:      total,
		Page:       builder.Page(),
		Limit:      builder.Take(),
		TotalPages: builder.TotalPages(total),
	}, nil
}

// GetLesson returns one lesson
func (s *LessonService) GetLesson(ctx context.Context, id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := s.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to fetch lesson: %w", err)
	}
	return &lesson, nil
}

// UpdateLesson changes title and/or grade after re-validating them
func (s *LessonService) UpdateLesson(ctx context.Context, id uint, input UpdateLessonInput) (*model.Lesson, error) {
	lesson, err := s.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if err := domain.UpdateLessonTitle(lesson, *input.Title); err != nil {
			return nil, err
		}
	}
	if input.Grade != nil {
		if err := domain.UpdateLessonGrade(lesson, *input.Grade); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Model(lesson).Updates(map[string]interface{}{
		"title": lesson.Title,
		"grade": lesson.Grade,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}
	return lesson, nil
}

// DeleteLesson soft-deletes a lesson and returns it
func (s *LessonService) DeleteLesson(ctx context.Context, id uint) (*model.Lesson, error) {
	lesson, err := s.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Delete(lesson).Error; err != nil {
		return nil, fmt.Errorf("failed to delete lesson: %w", err)
	}
	return lesson, nil
}

// EnrollUser enrolls a user in a lesson. Enrolling twice keeps the first enrollment.
// UserEnrolled is published on every call; a publish failure is returned wrapped in ErrEventPublish.
func (s *LessonService) EnrollUser(ctx context.Context, userID, lessonID uint) (*model.Enrollment, error) {
	if _, err := s.GetLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	enrollment := &model.Enrollment{
		UserID:     userID,
		LessonID:   lessonID,
		EnrolledAt: time.Now().UTC(),
	}

	db := s.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(enrollment).Error; err != nil {
		return nil, fmt.Errorf("failed to enroll user: %w", err)
	}
	if err := db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(enrollment).Error; err != nil {
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}

	event, err := messaging.NewUserEnrolledEvent(messaging.UserEnrolledData{
		UserID:     userID,
		LessonID:   lessonID,
		EnrolledAt: enrollment.EnrolledAt,
	})
	if err != nil {
		return enrollment, fmt.Errorf("%w: %v", ErrEventPublish, err)
	}
	if err := s.publish(ctx, event); err != nil {
		return enrollment, err
	}

	return enrollment, nil
}

// CompleteLesson appends a completion and publishes LessonCompleted
func (s *LessonService) CompleteLesson(ctx context.Context, userID, lessonID uint) (*model.Completion, error) {
	lesson, err := s.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	completion := &model.Completion{
		UserID:      userID,
		LessonID:    lesson.ID,
		Subject:     lesson.Subject,
		CompletedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(completion).Error; err != nil {
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	event, err := messaging.NewLessonCompletedEvent(messaging.LessonCompletedData{
		UserID:      userID,
		LessonID:    lesson.ID,
		Subject:     string(lesson.Subject),
		CompletedAt: completion.CompletedAt,
	})
	if err != nil {
		return completion, fmt.Errorf("%w: %v", ErrEventPublish, err)
	}
	if err := s.publish(ctx, event); err != nil {
		return completion, err
	}

	return completion, nil
}

func (s *LessonService) publish(ctx context.Context, event messaging.DomainEvent) error {
	if s.publisher == nil {
		return fmt.Errorf("%w: no publisher configured", ErrEventPublish)
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("%w: %v", ErrEventPublish, err)
	}
	return nil
}
