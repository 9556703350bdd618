package services

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrAchievementNotFound = errors.New("achievement not found")
	// ErrEventPublish means the database change committed but the domain event was not published
	ErrEventPublish = errors.New("failed to publish event")
)
