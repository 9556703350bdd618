// Package domain holds the invariants every user, lesson and achievement must
// satisfy before it reaches the store.
package domain

import "errors"

// ValidationError is returned when input breaks a domain invariant
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func invalid(msg string) error {
	return &ValidationError{msg: msg}
}

// IsValidationError reports whether err (or anything it wraps) is a ValidationError
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	ErrInvalidEmail    = invalid("invalid email format")
	ErrPasswordTooWeak = invalid("password must be at least 8 characters")
	ErrInvalidRole     = invalid("invalid role")

	ErrEmptyLessonTitle = invalid("lesson title cannot be empty")
	ErrInvalidSubject   = invalid("invalid subject")
	ErrInvalidGrade     = invalid("grade must be between 1 and 12")

	ErrEmptyAchievementName        = invalid("achievement name cannot be empty")
	ErrEmptyAchievementDescription = invalid("achievement description cannot be empty")
	ErrInvalidAchievementType      = invalid("invalid achievement type")
	ErrInvalidAchievementCategory  = invalid("invalid achievement category")
	ErrNegativePoints              = invalid("achievement points cannot be negative")
	ErrInvalidThreshold            = invalid("achievement threshold must be at least 1")
)
