package domain

import (
	"strings"

	"github.com/sahilchouksey/learnhub/model"
)

const (
	MinGrade = 1
	MaxGrade = 12
)

// NewLesson validates input and returns an unsaved lesson with a trimmed title
func NewLesson(title string, subject model.Subject, grade int) (*model.Lesson, error) {
	l := &model.Lesson{}
	if err := UpdateLessonTitle(l, title); err != nil {
		return nil, err
	}

	if !subject.IsValid() {
		return nil, ErrInvalidSubject
	}
	l.Subject = subject

	if err := UpdateLessonGrade(l, grade); err != nil {
		return nil, err
	}

	return l, nil
}

// UpdateLessonTitle sets a trimmed, non-empty title
func UpdateLessonTitle(l *model.Lesson, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyLessonTitle
	}
	l.Title = title
	return nil
}

// UpdateLessonGrade sets a grade in [1,12]
func UpdateLessonGrade(l *model.Lesson, grade int) error {
	if grade < MinGrade || grade > MaxGrade {
		return ErrInvalidGrade
	}
	l.Grade = grade
	return nil
}

// IsSuitableForGrade reports whether the lesson is within one grade of g
func IsSuitableForGrade(l *model.Lesson, g int) bool {
	diff := l.Grade - g
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}
