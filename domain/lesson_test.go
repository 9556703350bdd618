package domain

import (
	"testing"

	"github.com/sahilchouksey/learnhub/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLesson(t *testing.T) {
	l, err := NewLesson("  Algebra I  ", model.SubjectMath, 7)
	require.NoError(t, err)
	assert.Equal(t, "Algebra I", l.Title)
	assert.Equal(t, model.SubjectMath, l.Subject)
	assert.Equal(t, 7, l.Grade)

	tests := []struct {
		name    string
		title   string
		subject model.Subject
		grade   int
		want    error
	}{
		{"blank title", "   ", model.SubjectMath, 7, ErrEmptyLessonTitle},
		{"unknown subject", "Art", model.Subject("ART"), 7, ErrInvalidSubject},
		{"grade zero", "Algebra", model.SubjectMath, 0, ErrInvalidGrade},
		{"grade thirteen", "Algebra", model.SubjectMath, 13, ErrInvalidGrade},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLesson(tt.title, tt.subject, tt.grade)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLessonUpdates(t *testing.T) {
	l := &model.Lesson{Title: "Geometry", Subject: model.SubjectMath, Grade: 8}

	require.NoError(t, UpdateLessonTitle(l, " Geometry II "))
	assert.Equal(t, "Geometry II", l.Title)

	assert.ErrorIs(t, UpdateLessonTitle(l, ""), ErrEmptyLessonTitle)
	assert.Equal(t, "Geometry II", l.Title)

	require.NoError(t, UpdateLessonGrade(l, 12))
	assert.ErrorIs(t, UpdateLessonGrade(l, 13), ErrInvalidGrade)
	assert.Equal(t, 12, l.Grade)
}

func TestIsSuitableForGrade(t *testing.T) {
	l := &model.Lesson{Grade: 7}

	assert.True(t, IsSuitableForGrade(l, 6))
	assert.True(t, IsSuitableForGrade(l, 7))
	assert.True(t, IsSuitableForGrade(l, 8))
	assert.False(t, IsSuitableForGrade(l, 5))
	assert.False(t, IsSuitableForGrade(l, 9))
}
