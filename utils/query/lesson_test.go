package query

import (
	"fmt"
	"testing"

	"github.com/sahilchouksey/learnhub/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func intPtr(v int) *int { return &v }

func TestDefaults(t *testing.T) {
	b := NewLessonQueryBuilder(LessonQueryOptions{})

	assert.Equal(t, WhereClause{}, b.Where())
	assert.Equal(t, OrderBy{Column: "created_at", Field: "createdAt", Direction: "desc"}, b.OrderBy())
	assert.Equal(t, 0, b.Skip())
	assert.Equal(t, 10, b.Take())
	assert.Equal(t, 1, b.Page())
}

func TestExactGradeOverridesRange(t *testing.T) {
	b := NewLessonQueryBuilder(LessonQueryOptions{
		Filters: LessonFilters{Grade: intPtr(7), MinGrade: intPtr(1), MaxGrade: intPtr(3)},
	})

	w := b.Where()
	require.NotNil(t, w.Grade)
	require.NotNil(t, w.Grade.Equals)
	assert.Equal(t, 7, *w.Grade.Equals)
	assert.Nil(t, w.Grade.Gte)
	assert.Nil(t, w.Grade.Lte)
}

func TestGradeRange(t *testing.T) {
	w := NewLessonQueryBuilder(LessonQueryOptions{
		Filters: LessonFilters{MinGrade: intPtr(6)},
	}).Where()

	require.NotNil(t, w.Grade)
	assert.Nil(t, w.Grade.Equals)
	assert.Equal(t, 6, *w.Grade.Gte)
	assert.Nil(t, w.Grade.Lte)
}

func TestFiltersCompose(t *testing.T) {
	w := NewLessonQueryBuilder(LessonQueryOptions{
		Filters: LessonFilters{Subject: model.SubjectScience, Search: " bio "},
	}).Where()

	assert.Equal(t, model.SubjectScience, w.Subject)
	assert.Equal(t, " bio ", w.TitleContains)
	assert.Nil(t, w.Grade)
}

func TestPagination(t *testing.T) {
	b := NewLessonQueryBuilder(LessonQueryOptions{Pagination: Pagination{Page: 3, Limit: 20}})
	assert.Equal(t, 40, b.Skip())
	assert.Equal(t, 20, b.Take())

	b = NewLessonQueryBuilder(LessonQueryOptions{Pagination: Pagination{Page: -2, Limit: 500}})
	assert.Equal(t, 0, b.Skip())
	assert.Equal(t, MaxLimit, b.Take())
}

func TestTotalPages(t *testing.T) {
	b := NewLessonQueryBuilder(LessonQueryOptions{Pagination: Pagination{Limit: 10}})

	assert.Equal(t, 0, b.TotalPages(0))
	assert.Equal(t, 1, b.TotalPages(1))
	assert.Equal(t, 1, b.TotalPages(10))
	assert.Equal(t, 2, b.TotalPages(11))
	assert.Equal(t, 3, b.TotalPages(25))
}

func TestSortFallbacks(t *testing.T) {
	o := NewLessonQueryBuilder(LessonQueryOptions{Sort: SortOptions{Field: "title", Direction: "ASC"}}).OrderBy()
	assert.Equal(t, OrderBy{Column: "title", Field: "title", Direction: "asc"}, o)

	o = NewLessonQueryBuilder(LessonQueryOptions{Sort: SortOptions{Field: "password", Direction: "sideways"}}).OrderBy()
	assert.Equal(t, OrderBy{Column: "created_at", Field: "createdAt", Direction: "desc"}, o)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Lesson{}))
	return db
}

func TestApplyAgainstDatabase(t *testing.T) {
	db := openTestDB(t)
	lessons := []model.Lesson{
		{Title: "Algebra I", Subject: model.SubjectMath, Grade: 7},
		{Title: "Geometry", Subject: model.SubjectMath, Grade: 8},
		{Title: "Biology", Subject: model.SubjectScience, Grade: 7},
		{Title: "Chemistry", Subject: model.SubjectScience, Grade: 8},
		{Title: "Literature", Subject: model.SubjectEnglish, Grade: 7},
		{Title: "World History", Subject: model.SubjectHistory, Grade: 8},
		{Title: "100% Fractions", Subject: model.SubjectEnglish, Grade: 5},
	}
	require.NoError(t, db.Create(&lessons).Error)

	run := func(opts LessonQueryOptions) ([]model.Lesson, int64) {
		b := NewLessonQueryBuilder(opts)
		var total int64
		require.NoError(t, b.ApplyFilters(db.Model(&model.Lesson{})).Count(&total).Error)
		var out []model.Lesson
		require.NoError(t, b.Apply(db.Model(&model.Lesson{})).Find(&out).Error)
		return out, total
	}

	out, total := run(LessonQueryOptions{
		Filters: LessonFilters{Subject: model.SubjectMath},
		Sort:    SortOptions{Field: "grade", Direction: "asc"},
	})
	assert.EqualValues(t, 2, total)
	require.Len(t, out, 2)
	assert.Equal(t, "Algebra I", out[0].Title)
	assert.Equal(t, "Geometry", out[1].Title)

	out, total = run(LessonQueryOptions{Filters: LessonFilters{Search: "HIST"}})
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "World History", out[0].Title)

	// LIKE wildcards in the search text match literally
	_, total = run(LessonQueryOptions{Filters: LessonFilters{Search: "_"}})
	assert.EqualValues(t, 0, total)

	out, total = run(LessonQueryOptions{Filters: LessonFilters{Search: "%"}})
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "100% Fractions", out[0].Title)

	_, total = run(LessonQueryOptions{Filters: LessonFilters{Search: `\`}})
	assert.EqualValues(t, 0, total)

	// Whitespace is part of the search
	_, total = run(LessonQueryOptions{Filters: LessonFilters{Search: " "}})
	assert.EqualValues(t, 3, total)

	out, total = run(LessonQueryOptions{
		Filters:    LessonFilters{Grade: intPtr(7), MinGrade: intPtr(8)},
		Sort:       SortOptions{Field: "title", Direction: "asc"},
		Pagination: Pagination{Page: 2, Limit: 2},
	})
	assert.EqualValues(t, 3, total)
	require.Len(t, out, 1)
	assert.Equal(t, "Literature", out[0].Title)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_sale \\ now`, escapeLike(`50% off_sale \ now`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
