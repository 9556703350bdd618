// Package query turns lesson list options into a filtered, sorted, paginated GORM query.
package query

import (
	"fmt"
	"strings"

	"github.com/sahilchouksey/learnhub/model"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	DefaultSortField     = "createdAt"
	DefaultSortDirection = "desc"
)

// sortColumns maps the public sort fields onto lesson columns
var sortColumns = map[string]string{
	"title":     "title",
	"subject":   "subject",
	"grade":     "grade",
	"createdAt": "created_at",
}

// LessonFilters narrows the lesson list. Zero values mean "no filter".
type LessonFilters struct {
	Subject  model.Subject
	Grade    *int
	MinGrade *int
	MaxGrade *int
	Search   string
}

// SortOptions orders the lesson list
type SortOptions struct {
	Field     string
	Direction string
}

// Pagination is 1-indexed
type Pagination struct {
	Page  int
	Limit int
}

// LessonQueryOptions is the full builder input
type LessonQueryOptions struct {
	Filters    LessonFilters
	Sort       SortOptions
	Pagination Pagination
}

// GradeCondition is either an exact grade or a range
type GradeCondition struct {
	Equals *int
	Gte    *int
	Lte    *int
}

// WhereClause is the AND of every active filter
type WhereClause struct {
	Subject       model.Subject
	Grade         *GradeCondition
	TitleContains string
}

// OrderBy is a resolved sort
type OrderBy struct {
	Column    string
	Field     string
	Direction string
}

// LessonQueryBuilder is a pure description of a lesson query
type LessonQueryBuilder struct {
	filters    LessonFilters
	sort       SortOptions
	pagination Pagination
}

// NewLessonQueryBuilder normalizes opts, applying defaults for missing or unknown sort and pagination values
func NewLessonQueryBuilder(opts LessonQueryOptions) *LessonQueryBuilder {
	sort := opts.Sort
	if _, ok := sortColumns[sort.Field]; !ok {
		sort.Field = DefaultSortField
	}
	sort.Direction = strings.ToLower(sort.Direction)
	if sort.Direction != "asc" && sort.Direction != "desc" {
		sort.Direction = DefaultSortDirection
	}

	p := opts.Pagination
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	return &LessonQueryBuilder{
		filters:    opts.Filters,
		sort:       sort,
		pagination: p,
	}
}

// Where returns the combined filter. An exact grade overrides any grade range.
func (b *LessonQueryBuilder) Where() WhereClause {
	var w WhereClause
	f := b.filters

	w.Subject = f.Subject

	switch {
	case f.Grade != nil:
		w.Grade = &GradeCondition{Equals: f.Grade}
	case f.MinGrade != nil || f.MaxGrade != nil:
		w.Grade = &GradeCondition{Gte: f.MinGrade, Lte: f.MaxGrade}
	}

	w.TitleContains = f.Search
	return w
}

// OrderBy returns the resolved sort
func (b *LessonQueryBuilder) OrderBy() OrderBy {
	return OrderBy{
		Column:    sortColumns[b.sort.Field],
		Field:     b.sort.Field,
		Direction: b.sort.Direction,
	}
}

// Skip is the row offset of the requested page
func (b *LessonQueryBuilder) Skip() int {
	return (b.pagination.Page - 1) * b.pagination.Limit
}

// Take is the page size
func (b *LessonQueryBuilder) Take() int {
	return b.pagination.Limit
}

func (b *LessonQueryBuilder) Page() int {
	return b.pagination.Page
}

// TotalPages is ceil(total/limit)
func (b *LessonQueryBuilder) TotalPages(total int64) int {
	limit := int64(b.pagination.Limit)
	return int((total + limit - 1) / limit)
}

// ApplyFilters adds only the where clause to db, for counting
func (b *LessonQueryBuilder) ApplyFilters(db *gorm.DB) *gorm.DB {
	w := b.Where()

	if w.Subject != "" {
		db = db.Where("subject = ?", w.Subject)
	}

	if g := w.Grade; g != nil {
		if g.Equals != nil {
			db = db.Where("grade = ?", *g.Equals)
		}
		if g.Gte != nil {
			db = db.Where("grade >= ?", *g.Gte)
		}
		if g.Lte != nil {
			db = db.Where("grade <= ?", *g.Lte)
		}
	}

	if w.TitleContains != "" {
		db = db.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(w.TitleContains))+"%")
	}

	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match literally inside a LIKE pattern
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Apply adds filters, ordering and pagination to db
func (b *LessonQueryBuilder) Apply(db *gorm.DB) *gorm.DB {
	order := b.OrderBy()
	return b.ApplyFilters(db).
		Order(fmt.Sprintf("%s %s", order.Column, strings.ToUpper(order.Direction))).
		Offset(b.Skip()).
		Limit(b.Take())
}
