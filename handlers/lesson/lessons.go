package lesson

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learnhub/domain"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/sahilchouksey/learnhub/services"
	"github.com/sahilchouksey/learnhub/utils/query"
	"github.com/sahilchouksey/learnhub/utils/response"
	"github.com/sahilchouksey/learnhub/utils/validation"
)

// LessonHandler handles lesson requests
type LessonHandler struct {
	service   *services.LessonService
	validator *validation.Validator
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(service *services.LessonService) *LessonHandler {
	return &LessonHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// CreateLessonRequest represents the request body for creating a lesson
type CreateLessonRequest struct {
	Title   string `json:"title" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Grade   int    `json:"grade" validate:"required"`
}

// UpdateLessonRequest represents the request body for updating a lesson
type UpdateLessonRequest struct {
	Title *string `json:"title"`
	Grade *int    `json:"grade"`
}

// ListLessons handles GET /lesson with filters, sorting and pagination
func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	page, err := h.service.ListLessons(c.UserContext(), opts)
	if err != nil {
		log.Errorw("failed to list lessons", "error", err)
		return response.InternalServerError(c, "Failed to fetch lessons")
	}

	return response.Paginated(c, page.Lessons, page.Page, page.Limit, page.TotalPages, page.Total)
}

func parseListOptions(c *fiber.Ctx) (query.LessonQueryOptions, error) {
	var opts query.LessonQueryOptions

	if s := strings.ToUpper(strings.TrimSpace(c.Query("subject"))); s != "" {
		subject := model.Subject(s)
		if !subject.IsValid() {
			return opts, domain.ErrInvalidSubject
		}
		opts.Filters.Subject = subject
	}

	var err error
	if opts.Filters.Grade, err = optionalInt(c, "grade"); err != nil {
		return opts, err
	}
	if opts.Filters.MinGrade, err = optionalInt(c, "minGrade"); err != nil {
		return opts, err
	}
	if opts.Filters.MaxGrade, err = optionalInt(c, "maxGrade"); err != nil {
		return opts, err
	}
	opts.Filters.Search = c.Query("search")

	opts.Sort = query.SortOptions{
		Field:     c.Query("sortBy"),
		Direction: strings.ToLower(c.Query("sortDirection")),
	}
	opts.Pagination = query.Pagination{
		Page:  c.QueryInt("page", query.DefaultPage),
		Limit: c.QueryInt("limit", query.DefaultLimit),
	}
	return opts, nil
}

func optionalInt(c *fiber.Ctx, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New(key + " must be an integer")
	}
	return &v, nil
}

// GetLesson handles GET /lesson/:id
func (h *LessonHandler) GetLesson(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	lesson, err := h.service.GetLesson(c.UserContext(), uint(id))
	if err != nil {
		return h.serviceError(c, err, "Failed to fetch lesson")
	}
	return response.Success(c, lesson)
}

// CreateLesson handles POST /lesson (admin only)
func (h *LessonHandler) CreateLesson(c *fiber.Ctx) error {
	var req CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	lesson, err := h.service.CreateLesson(c.UserContext(), services.CreateLessonInput{
		Title:   req.Title,
		Subject: model.Subject(strings.ToUpper(req.Subject)),
		Grade:   req.Grade,
	})
	if err != nil {
		return h.serviceError(c, err, "Failed to create lesson")
	}

	return response.Created(c, "Lesson created successfully", lesson)
}

// UpdateLesson handles PATCH /lesson/:id (admin only)
func (h *LessonHandler) UpdateLesson(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	var req UpdateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	lesson, err := h.service.UpdateLesson(c.UserContext(), uint(id), services.UpdateLessonInput{
		Title: req.Title,
		Grade: req.Grade,
	})
	if err != nil {
		return h.serviceError(c, err, "Failed to update lesson")
	}

	return response.SuccessWithMessage(c, "Lesson updated successfully", lesson)
}

// DeleteLesson handles DELETE /lesson/:id (admin only)
func (h *LessonHandler) DeleteLesson(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	lesson, err := h.service.DeleteLesson(c.UserContext(), uint(id))
	if err != nil {
		return h.serviceError(c, err, "Failed to delete lesson")
	}

	return response.SuccessWithMessage(c, "Lesson deleted successfully", lesson)
}

// EnrollUser handles POST /lesson/:lessonId/enroll?userId=
func (h *LessonHandler) EnrollUser(c *fiber.Ctx) error {
	lessonID, userID, err := learnerParams(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	enrollment, err := h.service.EnrollUser(c.UserContext(), userID, lessonID)
	if err != nil {
		return h.serviceError(c, err, "Failed to enroll user")
	}

	return response.SuccessWithMessage(c, "User enrolled successfully", enrollment)
}

// CompleteLesson handles POST /lesson/:lessonId/complete?userId=
func (h *LessonHandler) CompleteLesson(c *fiber.Ctx) error {
	lessonID, userID, err := learnerParams(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	completion, err := h.service.CompleteLesson(c.UserContext(), userID, lessonID)
	if err != nil {
		return h.serviceError(c, err, "Failed to complete lesson")
	}

	return response.SuccessWithMessage(c, "Lesson completed successfully", completion)
}

func learnerParams(c *fiber.Ctx) (lessonID, userID uint, err error) {
	l, err := c.ParamsInt("lessonId")
	if err != nil || l < 1 {
		return 0, 0, errors.New("invalid lesson ID")
	}
	u := c.QueryInt("userId", 0)
	if u < 1 {
		return 0, 0, errors.New("userId query parameter is required")
	}
	return uint(l), uint(u), nil
}

func (h *LessonHandler) serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case domain.IsValidationError(err):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrLessonNotFound):
		return response.NotFound(c, "Lesson not found")
	case services.IsPublishFailure(err):
		log.Errorw("event publish failed", "path", c.Path(), "error", err)
		return response.InternalServerError(c, "Failed to publish event")
	}
	log.Errorw(fallback, "path", c.Path(), "error", err)
	return response.InternalServerError(c, fallback)
}
