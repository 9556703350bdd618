package achievement

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learnhub/domain"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/sahilchouksey/learnhub/services"
	"github.com/sahilchouksey/learnhub/utils/response"
	"github.com/sahilchouksey/learnhub/utils/validation"
)

// AchievementHandler handles achievement requests
type AchievementHandler struct {
	service   *services.AchievementService
	validator *validation.Validator
}

// NewAchievementHandler creates a new achievement handler
func NewAchievementHandler(service *services.AchievementService) *AchievementHandler {
	return &AchievementHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// CreateAchievementRequest represents the request body for creating an achievement
type CreateAchievementRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Type        string  `json:"type" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Points      int     `json:"points"`
	Threshold   *int    `json:"threshold"`
	Icon        *string `json:"icon"`
}

// UpdateAchievementRequest represents the request body for updating an achievement.
// A JSON null threshold is indistinguishable from an absent one; use clearThreshold to drop it.
type UpdateAchievementRequest struct {
	Points         *int  `json:"points"`
	Threshold      *int  `json:"threshold"`
	ClearThreshold bool  `json:"clearThreshold"`
	IsActive       *bool `json:"isActive"`
}

// UserAchievementsResponse is the payload of GET /achievement/user/:userId
type UserAchievementsResponse struct {
	Achievements []model.UserAchievement `json:"achievements"`
	Stats        *model.UserStats        `json:"stats"`
}

// ListAchievements handles GET /achievement/me
func (h *AchievementHandler) ListAchievements(c *fiber.Ctx) error {
	achievements, err := h.service.ListAchievements(c.UserContext())
	if err != nil {
		log.Errorw("failed to list achievements", "error", err)
		return response.InternalServerError(c, "Failed to fetch achievements")
	}
	return response.Success(c, achievements)
}

// GetUserAchievements handles GET /achievement/user/:userId
func (h *AchievementHandler) GetUserAchievements(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil || userID < 1 {
		return response.BadRequest(c, "Invalid user ID")
	}

	ctx := c.UserContext()
	awards, err := h.service.GetUserAchievements(ctx, uint(userID))
	if err != nil {
		log.Errorw("failed to fetch user achievements", "userId", userID, "error", err)
		return response.InternalServerError(c, "Failed to fetch user achievements")
	}

	stats, err := h.service.GetUserStats(ctx, uint(userID))
	if err != nil {
		log.Errorw("failed to fetch user stats", "userId", userID, "error", err)
		return response.InternalServerError(c, "Failed to fetch user achievements")
	}

	return response.Success(c, UserAchievementsResponse{Achievements: awards, Stats: stats})
}

// CreateAchievement handles POST /achievement (admin only)
func (h *AchievementHandler) CreateAchievement(c *fiber.Ctx) error {
	var req CreateAchievementRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	achievement, err := h.service.CreateAchievement(c.UserContext(), domain.AchievementParams{
		Name:        req.Name,
		Description: req.Description,
		Type:        model.AchievementType(strings.ToUpper(req.Type)),
		Category:    model.AchievementCategory(strings.ToUpper(req.Category)),
		Points:      req.Points,
		Threshold:   req.Threshold,
		Icon:        req.Icon,
	})
	if err != nil {
		return serviceError(c, err, "Failed to create achievement")
	}

	return response.Created(c, "Achievement created successfully", achievement)
}

// UpdateAchievement handles PATCH /achievement/:id (admin only)
func (h *AchievementHandler) UpdateAchievement(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid achievement ID")
	}

	var req UpdateAchievementRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	achievement, err := h.service.UpdateAchievement(c.UserContext(), uint(id), services.UpdateAchievementInput{
		Points:         req.Points,
		Threshold:      req.Threshold,
		ClearThreshold: req.ClearThreshold,
		IsActive:       req.IsActive,
	})
	if err != nil {
		return serviceError(c, err, "Failed to update achievement")
	}

	return response.SuccessWithMessage(c, "Achievement updated successfully", achievement)
}

func serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case domain.IsValidationError(err):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAchievementNotFound):
		return response.NotFound(c, "Achievement not found")
	}
	log.Errorw(fallback, "path", c.Path(), "error", err)
	return response.InternalServerError(c, fallback)
}
