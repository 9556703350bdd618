package user

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learnhub/domain"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/sahilchouksey/learnhub/services"
	authutil "github.com/sahilchouksey/learnhub/utils/auth"
	"github.com/sahilchouksey/learnhub/utils/middleware"
	"github.com/sahilchouksey/learnhub/utils/response"
	"github.com/sahilchouksey/learnhub/utils/validation"
)

// UserHandler handles authentication and profile requests
type UserHandler struct {
	service              *services.UserService
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewUserHandler creates a new user handler. blacklist and bruteForce are nil when Redis is not configured.
func NewUserHandler(service *services.UserService, blacklist *authutil.BlacklistService, bruteForce *middleware.BruteForceProtection) *UserHandler {
	return &UserHandler{
		service:              service,
		blacklistService:     blacklist,
		bruteForceProtection: bruteForce,
		validator:            validation.NewValidator(),
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty"` // Optional, defaults to STUDENT
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID    uint       `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// LoginResponse is the login payload
type LoginResponse struct {
	AccessToken string     `json:"accessToken"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	Role        model.Role `json:"role"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Register handles user registration
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	user, err := h.service.Register(c.UserContext(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		switch {
		case domain.IsValidationError(err):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrEmailExists):
			return response.Conflict(c, "Email already exists")
		}
		log.Errorw("failed to register user", "error", err)
		return response.InternalServerError(c, "Failed to create user")
	}

	return response.Created(c, "User registered successfully", toUserResponse(user))
}

// Login handles user login
func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			if h.bruteForceProtection != nil {
				if err := h.bruteForceProtection.RecordFailedAttempt(c); err != nil {
					log.Warnw("failed to record login attempt", "error", err)
				}
			}
			return response.Unauthorized(c, "Invalid email or password")
		}
		log.Errorw("login failed", "error", err)
		return response.InternalServerError(c, "Failed to log in")
	}

	if h.bruteForceProtection != nil {
		if err := h.bruteForceProtection.RecordSuccessfulAttempt(c); err != nil {
			log.Warnw("failed to clear login attempts", "error", err)
		}
	}

	return response.SuccessWithMessage(c, "Login successful", LoginResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.Token.ExpiresAt,
		ID:          result.User.ID,
		Email:       result.User.Email,
		Role:        result.User.Role,
	})
}

// Logout revokes the caller's token until it expires
func (h *UserHandler) Logout(c *fiber.Ctx) error {
	if h.blacklistService == nil {
		return response.ServiceUnavailable(c, "Token revocation is not available")
	}

	claims, ok := middleware.GetClaims(c)
	if !ok || claims.ID == "" || claims.ExpiresAt == nil {
		return response.Unauthorized(c, "")
	}

	if err := h.blacklistService.RevokeToken(c.UserContext(), claims.ID, claims.ExpiresAt.Time); err != nil {
		log.Errorw("failed to revoke token", "jti", claims.ID, "error", err)
		return response.ServiceUnavailable(c, "Token revocation is not available")
	}

	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}

// Me returns the caller's profile
func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	user, err := h.service.GetProfile(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		log.Errorw("failed to load profile", "userId", userID, "error", err)
		return response.InternalServerError(c, "Failed to load profile")
	}

	return response.Success(c, toUserResponse(user))
}
