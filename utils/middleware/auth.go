package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/sahilchouksey/learnhub/utils/auth"
	"github.com/sahilchouksey/learnhub/utils/response"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
}

// NewAuthMiddleware creates a new auth middleware. blacklist may be nil when Redis is not configured.
func NewAuthMiddleware(jwtManager *auth.JWTManager, blacklist *auth.BlacklistService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: blacklist,
	}
}

var (
	errMissingToken = errors.New("missing authorization token")
	errTokenFormat  = errors.New("invalid authorization format")
)

// BearerToken extracts the token from "Authorization: Bearer <token>"
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", errMissingToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errTokenFormat
	}
	return parts[1], nil
}

// authenticate validates the bearer token and stores the claims in Locals.
// It writes the 401/500 response itself and returns ok=false when the request must stop.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (bool, error) {
	tokenString, err := BearerToken(c)
	if err != nil {
		return false, response.ErrorWithDescription(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
	}

	claims, err := m.jwtManager.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return false, response.ErrorWithDescription(c, fiber.StatusUnauthorized, "Unauthorized", "Token has expired")
		}
		return false, response.ErrorWithDescription(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid token")
	}

	// Check if token is revoked (blacklisted)
	if m.blacklistService != nil {
		isRevoked, err := m.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
		if err != nil {
			return false, response.InternalServerError(c, "Failed to check token status")
		}
		if isRevoked {
			return false, response.ErrorWithDescription(c, fiber.StatusUnauthorized, "Unauthorized", "Token has been revoked")
		}
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("user_email", claims.Email)
	c.Locals("user_role", claims.Role)
	c.Locals("claims", claims)
	c.Locals("token_jti", claims.ID)

	return true, nil
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := m.authenticate(c)
		if !ok {
			return err
		}
		return c.Next()
	}
}

// RequireRole is middleware that requires a valid token carrying one of roles
func (m *AuthMiddleware) RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := m.authenticate(c)
		if !ok {
			return err
		}

		role, _ := GetUserRole(c)
		for _, r := range roles {
			if role == string(r) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequirePermission is middleware that requires a valid token whose user passes allowed
func (m *AuthMiddleware) RequirePermission(allowed func(*model.User) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := m.authenticate(c)
		if !ok {
			return err
		}

		id, _ := GetUserID(c)
		role, _ := GetUserRole(c)
		if !allowed(&model.User{ID: id, Role: model.Role(role)}) {
			return response.Forbidden(c, "Insufficient permissions")
		}
		return c.Next()
	}
}

// RequireAdmin is middleware that requires the ADMIN role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return m.RequireRole(model.RoleAdmin)
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *fiber.Ctx) (string, bool) {
	email := c.Locals("user_email")
	if email == nil {
		return "", false
	}
	e, ok := email.(string)
	return e, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role := c.Locals("user_role")
	if role == nil {
		return "", false
	}
	r, ok := role.(string)
	return r, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims := c.Locals("claims")
	if claims == nil {
		return nil, false
	}
	claimsData, ok := claims.(*auth.Claims)
	return claimsData, ok
}
