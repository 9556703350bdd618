package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/sahilchouksey/learnhub/utils/response"
)

// Access is the requirement a gateway route places on the caller
type Access int

const (
	AccessPublic Access = iota
	AccessToken
	AccessAdmin
)

var (
	learnerActionPath = regexp.MustCompile(`/(enroll|complete)/?$`)
	publicUserPath    = regexp.MustCompile(`/auth/(register|login)/?$`)
)

// RouteAccess decides what a gateway request needs before it is proxied.
// Lesson reads are public, enroll/complete need a token and other lesson writes need ADMIN.
// User registration and login are public, everything else under /users and /achievements needs a token.
func RouteAccess(method, path string) Access {
	switch {
	case hasPrefix(path, "/lessons"):
		switch method {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return AccessPublic
		}
		if method == fiber.MethodPost && learnerActionPath.MatchString(path) {
			return AccessToken
		}
		return AccessAdmin
	case hasPrefix(path, "/users"):
		if method == fiber.MethodOptions || publicUserPath.MatchString(path) {
			return AccessPublic
		}
		return AccessToken
	case hasPrefix(path, "/achievements"):
		if method == fiber.MethodOptions {
			return AccessPublic
		}
		return AccessToken
	}
	return AccessPublic
}

func hasPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// RouteGuard enforces RouteAccess at the gateway
func (m *AuthMiddleware) RouteGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		access := RouteAccess(c.Method(), c.Path())
		if access == AccessPublic {
			return c.Next()
		}

		ok, err := m.authenticate(c)
		if !ok {
			return err
		}

		if access == AccessAdmin {
			if role, _ := GetUserRole(c); role != string(model.RoleAdmin) {
				return response.Forbidden(c, "Admin access required")
			}
		}
		return c.Next()
	}
}
