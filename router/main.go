package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub/database"
	"github.com/sahilchouksey/learnhub/domain"
	"github.com/sahilchouksey/learnhub/handlers"
	achievement_handlers "github.com/sahilchouksey/learnhub/handlers/achievement"
	lesson_handlers "github.com/sahilchouksey/learnhub/handlers/lesson"
	user_handlers "github.com/sahilchouksey/learnhub/handlers/user"
	"github.com/sahilchouksey/learnhub/utils"
	"github.com/sahilchouksey/learnhub/utils/middleware"
)

// ServiceDeps is what every backend service router needs
type ServiceDeps struct {
	Store    database.Storage
	Auth     *middleware.AuthMiddleware
	Security middleware.SecurityConfig
}

// setupCommon applies the security stack and the probe endpoints and returns the /api/v1 group
func setupCommon(app *fiber.App, deps ServiceDeps) fiber.Router {
	middleware.SetupSecurity(app, deps.Security)

	app.Get("/healthz", handlers.HandleHealthz)
	app.Get("/readyz", handlers.HandleReadyz(deps.Store))
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, deps.Store))

	return app.Group("/api/v1")
}

// SetupUserRoutes mounts the user service. bruteForce is nil without Redis.
func SetupUserRoutes(app *fiber.App, deps ServiceDeps, h *user_handlers.UserHandler, bruteForce *middleware.BruteForceProtection) {
	api := setupCommon(app, deps)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", h.Register)

	// Login with brute force protection
	if bruteForce != nil {
		authGroup.Post("/login", bruteForce.CheckAndRecordAttempt(), h.Login)
	} else {
		authGroup.Post("/login", h.Login)
	}

	authGroup.Post("/logout", deps.Auth.Required(), h.Logout)

	api.Get("/user/me", deps.Auth.Required(), h.Me)
}

// SetupLessonRoutes mounts the lesson service
func SetupLessonRoutes(app *fiber.App, deps ServiceDeps, h *lesson_handlers.LessonHandler) {
	api := setupCommon(app, deps)

	// Reads need a token, writes and learner actions need ADMIN
	lessons := api.Group("/lesson")
	lessons.Get("/", deps.Auth.Required(), h.ListLessons)
	lessons.Get("/:id", deps.Auth.Required(), h.GetLesson)
	lessons.Post("/", deps.Auth.RequirePermission(domain.CanCreateLesson), h.CreateLesson)
	lessons.Patch("/:id", deps.Auth.RequirePermission(domain.CanCreateLesson), h.UpdateLesson)
	lessons.Delete("/:id", deps.Auth.RequirePermission(domain.CanCreateLesson), h.DeleteLesson)
	lessons.Post("/:lessonId/enroll", deps.Auth.RequirePermission(domain.CanManageUsers), h.EnrollUser)
	lessons.Post("/:lessonId/complete", deps.Auth.RequirePermission(domain.CanManageUsers), h.CompleteLesson)
}

// SetupAchievementRoutes mounts the achievement service
func SetupAchievementRoutes(app *fiber.App, deps ServiceDeps, h *achievement_handlers.AchievementHandler) {
	api := setupCommon(app, deps)

	achievements := api.Group("/achievement")
	achievements.Get("/me", deps.Auth.Required(), h.ListAchievements)
	achievements.Get("/user/:userId", deps.Auth.Required(), h.GetUserAchievements)
	achievements.Post("/", deps.Auth.RequireAdmin(), h.CreateAchievement)
	achievements.Patch("/:id", deps.Auth.RequireAdmin(), h.UpdateAchievement)
}
