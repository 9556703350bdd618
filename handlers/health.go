package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learnhub/database"
	"github.com/sahilchouksey/learnhub/utils/response"
)

// HandleHealthz is the liveness probe
func HandleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// HandleReadyz reports ready only when the store answers a ping
func HandleReadyz(store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.HealthCheck(); err != nil {
			log.Warnw("readiness check failed", "error", err)
			return response.ServiceUnavailable(c, "Database unavailable")
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

// HandleCheckHealth answers /ping. With a store it also pings the database; the gateway has none.
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if store != nil {
		if err := store.HealthCheck(); err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
