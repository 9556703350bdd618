package utils

import (
	fiber "github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub/database"
	"github.com/sahilchouksey/learnhub/utils/response"
)

// MakeHTTPHandleFunc binds a store-aware handler into a fiber handler; returned errors become a 500 envelope
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, store database.Storage) error, store database.Storage) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if err := handler(c, store); err != nil {
			return response.ErrorWithDescription(c, fiber.StatusInternalServerError, "Internal server error", err.Error())
		}
		return nil
	}
}
