package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HandleHealth reports that the server is up.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
}
