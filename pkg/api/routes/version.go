package routes

import "github.com/gofiber/fiber/v2"

const Version = "v1.0"

func APIVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": Version,
	})
}
