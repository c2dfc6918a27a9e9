package flash

import (
	"github.com/gofiber/fiber/v2"
)

// Flash message key in request locals
const FlashKey = "flash"

// Set stores a flash message for the current request
func Set(c *fiber.Ctx, message fiber.Map) {
	c.Locals(FlashKey, message)
}

// Get retrieves the flash message for the current request
func Get(c *fiber.Ctx) fiber.Map {
	flashMessage := c.Locals(FlashKey)
	if flashMessage == nil {
		return nil
	}

	return flashMessage.(fiber.Map)
}
