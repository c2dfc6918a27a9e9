package middleware

import (
	"github.com/gofiber/fiber/v2"

	"shopward/internal/pkg/constants"
	"shopward/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	v := c.Locals(usercontext.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAdmin ensures a logged-in admin; redirects otherwise.
func RequireAdmin(c *fiber.Ctx) error {
	v := c.Locals(usercontext.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}
	if isAdmin, ok := c.Locals(usercontext.KeyIsAdmin).(bool); !ok || !isAdmin {
		return c.Redirect(constants.PublicRoute, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPISessionAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	v := c.Locals(usercontext.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}
