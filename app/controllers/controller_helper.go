package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopward/internal/pkg/usercontext"
)

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(usercontext.KeyFromProtected); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// ExtractEmail gets the user email from Locals (set by middleware)
func ExtractEmail(c *fiber.Ctx) string {
	if v := c.Locals(usercontext.KeyUserEmail); v != nil {
		if email, ok := v.(string); ok {
			return email
		}
	}

	return ""
}

// GetClientIP determines the actual client IP address considering proxies.
// Checks Cloudflare and X-Forwarded-For headers before falling back to the
// connection address.
func GetClientIP(c *fiber.Ctx) string {
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}

	if xff := c.Get("X-Forwarded-For"); xff != "" {
		// the first entry is the original client
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	return c.IP()
}

func csrfToken(c *fiber.Ctx) string {
	if v, ok := c.Locals("csrf").(string); ok {
		return v
	}
	return ""
}
