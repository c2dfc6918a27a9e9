package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopward/internal/pkg/session"
	"shopward/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request.
// This centralizes user session handling and eliminates code duplication.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	// We skip our app session on /auth/* to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		setAnonymous(c)
		return c.Next()
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		setAnonymous(c)
		return c.Next()
	}

	email, _ := sess.Get(usercontext.KeyUserEmail).(string)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)

	usercontext.Set(c, usercontext.UserContext{
		UserID:     userID.(uint),
		Email:      email,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
	})
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, userID.(uint))
	c.Locals(usercontext.KeyUserEmail, email)
	c.Locals(usercontext.KeyIsAdmin, isAdmin)

	return c.Next()
}

func setAnonymous(c *fiber.Ctx) {
	usercontext.Set(c, usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(usercontext.KeyFromProtected, false)
	c.Locals(usercontext.KeyIsAdmin, false)
}
