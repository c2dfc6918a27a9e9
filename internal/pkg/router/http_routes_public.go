package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"shopward/app/controllers"
	"shopward/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Platform OAuth handshake
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandlePlatformCallback)
}
