package router

import (
	"github.com/gofiber/fiber/v2"

	"shopward/app/controllers"
	"shopward/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	// The access pipeline runs without a plan requirement here: the IP
	// allow-list and store connection checks still apply to admins, plan
	// gating never does.
	adminGroup := app.Group("/admin",
		middleware.RequireAdmin,
		middleware.Authorize(appPipeline, nil),
	)
	adminGroup.Get("/", controllers.HandleAdminDashboard)
	adminGroup.Get("/users", controllers.HandleAdminUsers)
	adminGroup.Post("/users/update-plan/:id", controllers.HandleAdminUserUpdatePlan)

	// Snapshot administration
	adminGroup.Post("/cache/settings/reload", controllers.HandleAdminSettingsCacheReload)
	adminGroup.Post("/cache/plans/reload", controllers.HandleAdminPlansCacheReload)
}
