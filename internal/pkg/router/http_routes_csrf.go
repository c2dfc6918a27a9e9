package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"shopward/app/controllers"
	"shopward/internal/pkg/authz"
	"shopward/internal/pkg/constants"
	"shopward/internal/pkg/env"
	"shopward/internal/pkg/middleware"
)

// runsRequirement gates the bulk run feature to the plan tier that carries
// the MaxRun option.
var runsRequirement = authz.MustRequirePlanOption(3, "MaxRun", "100")

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get(constants.PublicRoute, loggedInMiddleware, controllers.HandleStart)
	group.Get(constants.LoginRoute, loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post(constants.LoginRoute, loggedInMiddleware, controllers.HandleAuthLogin)

	// Store connection and plan selection stay outside the pipeline: they are
	// where the pipeline sends tenants who do not pass it yet.
	group.Get(constants.ConnectRoute, middleware.RequireAuth, controllers.HandleConnect)
	group.Get(constants.ChoosePlanRoute, middleware.RequireAuth, controllers.HandleChoosePlan)
	group.Post(constants.ChoosePlanRoute, middleware.RequireAuth, controllers.HandleSelectPlan)
	group.Get(constants.PlanDeniedRoute, middleware.RequireAuth, controllers.HandlePlanDenied)

	// Tenant pages behind the full access pipeline
	group.Get(constants.DashboardRoute, middleware.Authorize(appPipeline, nil), controllers.HandleDashboard)
	group.Get("/runs", middleware.Authorize(appPipeline, &runsRequirement), controllers.HandleRuns)

	// Admin pages with form posts
	group.Get("/admin/settings", middleware.RequireAdmin, controllers.HandleAdminSettings)
	group.Post("/admin/settings", middleware.RequireAdmin, controllers.HandleAdminSettingsUpdate)
	group.Get("/admin/plans", middleware.RequireAdmin, controllers.HandleAdminPlans)
	group.Post("/admin/plans/update/:id", middleware.RequireAdmin, controllers.HandleAdminPlanUpdate)
}
