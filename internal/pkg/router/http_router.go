package router

import (
	"github.com/gofiber/fiber/v2"

	"shopward/app/controllers"
	"shopward/app/repository"
	"shopward/internal/pkg/authz"
	"shopward/internal/pkg/billing"
	"shopward/internal/pkg/database"
	"shopward/internal/pkg/identity"
	"shopward/internal/pkg/middleware"
	"shopward/internal/pkg/notify"
	"shopward/internal/pkg/oauth"
	"shopward/internal/pkg/plancache"
	"shopward/internal/pkg/session"
	"shopward/internal/pkg/settingscache"
)

type HttpRouter struct {
}

// Shared request-path dependencies, built once at install time.
var (
	appSettings   *settingscache.Cache
	appPlans      *plancache.Cache
	appIdentities *identity.Cache
	appPipeline   *authz.Pipeline
)

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// reference data caches and the access pipeline
	repos := repository.NewFactory(database.GetDB()).GetRepositories()
	appSettings = settingscache.New(repos.Setting, settingscache.DefaultTTL)
	appPlans = plancache.New(repos.Plan, plancache.DefaultTTL)
	appIdentities = identity.New(repos.User, identity.NewRedisStore(), identity.DefaultTTL)
	appPipeline = authz.NewPipeline(
		appSettings,
		appIdentities,
		billing.NewStatusClientFromEnv(),
		repos.User,
		notify.NewMailNotifierFromEnv(),
		appPlans,
	)

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	controllers.InitializeAuthController(repos.User, appIdentities)
	controllers.InitializeMainController(appPlans, appIdentities)
	controllers.InitializeBillingController(repos.User, appPlans, appIdentities)
	controllers.InitializeAdminController(repos, appSettings, appPlans, appIdentities)

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context; this middleware
	// just passes through. All user information is available via
	// usercontext.GetUserContext(c).
	return c.Next()
}
