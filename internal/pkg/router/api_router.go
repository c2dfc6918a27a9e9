package router

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "shopward/internal/api/v1"
	"shopward/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// fail fast on a broken served document
	if _, err := apiv1.LoadSpec("./public/docs/v1/openapi.yml"); err != nil {
		log.Printf("openapi document check failed: %v", err)
	}

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer(appPlans, appIdentities)
	apiv1.RegisterHandlers(v1, apiServer, middleware.RequireAPISessionAuth)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
