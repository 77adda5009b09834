package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Accounts       *handlers.AccountHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api/v1")

	user := api.Group("/user")
	user.Post("/signup", cfg.Users.Signup)
	user.Post("/signin", cfg.Users.Signin)
	user.Get("/bulk", cfg.Users.Bulk)
	user.Put("/", cfg.AuthMiddleware.Handle, cfg.Users.Update)

	account := api.Group("/account", cfg.AuthMiddleware.Handle)
	account.Get("/balance", cfg.Accounts.Balance)
}
