package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hospitality-auth/internal/api/http/handlers"
	"github.com/spec-kit/hospitality-auth/internal/auth"
	"github.com/spec-kit/hospitality-auth/internal/domain"
	"github.com/spec-kit/hospitality-auth/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	authGroup := app.Group("/api/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/verify", cfg.Auth.Verify)

	managers := protected.Group("", auth.RequireRole(domain.EmployeeManagerRoles...), auth.RequireEstablishment())
	managers.Post("/register-employee", cfg.Auth.RegisterEmployee)
	managers.Get("/employees", cfg.Auth.ListEmployees)

	admin := app.Group("/api/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleSuperAdmin))
	admin.Post("/establishments/:id/approve", cfg.Auth.ApproveEstablishment)
	admin.Post("/establishments/:id/reject", cfg.Auth.RejectEstablishment)
}
