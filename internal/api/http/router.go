package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketbot/internal/api/http/handlers"
	"github.com/spec-kit/ticketbot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Status         *handlers.StatusHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/status", cfg.Status.Status)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle)
	admin.Post("/anchors/publish", cfg.Admin.PublishAnchors)
	admin.Post("/presence/refresh", cfg.Admin.RefreshPresence)
}
