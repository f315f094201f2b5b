// Package app assembles the services, the event wiring and the ops API.
package app

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticketbot/internal/api/http"
	"github.com/spec-kit/ticketbot/internal/api/http/handlers"
	"github.com/spec-kit/ticketbot/internal/auth"
	"github.com/spec-kit/ticketbot/internal/clock"
	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/observability"
	"github.com/spec-kit/ticketbot/internal/platform"
	"github.com/spec-kit/ticketbot/internal/service"
)

// App is the assembled bot.
type App struct {
	Config        *config.Config
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Registry      *service.RegistryService
	Cooldowns     *service.CooldownService
	Anchors       *service.AnchorService
	Notifications *service.NotificationService
	Presence      *service.PresenceService
	Lifecycle     *service.LifecycleService
	Tokens        *auth.TokenManager

	stores *Stores
	logger *zap.Logger
}

// New wires the services on top of p. Notifications and presence updates
// are delivered asynchronously so they never delay an interaction reply.
func New(cfg *config.Config, p platform.Platform, stores *Stores, clk clock.Clock, logger *zap.Logger) *App {
	dispatcher := events.NewAsyncDispatcher(logger)
	metrics := observability.NewMetrics()
	registry := service.NewRegistryService(p)
	cooldowns := service.NewCooldownService(stores.Cooldowns, cfg.Tickets.Cooldown(), logger)

	notifications := service.NewNotificationService(dispatcher, p, cfg.Guilds, metrics, logger)
	notifications.RegisterHandlers()
	presence := service.NewPresenceService(p, registry, cfg.Guilds, logger)
	presence.RegisterHandlers(dispatcher)

	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		Platform:       p,
		Cooldowns:      cooldowns,
		Registry:       registry,
		Dispatcher:     dispatcher,
		Guilds:         cfg.Guilds,
		Clock:          clk,
		ConfirmTimeout: cfg.Tickets.CloseConfirmTimeout(),
		Metrics:        metrics,
		Logger:         logger,
	})

	return &App{
		Config:        cfg,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Registry:      registry,
		Cooldowns:     cooldowns,
		Anchors:       service.NewAnchorService(p, stores.Anchors, cfg.Guilds, logger),
		Notifications: notifications,
		Presence:      presence,
		Lifecycle:     lifecycle,
		Tokens:        auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTLMinutes),
		stores:        stores,
		logger:        logger,
	}
}

// HTTP builds the ops API. gateway reports the chat connection state for
// the readiness probe.
func (a *App) HTTP(gateway func() bool) *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:               a.Config.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
	})
	httptransport.RegisterMiddlewares(server, a.logger, a.Metrics, 10*time.Second)
	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(a.Config.App.Name, a.Config.App.Version, gateway, map[string]handlers.Pinger{
			"postgres": a.stores.Postgres,
			"redis":    a.stores.Redis,
		}),
		Status:         handlers.NewStatusHandler(a.Registry, a.Presence, a.Config.Guilds, a.Metrics),
		Admin:          handlers.NewAdminHandler(a.Anchors, a.Presence, a.Config.Guilds, a.logger),
		AuthMiddleware: auth.NewAuthMiddleware(a.Tokens),
	})
	return server
}
