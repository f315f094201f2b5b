package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/observability"
	"github.com/spec-kit/ticketbot/internal/service"
)

// StatusHandler reports open ticket counts and lifecycle counters.
type StatusHandler struct {
	registry *service.RegistryService
	presence *service.PresenceService
	guilds   []config.GuildConfig
	metrics  *observability.Metrics
}

// NewStatusHandler constructs handler.
func NewStatusHandler(registry *service.RegistryService, presence *service.PresenceService, guilds []config.GuildConfig, metrics *observability.Metrics) *StatusHandler {
	return &StatusHandler{registry: registry, presence: presence, guilds: guilds, metrics: metrics}
}

type guildStatus struct {
	GuildID     string `json:"guild_id"`
	OpenTickets int    `json:"open_tickets"`
	Error       string `json:"error,omitempty"`
}

// Status GET /status.
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	items := make([]guildStatus, 0, len(h.guilds))
	total := 0
	for _, g := range h.guilds {
		n, err := h.registry.Count(c.UserContext(), g.GuildID)
		item := guildStatus{GuildID: g.GuildID, OpenTickets: n}
		if err != nil {
			item.Error = err.Error()
		}
		total += n
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"guilds":       items,
		"open_tickets": total,
		"presence":     h.presence.Last(),
		"metrics":      h.metrics.Snapshot(),
	}})
}
