package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/auth"
	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/service"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

// AdminHandler exposes operator actions.
type AdminHandler struct {
	anchors  *service.AnchorService
	presence *service.PresenceService
	guilds   []config.GuildConfig
	logger   *zap.Logger
}

// NewAdminHandler constructs handler.
func NewAdminHandler(anchors *service.AnchorService, presence *service.PresenceService, guilds []config.GuildConfig, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{anchors: anchors, presence: presence, guilds: guilds, logger: logger}
}

type anchorResult struct {
	GuildID   string     `json:"guild_id"`
	ChannelID string     `json:"channel_id,omitempty"`
	MessageID string     `json:"message_id,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// PublishAnchors POST /admin/anchors/publish[?guild_id=].
func (h *AdminHandler) PublishAnchors(c *fiber.Ctx) error {
	targets := h.guilds
	if id := c.Query("guild_id"); id != "" {
		targets = nil
		for _, g := range h.guilds {
			if g.GuildID == id {
				targets = append(targets, g)
			}
		}
		if len(targets) == 0 {
			return apperrors.NewNotFound("guild", map[string]any{"guild_id": id})
		}
	}

	if p, ok := auth.PrincipalFromContext(c); ok {
		h.logger.Info("anchor publication requested", zap.String("operator", p.SubjectID), zap.Int("guilds", len(targets)))
	}

	results := make([]anchorResult, 0, len(targets))
	failed := 0
	for _, g := range targets {
		record, err := h.anchors.EnsurePublished(c.UserContext(), g)
		if err != nil {
			failed++
			results = append(results, anchorResult{GuildID: g.GuildID, Error: err.Error()})
			continue
		}
		updatedAt := record.UpdatedAt
		results = append(results, anchorResult{
			GuildID:   g.GuildID,
			ChannelID: record.ChannelID,
			MessageID: record.MessageID,
			UpdatedAt: &updatedAt,
		})
	}

	status := fiber.StatusOK
	if failed > 0 {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(fiber.Map{"data": results})
}

// RefreshPresence POST /admin/presence/refresh.
func (h *AdminHandler) RefreshPresence(c *fiber.Ctx) error {
	n := h.presence.Refresh(c.UserContext())
	return c.JSON(fiber.Map{"data": fiber.Map{"open_tickets": n}})
}
