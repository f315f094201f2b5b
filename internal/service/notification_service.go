package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/observability"
	"github.com/spec-kit/ticketbot/internal/platform"
	"github.com/spec-kit/ticketbot/internal/presentation"
)

// NotificationService delivers best-effort side-channel notices: audit
// posts and direct messages to requesters. Failures are logged and
// counted, never returned to the lifecycle that triggered them.
type NotificationService struct {
	dispatcher events.Dispatcher
	platform   platform.Platform
	guilds     map[string]config.GuildConfig
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, p platform.Platform, guilds []config.GuildConfig, metrics *observability.Metrics, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		platform:   p,
		guilds:     guildIndex(guilds),
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketOpened, n.handleTicketOpened)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleTicketClosed)
}

func (n *NotificationService) handleTicketOpened(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketOpenedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("TicketOpened",
		zap.String("event_id", event.ID),
		zap.String("guild_id", event.GuildID),
		zap.String("channel_id", event.ChannelID),
		zap.String("owner_id", payload.OwnerID))
	n.Emit(ctx, event.Type, event.GuildID,
		presentation.AuditOpened(payload.OwnerID, event.ChannelID, payload.Category))
	return nil
}

func (n *NotificationService) handleTicketClosed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("TicketClosed",
		zap.String("event_id", event.ID),
		zap.String("guild_id", event.GuildID),
		zap.String("channel_id", event.ChannelID),
		zap.String("closed_by", event.Actor.UserID))

	if payload.OwnerID != "" {
		guildName := ""
		if g, err := n.platform.Guild(ctx, event.GuildID); err == nil {
			guildName = g.Name
		}
		n.NotifyUser(ctx, payload.OwnerID, presentation.ClosedNotice(guildName, payload.ChannelName))
	}
	n.Emit(ctx, event.Type, event.GuildID,
		presentation.AuditClosed(event.Actor.UserID, payload.ChannelName, payload.OwnerID))
	return nil
}

// Emit posts msg to the audit channel of guildID, if one is configured.
func (n *NotificationService) Emit(ctx context.Context, kind events.EventType, guildID string, msg platform.Message) {
	guild, ok := n.guilds[guildID]
	if !ok || guild.AuditChannelID == "" {
		return
	}
	_, err := n.platform.SendMessage(ctx, guild.AuditChannelID, msg)
	n.metrics.RecordNotification(string(kind), err == nil)
	if err != nil {
		n.logger.Warn("audit post failed",
			zap.String("kind", string(kind)),
			zap.String("guild_id", guildID),
			zap.String("channel_id", guild.AuditChannelID),
			zap.Error(err))
	}
}

// NotifyUser delivers msg as a direct message. Users who block direct
// messages are common; the failure is only logged.
func (n *NotificationService) NotifyUser(ctx context.Context, userID string, msg platform.Message) {
	err := n.platform.SendDirect(ctx, userID, msg)
	n.metrics.RecordNotification("direct", err == nil)
	if err != nil {
		level := zap.WarnLevel
		if errors.Is(err, context.Canceled) {
			level = zap.DebugLevel
		}
		n.logger.Check(level, "direct notice failed").Write(zap.String("user_id", userID), zap.Error(err))
	}
}

func guildIndex(guilds []config.GuildConfig) map[string]config.GuildConfig {
	idx := make(map[string]config.GuildConfig, len(guilds))
	for _, g := range guilds {
		idx[g.GuildID] = g
	}
	return idx
}
