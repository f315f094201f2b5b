// Package discord routes gateway events into the ticket services.
package discord

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/platform"
	"github.com/spec-kit/ticketbot/internal/service"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

const interactionTimeout = 15 * time.Second

// InteractionHandler runs a lifecycle interaction.
type InteractionHandler interface {
	Handle(ctx context.Context, in service.Interaction) error
}

// AnchorPublisher publishes the anchor message of every guild.
type AnchorPublisher interface {
	PublishAll(ctx context.Context) error
}

// PresenceRefresher recounts open tickets into the bot status.
type PresenceRefresher interface {
	Refresh(ctx context.Context) int
}

// Router connects session events to the services.
type Router struct {
	lifecycle InteractionHandler
	anchors   AnchorPublisher
	presence  PresenceRefresher
	logger    *zap.Logger

	connected atomic.Bool
}

// NewRouter constructs a router.
func NewRouter(lifecycle InteractionHandler, anchors AnchorPublisher, presence PresenceRefresher, logger *zap.Logger) *Router {
	return &Router{lifecycle: lifecycle, anchors: anchors, presence: presence, logger: logger}
}

// Register attaches the router's handlers to session.
func (r *Router) Register(session *discordgo.Session) {
	session.AddHandler(r.onReady)
	session.AddHandler(r.onDisconnect)
	session.AddHandler(r.onInteraction)
}

// Connected reports whether the gateway session is up.
func (r *Router) Connected() bool {
	return r.connected.Load()
}

func (r *Router) onReady(_ *discordgo.Session, e *discordgo.Ready) {
	r.connected.Store(true)
	if e.User != nil {
		r.logger.Info("gateway ready", zap.String("user", e.User.Username), zap.Int("guilds", len(e.Guilds)))
	}
	r.OnReady(context.Background())
}

func (r *Router) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	r.connected.Store(false)
	r.logger.Warn("gateway disconnected")
}

// OnReady publishes the anchors and sets the initial status. It runs on
// every (re)connect; publication is idempotent.
func (r *Router) OnReady(ctx context.Context) {
	if err := r.anchors.PublishAll(ctx); err != nil {
		r.logger.Error("anchor publication incomplete", zap.Error(err))
	}
	r.presence.Refresh(ctx)
}

func (r *Router) onInteraction(s *discordgo.Session, e *discordgo.InteractionCreate) {
	in, ok := InteractionFrom(e.Interaction)
	if !ok {
		return
	}
	in.Responder = platform.NewInteractionResponder(s, e.Interaction)

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	r.OnInteraction(ctx, in)
}

// OnInteraction hands a parsed interaction to the lifecycle and logs the
// outcome. Rejections are expected traffic and logged at debug level.
func (r *Router) OnInteraction(ctx context.Context, in service.Interaction) {
	err := r.lifecycle.Handle(ctx, in)
	switch {
	case err == nil:
	case apperrors.IsRejection(err):
		r.logger.Debug("interaction rejected",
			zap.String("action", string(in.Kind)),
			zap.String("user_id", in.Actor.UserID),
			zap.String("code", apperrors.ToDomainError(err).Code))
	default:
		r.logger.Error("interaction failed",
			zap.String("action", string(in.Kind)),
			zap.String("guild_id", in.GuildID),
			zap.String("channel_id", in.ChannelID),
			zap.String("user_id", in.Actor.UserID),
			zap.Error(err))
	}
}

// InteractionFrom translates a button press into a lifecycle interaction.
// Anything else, and presses outside a guild, are ignored.
func InteractionFrom(i *discordgo.Interaction) (service.Interaction, bool) {
	if i == nil || i.Type != discordgo.InteractionMessageComponent || i.GuildID == "" {
		return service.Interaction{}, false
	}
	data, ok := i.Data.(discordgo.MessageComponentInteractionData)
	if !ok {
		return service.Interaction{}, false
	}
	kind, category, ok := domain.ParseCustomID(data.CustomID)
	if !ok {
		return service.Interaction{}, false
	}

	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return service.Interaction{}, false
	}

	return service.Interaction{
		Kind:      kind,
		Category:  category,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Actor:     domain.Actor{UserID: user.ID, Username: user.Username},
	}, true
}
