package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/clock"
	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/observability"
	"github.com/spec-kit/ticketbot/internal/platform"
	"github.com/spec-kit/ticketbot/internal/presentation"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

// Interaction is one inbound button press routed to the lifecycle.
type Interaction struct {
	Kind      domain.ActionKind
	Category  domain.Category
	GuildID   string
	ChannelID string
	Actor     domain.Actor
	Responder platform.Responder
}

// LifecycleService drives tickets through open, close confirmation and close.
type LifecycleService struct {
	platform       platform.Platform
	cooldowns      *CooldownService
	registry       *RegistryService
	dispatcher     events.Dispatcher
	guilds         map[string]config.GuildConfig
	clock          clock.Clock
	confirmTimeout time.Duration
	metrics        *observability.Metrics
	logger         *zap.Logger

	locks     *keyedMutex
	pendingMu sync.Mutex
	pending   map[string]pendingClose
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	Platform       platform.Platform
	Cooldowns      *CooldownService
	Registry       *RegistryService
	Dispatcher     events.Dispatcher
	Guilds         []config.GuildConfig
	Clock          clock.Clock
	ConfirmTimeout time.Duration
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// pendingClose is an unanswered close confirmation prompt of a channel.
type pendingClose struct {
	invokerID string
	expiresAt time.Time
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewRealClock()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		platform:       deps.Platform,
		cooldowns:      deps.Cooldowns,
		registry:       deps.Registry,
		dispatcher:     deps.Dispatcher,
		guilds:         guildIndex(deps.Guilds),
		clock:          clk,
		confirmTimeout: deps.ConfirmTimeout,
		metrics:        deps.Metrics,
		logger:         logger,
		locks:          newKeyedMutex(),
		pending:        make(map[string]pendingClose),
	}
}

type transitionKey struct {
	from   domain.TicketState
	action domain.ActionKind
}

var transitions = map[transitionKey]domain.TicketState{
	{domain.TicketStateNone, domain.ActionOpen}:                 domain.TicketStateOpen,
	{domain.TicketStateOpen, domain.ActionRequestClose}:         domain.TicketStateClosePending,
	{domain.TicketStateClosePending, domain.ActionRequestClose}: domain.TicketStateClosePending,
	{domain.TicketStateClosePending, domain.ActionConfirmClose}: domain.TicketStateNone,
	{domain.TicketStateClosePending, domain.ActionCancelClose}:  domain.TicketStateOpen,
}

func nextState(from domain.TicketState, action domain.ActionKind) (domain.TicketState, bool) {
	next, ok := transitions[transitionKey{from: from, action: action}]
	return next, ok
}

// Handle runs one interaction to completion. Open actions are serialised per
// (guild, user) and close actions per channel, so a double click cannot slip
// between the precondition checks and the commit. Rejections are answered
// to the invoker and returned as domain errors.
func (s *LifecycleService) Handle(ctx context.Context, in Interaction) error {
	unlock := s.locks.Lock(lockKey(in))
	defer unlock()

	responder := &trackingResponder{next: in.Responder}
	in.Responder = responder

	err := s.dispatch(ctx, in)

	outcome := "ok"
	if err != nil {
		outcome = apperrors.ToDomainError(err).Code
		if !responder.replied {
			s.reply(ctx, in, replyForError(err))
		}
	}
	s.metrics.RecordTransition(string(in.Kind), outcome)
	return err
}

func lockKey(in Interaction) string {
	if in.Kind == domain.ActionOpen {
		return "open:" + in.GuildID + ":" + in.Actor.UserID
	}
	return "channel:" + in.ChannelID
}

func (s *LifecycleService) dispatch(ctx context.Context, in Interaction) error {
	guild, ok := s.guilds[in.GuildID]
	if !ok {
		return apperrors.NewNotFound("guild configuration", map[string]any{"guild_id": in.GuildID})
	}

	if in.Kind == domain.ActionOpen {
		decision := s.cooldowns.Check(ctx, in.Actor.UserID, s.clock.Now())
		if !decision.Allowed {
			return apperrors.NewCooldownActive(decision.RetryAt)
		}
	}

	state, ticket, err := s.currentState(ctx, in)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	if _, ok := nextState(state, in.Kind); !ok {
		return rejection(state, in, ticket)
	}

	switch in.Kind {
	case domain.ActionOpen:
		return s.open(ctx, in, guild)
	case domain.ActionRequestClose:
		return s.requestClose(ctx, in, guild)
	case domain.ActionConfirmClose:
		return s.confirmClose(ctx, in, ticket)
	case domain.ActionCancelClose:
		return s.cancelClose(ctx, in)
	}
	return apperrors.NewValidationError("unknown action", map[string]any{"action": in.Kind})
}

// currentState resolves the lifecycle state the interaction applies to.
// Open actions look at the requester's ticket; close actions at the
// ticket of the channel the button was pressed in.
func (s *LifecycleService) currentState(ctx context.Context, in Interaction) (domain.TicketState, *domain.Ticket, error) {
	if in.Kind == domain.ActionOpen {
		ticket, err := s.registry.FindOpenTicket(ctx, in.GuildID, in.Actor)
		if err != nil {
			return "", nil, err
		}
		if ticket == nil {
			return domain.TicketStateNone, nil, nil
		}
		return domain.TicketStateOpen, ticket, nil
	}

	ticket, err := s.registry.FindByChannel(ctx, in.GuildID, in.ChannelID)
	if err != nil {
		return "", nil, err
	}
	if ticket == nil {
		s.dropPending(in.ChannelID)
		return domain.TicketStateNone, nil, nil
	}
	if _, ok := s.activePending(in.ChannelID); ok {
		return domain.TicketStateClosePending, ticket, nil
	}
	return domain.TicketStateOpen, ticket, nil
}

func rejection(state domain.TicketState, in Interaction, ticket *domain.Ticket) error {
	switch {
	case in.Kind == domain.ActionOpen && ticket != nil:
		return apperrors.NewTicketExists(ticket.ChannelID)
	case state == domain.TicketStateNone && in.Kind == domain.ActionRequestClose:
		return apperrors.NewNotATicket(in.ChannelID)
	default:
		return apperrors.NewDialogResolved()
	}
}

func (s *LifecycleService) open(ctx context.Context, in Interaction, guild config.GuildConfig) error {
	ch, err := s.platform.CreateChannel(ctx, in.GuildID, platform.ChannelSpec{
		Name:       domain.TicketChannelName(in.Actor.Username),
		Topic:      domain.OwnerTopic(in.Actor.UserID),
		ParentID:   guild.ParentCategoryID,
		Overwrites: ticketOverwrites(guild, in.Actor.UserID),
	})
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	info := s.guildInfo(ctx, in.GuildID)
	intro := presentation.TicketIntro(info, guild.ResponderRoleID, in.Actor.Username, in.Category)
	if _, err := s.platform.SendMessage(ctx, ch.ID, intro); err != nil {
		s.logger.Warn("ticket intro not delivered", zap.String("channel_id", ch.ID), zap.Error(err))
	}

	s.reply(ctx, in, presentation.CreatedReply(ch.ID))
	expiresAt := s.cooldowns.Commit(ctx, in.Actor.UserID, s.clock.Now())

	s.logger.Info("ticket opened",
		zap.String("guild_id", in.GuildID),
		zap.String("channel_id", ch.ID),
		zap.String("owner_id", in.Actor.UserID),
		zap.String("category", string(in.Category)),
		zap.Time("cooldown_until", expiresAt))

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketOpened,
		GuildID:   in.GuildID,
		ChannelID: ch.ID,
		Actor:     actorOf(in),
		Payload: events.TicketOpenedPayload{
			ChannelName: ch.Name,
			OwnerID:     in.Actor.UserID,
			Category:    in.Category,
		},
	})
	return nil
}

// ticketOverwrites grants the requester and the designated roles access and
// hides the channel from everyone else. The @everyone role shares the
// guild's id.
func ticketOverwrites(guild config.GuildConfig, ownerID string) []platform.Overwrite {
	member := platform.PermViewChannel | platform.PermSendMessages | platform.PermReadMessageHistory | platform.PermAttachFiles
	staff := platform.PermViewChannel | platform.PermSendMessages | platform.PermReadMessageHistory

	overwrites := []platform.Overwrite{
		{ID: guild.GuildID, Kind: platform.OverwriteRole, Deny: platform.PermViewChannel},
		{ID: ownerID, Kind: platform.OverwriteMember, Allow: member},
	}
	seen := map[string]bool{guild.GuildID: true}
	roles := append([]string{guild.ResponderRoleID, guild.RequiredRoleID}, guild.WhitelistRoleIDs...)
	for _, role := range roles {
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true
		overwrites = append(overwrites, platform.Overwrite{ID: role, Kind: platform.OverwriteRole, Allow: staff})
	}
	return overwrites
}

func (s *LifecycleService) requestClose(ctx context.Context, in Interaction, guild config.GuildConfig) error {
	member, err := s.platform.Member(ctx, in.GuildID, in.Actor.UserID, in.ChannelID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !canClose(guild, member) {
		return apperrors.NewForbidden("missing close capability")
	}

	now := s.clock.Now()
	s.pendingMu.Lock()
	s.sweepPending(now)
	s.pending[in.ChannelID] = pendingClose{
		invokerID: in.Actor.UserID,
		expiresAt: now.Add(s.confirmTimeout),
	}
	s.pendingMu.Unlock()

	s.reply(ctx, in, presentation.ClosePrompt())
	return nil
}

// canClose checks the designated capability: the configured role when one
// is set, the channel management permission otherwise.
func canClose(guild config.GuildConfig, member platform.Member) bool {
	if guild.RequiredRoleID != "" {
		return member.HasRole(guild.RequiredRoleID)
	}
	return member.CanManageChannels
}

func (s *LifecycleService) confirmClose(ctx context.Context, in Interaction, ticket *domain.Ticket) error {
	if err := s.resolvePending(in); err != nil {
		return err
	}

	// The reply has to go out first: it is addressed to the channel about
	// to disappear.
	s.reply(ctx, in, presentation.ClosingReply())

	if err := s.platform.DeleteChannel(ctx, ticket.ChannelID); err != nil {
		s.logger.Error("ticket channel not deleted; manual cleanup required",
			zap.String("guild_id", in.GuildID),
			zap.String("channel_id", ticket.ChannelID),
			zap.Error(err))
		return apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketClosed,
		GuildID:   in.GuildID,
		ChannelID: ticket.ChannelID,
		Actor:     actorOf(in),
		Payload: events.TicketClosedPayload{
			ChannelName: ticket.Name,
			OwnerID:     ticket.OwnerID,
		},
	})

	s.logger.Info("ticket closed",
		zap.String("guild_id", in.GuildID),
		zap.String("channel_id", ticket.ChannelID),
		zap.String("closed_by", in.Actor.UserID))
	return nil
}

func (s *LifecycleService) cancelClose(ctx context.Context, in Interaction) error {
	if err := s.resolvePending(in); err != nil {
		return err
	}
	s.reply(ctx, in, presentation.CancelledReply())
	return nil
}

// resolvePending consumes the channel's prompt. Only the user who opened the
// prompt may answer it.
func (s *LifecycleService) resolvePending(in Interaction) error {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	p, ok := s.pending[in.ChannelID]
	if !ok {
		return apperrors.NewDialogResolved()
	}
	if p.invokerID != in.Actor.UserID {
		return apperrors.NewForbidden("confirmation belongs to another user")
	}
	delete(s.pending, in.ChannelID)
	return nil
}

func (s *LifecycleService) activePending(channelID string) (pendingClose, bool) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	p, ok := s.pending[channelID]
	if !ok {
		return pendingClose{}, false
	}
	if s.confirmTimeout > 0 && !s.clock.Now().Before(p.expiresAt) {
		delete(s.pending, channelID)
		return pendingClose{}, false
	}
	return p, true
}

// sweepPending drops every expired prompt. Callers hold pendingMu.
func (s *LifecycleService) sweepPending(now time.Time) {
	if s.confirmTimeout <= 0 {
		return
	}
	for channelID, p := range s.pending {
		if !now.Before(p.expiresAt) {
			delete(s.pending, channelID)
		}
	}
}

func (s *LifecycleService) dropPending(channelID string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	delete(s.pending, channelID)
}

func (s *LifecycleService) reply(ctx context.Context, in Interaction, reply platform.Reply) {
	if in.Responder == nil {
		return
	}
	if err := in.Responder.Reply(ctx, reply); err != nil {
		s.logger.Warn("interaction reply failed",
			zap.String("action", string(in.Kind)),
			zap.String("user_id", in.Actor.UserID),
			zap.Error(err))
	}
}

func replyForError(err error) platform.Reply {
	de := apperrors.ToDomainError(err)
	switch de.Code {
	case apperrors.CodeCooldownActive:
		if retryAt, ok := de.Details["retry_at"].(time.Time); ok {
			return presentation.CooldownReply(retryAt)
		}
	case apperrors.CodeTicketExists:
		if channelID, ok := de.Details["channel_id"].(string); ok {
			return presentation.ExistingTicketReply(channelID)
		}
	case apperrors.CodeForbidden:
		return presentation.NotPermittedReply()
	case apperrors.CodeNotATicket:
		return presentation.NotATicketReply()
	case apperrors.CodeDialogResolved:
		return presentation.DialogResolvedReply()
	}
	return presentation.FailureReply()
}

func (s *LifecycleService) guildInfo(ctx context.Context, guildID string) platform.Guild {
	g, err := s.platform.Guild(ctx, guildID)
	if err != nil {
		return platform.Guild{ID: guildID}
	}
	return g
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	s.dispatcher.Publish(ctx, event)
}

func actorOf(in Interaction) events.Actor {
	return events.Actor{UserID: in.Actor.UserID, Username: in.Actor.Username}
}

// trackingResponder remembers whether the interaction was answered, since
// an interaction accepts a single reply.
type trackingResponder struct {
	next    platform.Responder
	replied bool
}

func (r *trackingResponder) Reply(ctx context.Context, reply platform.Reply) error {
	if r.next == nil {
		return nil
	}
	err := r.next.Reply(ctx, reply)
	if err == nil {
		r.replied = true
	}
	return err
}
