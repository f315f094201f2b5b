package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/platform"
	"github.com/spec-kit/ticketbot/internal/presentation"
)

// PresenceService keeps the bot status showing the open ticket count.
type PresenceService struct {
	platform platform.Platform
	registry *RegistryService
	guildIDs []string
	logger   *zap.Logger

	mu   sync.Mutex
	last int
}

// NewPresenceService constructs the service.
func NewPresenceService(p platform.Platform, registry *RegistryService, guilds []config.GuildConfig, logger *zap.Logger) *PresenceService {
	ids := make([]string, 0, len(guilds))
	for _, g := range guilds {
		ids = append(ids, g.GuildID)
	}
	return &PresenceService{platform: p, registry: registry, guildIDs: ids, logger: logger, last: -1}
}

// RegisterHandlers refreshes the status after every open and close.
func (s *PresenceService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	refresh := func(ctx context.Context, _ events.Event) error {
		s.Refresh(ctx)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketOpened, refresh)
	dispatcher.Subscribe(events.EventTicketClosed, refresh)
}

// Refresh recounts open tickets and updates the status text. Guilds that
// cannot be listed are left out of the count.
func (s *PresenceService) Refresh(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.registry.CountAll(ctx, s.guildIDs)
	if err != nil {
		s.logger.Warn("open ticket count incomplete", zap.Error(err))
	}
	if err := s.platform.SetStatus(ctx, presentation.StatusText(count)); err != nil {
		s.logger.Warn("status update failed", zap.Error(err))
		return count
	}
	s.last = count
	return count
}

// Last returns the most recently published count, or -1 before the first.
func (s *PresenceService) Last() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
