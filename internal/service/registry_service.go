package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/platform"
)

// RegistryService derives open tickets from the live channel set. It keeps
// no local copy: channels can be created or removed by hand at any time.
type RegistryService struct {
	platform platform.Platform
}

// NewRegistryService constructs the service.
func NewRegistryService(p platform.Platform) *RegistryService {
	return &RegistryService{platform: p}
}

// FindOpenTicket returns the open ticket of actor in guildID, or nil.
// A channel recording the actor as owner in its topic wins. A channel
// carrying the actor's derived ticket name matches only when its topic
// names no owner, so a name shared with another user is not a match.
func (s *RegistryService) FindOpenTicket(ctx context.Context, guildID string, actor domain.Actor) (*domain.Ticket, error) {
	channels, err := s.platform.GuildChannels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	name := domain.TicketChannelName(actor.Username)
	var byName *platform.Channel
	for i, c := range channels {
		if !domain.IsTicketChannelName(c.Name) {
			continue
		}
		owner, ok := domain.OwnerFromTopic(c.Topic)
		if ok && owner == actor.UserID {
			return ticketFromChannel(guildID, c), nil
		}
		if !ok && c.Name == name && byName == nil {
			byName = &channels[i]
		}
	}
	if byName != nil {
		return ticketFromChannel(guildID, *byName), nil
	}
	return nil, nil
}

// FindByChannel returns the ticket held by channelID, or nil when the
// channel is gone, is not a ticket or belongs to another guild.
func (s *RegistryService) FindByChannel(ctx context.Context, guildID, channelID string) (*domain.Ticket, error) {
	c, err := s.platform.Channel(ctx, channelID)
	if errors.Is(err, platform.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch channel: %w", err)
	}
	if !domain.IsTicketChannelName(c.Name) {
		return nil, nil
	}
	if c.GuildID != "" && c.GuildID != guildID {
		return nil, nil
	}
	return ticketFromChannel(guildID, c), nil
}

// Count returns the number of open tickets in guildID.
func (s *RegistryService) Count(ctx context.Context, guildID string) (int, error) {
	channels, err := s.platform.GuildChannels(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("list channels: %w", err)
	}
	n := 0
	for _, c := range channels {
		if domain.IsTicketChannelName(c.Name) {
			n++
		}
	}
	return n, nil
}

// CountAll sums Count over guildIDs. Guilds that cannot be listed are
// skipped and reported through the joined error.
func (s *RegistryService) CountAll(ctx context.Context, guildIDs []string) (int, error) {
	total := 0
	var errs []error
	for _, id := range guildIDs {
		n, err := s.Count(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("guild %s: %w", id, err))
			continue
		}
		total += n
	}
	return total, errors.Join(errs...)
}

func ticketFromChannel(guildID string, c platform.Channel) *domain.Ticket {
	owner, _ := domain.OwnerFromTopic(c.Topic)
	return &domain.Ticket{
		GuildID:   guildID,
		ChannelID: c.ID,
		Name:      c.Name,
		OwnerID:   owner,
		CreatedAt: c.CreatedAt,
	}
}
