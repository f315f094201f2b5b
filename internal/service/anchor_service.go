package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/platform"
	"github.com/spec-kit/ticketbot/internal/presentation"
	"github.com/spec-kit/ticketbot/internal/repository"
)

// AnchorService keeps exactly one up-to-date anchor message per guild.
type AnchorService struct {
	platform platform.Platform
	anchors  repository.AnchorRepository
	guilds   []config.GuildConfig
	logger   *zap.Logger

	mu sync.Mutex
}

// NewAnchorService constructs the service.
func NewAnchorService(p platform.Platform, anchors repository.AnchorRepository, guilds []config.GuildConfig, logger *zap.Logger) *AnchorService {
	return &AnchorService{platform: p, anchors: anchors, guilds: guilds, logger: logger}
}

// EnsurePublished edits the recorded anchor message in place, or sends and
// records a new one when none is recorded or the recorded one is gone.
// Repeated calls converge on a single live message.
func (s *AnchorService) EnsurePublished(ctx context.Context, guild config.GuildConfig) (*domain.AnchorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dest := guild.AnchorChannelID
	if _, err := s.platform.Channel(ctx, dest); err != nil {
		return nil, fmt.Errorf("access anchor channel %s: %w", dest, err)
	}

	content := presentation.Anchor(s.guildInfo(ctx, guild.GuildID))

	record, err := s.anchors.Get(ctx, guild.GuildID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		record = nil
	case err != nil:
		return nil, fmt.Errorf("load anchor: %w", err)
	}

	if record != nil && record.ChannelID == dest {
		edited, err := s.editExisting(ctx, record, content)
		if err != nil {
			return nil, err
		}
		if edited {
			return record, nil
		}
		s.logger.Info("recorded anchor message missing; republishing",
			zap.String("guild_id", guild.GuildID),
			zap.String("message_id", record.MessageID))
	}

	sent, err := s.platform.SendMessage(ctx, dest, content)
	if err != nil {
		return nil, fmt.Errorf("send anchor: %w", err)
	}
	record = &domain.AnchorRecord{GuildID: guild.GuildID, ChannelID: dest, MessageID: sent.ID}
	if err := s.anchors.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save anchor %s: %w", sent.ID, err)
	}
	s.logger.Info("anchor published",
		zap.String("guild_id", guild.GuildID),
		zap.String("channel_id", dest),
		zap.String("message_id", sent.ID))
	return record, nil
}

// editExisting returns false when the recorded message no longer exists.
// A fetch error other than not-found is retried once before giving up.
func (s *AnchorService) editExisting(ctx context.Context, record *domain.AnchorRecord, content platform.Message) (bool, error) {
	_, err := s.platform.FetchMessage(ctx, record.ChannelID, record.MessageID)
	if err != nil && !errors.Is(err, platform.ErrNotFound) {
		s.logger.Warn("anchor fetch failed; retrying",
			zap.String("message_id", record.MessageID),
			zap.Error(err))
		_, err = s.platform.FetchMessage(ctx, record.ChannelID, record.MessageID)
	}
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("fetch anchor %s: %w", record.MessageID, err)
	}
	if err := s.platform.EditMessage(ctx, record.ChannelID, record.MessageID, content); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("edit anchor %s: %w", record.MessageID, err)
	}
	return true, nil
}

// PublishAll runs EnsurePublished for every configured guild. A failing
// guild is logged and does not stop the others.
func (s *AnchorService) PublishAll(ctx context.Context) error {
	var errs []error
	for _, g := range s.guilds {
		if _, err := s.EnsurePublished(ctx, g); err != nil {
			s.logger.Error("anchor publication failed", zap.String("guild_id", g.GuildID), zap.Error(err))
			errs = append(errs, fmt.Errorf("guild %s: %w", g.GuildID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *AnchorService) guildInfo(ctx context.Context, guildID string) platform.Guild {
	g, err := s.platform.Guild(ctx, guildID)
	if err != nil {
		s.logger.Debug("guild lookup failed", zap.String("guild_id", guildID), zap.Error(err))
		return platform.Guild{ID: guildID}
	}
	return g
}
