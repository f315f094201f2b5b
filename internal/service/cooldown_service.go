package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/repository"
)

// DefaultCooldown is the minimum interval between two tickets of one user.
const DefaultCooldown = 2 * time.Hour

// CooldownDecision is the outcome of a cooldown check.
type CooldownDecision struct {
	Allowed bool
	RetryAt time.Time
}

// CooldownService enforces the per-user interval between ticket openings.
type CooldownService struct {
	repo     repository.CooldownRepository
	duration time.Duration
	logger   *zap.Logger
}

// NewCooldownService constructs the service.
func NewCooldownService(repo repository.CooldownRepository, duration time.Duration, logger *zap.Logger) *CooldownService {
	return &CooldownService{repo: repo, duration: duration, logger: logger}
}

// Duration returns the configured cooldown.
func (s *CooldownService) Duration() time.Duration {
	return s.duration
}

// Check reports whether userID may open a ticket at now. It never mutates
// state. A missing entry counts as expired, and so does a store failure.
func (s *CooldownService) Check(ctx context.Context, userID string, now time.Time) CooldownDecision {
	entry, err := s.repo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("cooldown lookup failed; allowing", zap.String("user_id", userID), zap.Error(err))
		}
		return CooldownDecision{Allowed: true}
	}
	if now.Before(entry.ExpiresAt) {
		return CooldownDecision{Allowed: false, RetryAt: entry.ExpiresAt}
	}
	return CooldownDecision{Allowed: true}
}

// Commit starts a new cooldown for userID and returns its expiry.
func (s *CooldownService) Commit(ctx context.Context, userID string, now time.Time) time.Time {
	expiresAt := now.Add(s.duration)
	entry := domain.CooldownEntry{UserID: userID, ExpiresAt: expiresAt}
	if err := s.repo.Put(ctx, entry, s.duration); err != nil {
		s.logger.Error("cooldown commit failed", zap.String("user_id", userID), zap.Error(err))
	}
	return expiresAt
}
