package repository

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticketbot/internal/domain"
)

// CooldownRepository stores at most one cooldown entry per user.
type CooldownRepository interface {
	Get(ctx context.Context, userID string) (*domain.CooldownEntry, error)
	Put(ctx context.Context, entry domain.CooldownEntry, ttl time.Duration) error
}

type memoryCooldownRepository struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemoryCooldownRepository keeps entries in process memory. Stale entries
// are never removed; comparison against the current time expires them.
func NewMemoryCooldownRepository() CooldownRepository {
	return &memoryCooldownRepository{entries: make(map[string]time.Time)}
}

func (r *memoryCooldownRepository) Get(_ context.Context, userID string) (*domain.CooldownEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	expiresAt, ok := r.entries[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &domain.CooldownEntry{UserID: userID, ExpiresAt: expiresAt}, nil
}

func (r *memoryCooldownRepository) Put(_ context.Context, entry domain.CooldownEntry, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.UserID] = entry.ExpiresAt
	return nil
}

type redisCooldownRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisCooldownRepository stores entries as keys that expire with the cooldown.
func NewRedisCooldownRepository(client *redis.Client, prefix string) CooldownRepository {
	return &redisCooldownRepository{client: client, prefix: prefix + ":cooldown:"}
}

func (r *redisCooldownRepository) Get(ctx context.Context, userID string) (*domain.CooldownEntry, error) {
	raw, err := r.client.Get(ctx, r.prefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &domain.CooldownEntry{UserID: userID, ExpiresAt: time.UnixMilli(ms)}, nil
}

func (r *redisCooldownRepository) Put(ctx context.Context, entry domain.CooldownEntry, ttl time.Duration) error {
	if ttl <= 0 {
		return r.client.Del(ctx, r.prefix+entry.UserID).Err()
	}
	value := strconv.FormatInt(entry.ExpiresAt.UnixMilli(), 10)
	return r.client.Set(ctx, r.prefix+entry.UserID, value, ttl).Err()
}
