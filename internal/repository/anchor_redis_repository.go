package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticketbot/internal/domain"
)

type redisAnchorRepository struct {
	client *redis.Client
	key    string
}

// NewRedisAnchorRepository keeps anchors in one hash keyed by guild id.
func NewRedisAnchorRepository(client *redis.Client, prefix string) AnchorRepository {
	return &redisAnchorRepository{client: client, key: prefix + ":anchors"}
}

func (r *redisAnchorRepository) Get(ctx context.Context, guildID string) (*domain.AnchorRecord, error) {
	raw, err := r.client.HGet(ctx, r.key, guildID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec anchorRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode anchor %s: %w", guildID, err)
	}
	return &domain.AnchorRecord{
		GuildID:   guildID,
		ChannelID: rec.ChannelID,
		MessageID: rec.MessageID,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (r *redisAnchorRepository) Save(ctx context.Context, record *domain.AnchorRecord) error {
	record.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(anchorRecord{
		ChannelID: record.ChannelID,
		MessageID: record.MessageID,
		UpdatedAt: record.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key, record.GuildID, raw).Err()
}
