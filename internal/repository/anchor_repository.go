package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticketbot/internal/domain"
)

// AnchorRepository persists the anchor message reference of each guild.
type AnchorRepository interface {
	Get(ctx context.Context, guildID string) (*domain.AnchorRecord, error)
	Save(ctx context.Context, record *domain.AnchorRecord) error
}

type postgresAnchorRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAnchorRepository returns a Postgres-backed implementation.
func NewPostgresAnchorRepository(pool *pgxpool.Pool) AnchorRepository {
	return &postgresAnchorRepository{pool: pool}
}

func (r *postgresAnchorRepository) Get(ctx context.Context, guildID string) (*domain.AnchorRecord, error) {
	const query = `
        SELECT guild_id, channel_id, message_id, updated_at
        FROM anchor_messages WHERE guild_id=$1`
	var record domain.AnchorRecord
	err := r.pool.QueryRow(ctx, query, guildID).Scan(
		&record.GuildID,
		&record.ChannelID,
		&record.MessageID,
		&record.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *postgresAnchorRepository) Save(ctx context.Context, record *domain.AnchorRecord) error {
	const query = `
        INSERT INTO anchor_messages (guild_id, channel_id, message_id, updated_at)
        VALUES ($1,$2,$3,NOW())
        ON CONFLICT (guild_id) DO UPDATE
            SET channel_id=EXCLUDED.channel_id, message_id=EXCLUDED.message_id, updated_at=NOW()
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		record.GuildID,
		record.ChannelID,
		record.MessageID,
	).Scan(&record.UpdatedAt)
}
