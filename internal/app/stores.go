package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/persistence"
	"github.com/spec-kit/ticketbot/internal/repository"
)

// Stores holds the storage backends selected by configuration.
type Stores struct {
	Anchors   repository.AnchorRepository
	Cooldowns repository.CooldownRepository
	Postgres  *persistence.Postgres
	Redis     *persistence.Redis
}

// OpenStores connects the backends named by cfg.Store. Redis is only
// dialled when a store uses it, Postgres only for the postgres anchor store.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	s := &Stores{}

	if cfg.Store.Anchor == config.StoreRedis || cfg.Store.Cooldown == config.StoreRedis {
		s.Redis = persistence.NewRedis(ctx, cfg.Redis, logger)
	}

	switch cfg.Store.Anchor {
	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.Postgres = pg
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				s.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		s.Anchors = repository.NewPostgresAnchorRepository(pg.PoolHandle())
	case config.StoreRedis:
		s.Anchors = repository.NewRedisAnchorRepository(s.Redis.Client, s.Redis.Prefix)
	default:
		s.Anchors = repository.NewFileAnchorRepository(cfg.Store.AnchorFile)
	}

	if cfg.Store.Cooldown == config.StoreRedis {
		s.Cooldowns = repository.NewRedisCooldownRepository(s.Redis.Client, s.Redis.Prefix)
	} else {
		s.Cooldowns = repository.NewMemoryCooldownRepository()
	}

	logger.Info("stores ready",
		zap.String("anchor_store", cfg.Store.Anchor),
		zap.String("cooldown_store", cfg.Store.Cooldown))
	return s, nil
}

// Close releases every open connection.
func (s *Stores) Close() {
	if s == nil {
		return
	}
	s.Postgres.Close()
	s.Redis.Close()
}
