package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticketbot/internal/domain"
)

func exerciseAnchorRepository(t *testing.T, repo AnchorRepository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Get(ctx, "g1")
	require.ErrorIs(t, err, ErrNotFound)

	rec := &domain.AnchorRecord{GuildID: "g1", ChannelID: "c1", MessageID: "m1"}
	require.NoError(t, repo.Save(ctx, rec))
	assert.False(t, rec.UpdatedAt.IsZero())

	got, err := repo.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ChannelID)
	assert.Equal(t, "m1", got.MessageID)

	require.NoError(t, repo.Save(ctx, &domain.AnchorRecord{GuildID: "g1", ChannelID: "c1", MessageID: "m2"}))
	require.NoError(t, repo.Save(ctx, &domain.AnchorRecord{GuildID: "g2", ChannelID: "c9", MessageID: "m9"}))

	got, err = repo.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "m2", got.MessageID)

	got, err = repo.Get(ctx, "g2")
	require.NoError(t, err)
	assert.Equal(t, "m9", got.MessageID)
}

func TestFileAnchorRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchor.json")
	exerciseAnchorRepository(t, NewFileAnchorRepository(path))
}

func TestFileAnchorRepositorySurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "anchor.json")

	first := NewFileAnchorRepository(path)
	require.NoError(t, first.Save(ctx, &domain.AnchorRecord{GuildID: "g1", ChannelID: "c1", MessageID: "m1"}))

	second := NewFileAnchorRepository(path)
	got, err := second.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.MessageID)
}

func TestFileAnchorRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchor.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileAnchorRepository(path).Get(context.Background(), "g1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileAnchorRepositoryEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchor.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := NewFileAnchorRepository(path).Get(context.Background(), "g1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisAnchorRepository(t *testing.T) {
	mr, client := newTestRedis(t)
	exerciseAnchorRepository(t, NewRedisAnchorRepository(client, "test"))
	assert.True(t, mr.Exists("test:anchors"))
}
