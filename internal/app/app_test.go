package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/clock"
	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/platform"
	"github.com/spec-kit/ticketbot/internal/platform/platformtest"
	"github.com/spec-kit/ticketbot/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App:     config.AppConfig{Name: "ticketbot", Version: "test"},
		Tickets: config.TicketsConfig{CooldownSeconds: 7200, CloseConfirmTimeoutSeconds: 120},
		Store: config.StoreConfig{
			Anchor:     config.StoreFile,
			AnchorFile: filepath.Join(t.TempDir(), "anchor.json"),
			Cooldown:   config.StoreMemory,
		},
		Admin: config.AdminConfig{JWTSecret: "secret", TokenTTLMinutes: 5},
		Guilds: []config.GuildConfig{{
			GuildID:         "g1",
			AnchorChannelID: "anchor",
			AuditChannelID:  "audit",
			RequiredRoleID:  "closer",
		}},
	}
}

func TestOpenStoresDefaults(t *testing.T) {
	stores, err := OpenStores(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer stores.Close()

	assert.NotNil(t, stores.Anchors)
	assert.NotNil(t, stores.Cooldowns)
	assert.Nil(t, stores.Redis)
	assert.Nil(t, stores.Postgres)
}

func TestOpenStoresRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Store.Anchor = config.StoreRedis
	cfg.Store.Cooldown = config.StoreRedis
	cfg.Redis = config.RedisConfig{Addr: mr.Addr(), Prefix: "tb"}

	stores, err := OpenStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer stores.Close()

	require.True(t, stores.Redis.Enabled())
	require.NoError(t, stores.Anchors.Save(context.Background(), &domain.AnchorRecord{GuildID: "g1", ChannelID: "c", MessageID: "m"}))
	assert.True(t, mr.Exists("tb:anchors"))
}

func TestAppEndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	stores, err := OpenStores(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	fake := platformtest.NewFake()
	fake.AddGuild(platform.Guild{ID: "g1", Name: "Acme"})
	fake.AddChannel(platform.Channel{ID: "anchor", GuildID: "g1", Name: "support"})
	fake.AddChannel(platform.Channel{ID: "audit", GuildID: "g1", Name: "audit-log"})

	a := New(cfg, fake, stores, clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), zap.NewNop())
	require.NoError(t, a.Anchors.PublishAll(ctx))

	rec := &platformtest.Recorder{}
	err = a.Lifecycle.Handle(ctx, service.Interaction{
		Kind:      domain.ActionOpen,
		Category:  domain.CategoryGeneralSupport,
		GuildID:   "g1",
		ChannelID: "anchor",
		Actor:     domain.Actor{UserID: "u1", Username: "alice"},
		Responder: rec,
	})
	require.NoError(t, err)
	a.Dispatcher.Wait()

	assert.Len(t, fake.MessagesIn("audit"), 1)
	assert.Equal(t, 1, a.Presence.Last())

	resp, err := a.HTTP(func() bool { return true }).Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
