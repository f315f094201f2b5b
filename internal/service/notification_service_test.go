package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/observability"
	"github.com/spec-kit/ticketbot/internal/platform"
	"github.com/spec-kit/ticketbot/internal/platform/platformtest"
)

func notificationFixture() (*platformtest.Fake, events.Dispatcher, *observability.Metrics) {
	fake := platformtest.NewFake()
	fake.AddGuild(platform.Guild{ID: "g1", Name: "Acme"})
	fake.AddChannel(platform.Channel{ID: "audit", GuildID: "g1", Name: "audit-log"})
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	metrics := observability.NewMetrics()
	NewNotificationService(dispatcher, fake, []config.GuildConfig{testGuild()}, metrics, zap.NewNop()).RegisterHandlers()
	return fake, dispatcher, metrics
}

func closedEvent() events.Event {
	return events.Event{
		ID:        "evt-1",
		Type:      events.EventTicketClosed,
		GuildID:   "g1",
		ChannelID: "chan-9",
		Actor:     events.Actor{UserID: "u-mod"},
		Payload:   events.TicketClosedPayload{ChannelName: "ticket-alice", OwnerID: "u-alice"},
	}
}

func TestTicketOpenedIsAudited(t *testing.T) {
	fake, dispatcher, metrics := notificationFixture()

	dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventTicketOpened,
		GuildID:   "g1",
		ChannelID: "chan-9",
		Payload:   events.TicketOpenedPayload{ChannelName: "ticket-alice", OwnerID: "u-alice", Category: domain.CategoryBugReport},
	})

	msgs := fake.MessagesIn("audit")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Message.Embed.Description, "Bug Report")
	assert.Equal(t, int64(1), metrics.Snapshot().Notifications["ticket_opened|ok"])
}

func TestTicketClosedNotifiesOwner(t *testing.T) {
	fake, dispatcher, _ := notificationFixture()

	dispatcher.Publish(context.Background(), closedEvent())

	dms := fake.DirectMessages("u-alice")
	require.Len(t, dms, 1)
	assert.Contains(t, dms[0].Embed.Description, "Acme")
	assert.Contains(t, dms[0].Embed.Description, "ticket-alice")
	assert.Len(t, fake.MessagesIn("audit"), 1)
}

func TestNotificationFailuresAreAbsorbed(t *testing.T) {
	fake, dispatcher, metrics := notificationFixture()
	fake.BlockedDM["u-alice"] = true
	fake.SetFailure("SendMessage", nil)

	dispatcher.Publish(context.Background(), closedEvent())

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Notifications["direct|failed"])
	assert.Equal(t, int64(1), snap.Notifications["ticket_closed|failed"])
}

func TestEmitWithoutAuditChannel(t *testing.T) {
	fake := platformtest.NewFake()
	guild := testGuild()
	guild.AuditChannelID = ""
	metrics := observability.NewMetrics()
	n := NewNotificationService(nil, fake, []config.GuildConfig{guild}, metrics, zap.NewNop())

	n.Emit(context.Background(), events.EventTicketOpened, "g1", platform.Message{Content: "x"})
	n.Emit(context.Background(), events.EventTicketOpened, "unknown", platform.Message{Content: "x"})

	assert.Empty(t, metrics.Snapshot().Notifications)
}
