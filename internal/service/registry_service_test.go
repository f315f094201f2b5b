package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/platform"
	"github.com/spec-kit/ticketbot/internal/platform/platformtest"
)

func registryFixture() *platformtest.Fake {
	fake := platformtest.NewFake()
	fake.AddChannel(platform.Channel{ID: "c1", GuildID: "g1", Name: "general"})
	fake.AddChannel(platform.Channel{ID: "c2", GuildID: "g1", Name: "ticket-alice", Topic: domain.OwnerTopic("u-alice")})
	fake.AddChannel(platform.Channel{ID: "c3", GuildID: "g1", Name: "ticket-renamed", Topic: domain.OwnerTopic("u-bob")})
	fake.AddChannel(platform.Channel{ID: "c4", GuildID: "g2", Name: "ticket-carol"})
	fake.AddChannel(platform.Channel{ID: "c5", GuildID: "g1", Name: "ticket-"})
	fake.AddChannel(platform.Channel{ID: "c6", GuildID: "g1", Name: "ticket-erin"})
	return fake
}

func TestRegistryFindOpenTicket(t *testing.T) {
	ctx := context.Background()
	r := NewRegistryService(registryFixture())

	tests := []struct {
		name    string
		guildID string
		actor   domain.Actor
		want    string
	}{
		{name: "by owner topic and name", guildID: "g1", actor: domain.Actor{UserID: "u-alice", Username: "Alice"}, want: "c2"},
		{name: "by derived name without owner", guildID: "g1", actor: domain.Actor{UserID: "u-erin", Username: "Erin"}, want: "c6"},
		{name: "name owned by someone else", guildID: "g1", actor: domain.Actor{UserID: "u-x", Username: "Alice"}},
		{name: "by owner topic", guildID: "g1", actor: domain.Actor{UserID: "u-bob", Username: "bob"}, want: "c3"},
		{name: "other guild", guildID: "g2", actor: domain.Actor{UserID: "u-alice", Username: "alice"}},
		{name: "none", guildID: "g1", actor: domain.Actor{UserID: "u-dave", Username: "dave"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, err := r.FindOpenTicket(ctx, tt.guildID, tt.actor)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, ticket)
				return
			}
			require.NotNil(t, ticket)
			assert.Equal(t, tt.want, ticket.ChannelID)
		})
	}
}

func TestRegistryFindOpenTicketSharedName(t *testing.T) {
	ctx := context.Background()
	fake := platformtest.NewFake()
	dotted := domain.Actor{UserID: "u-dot", Username: "bob.smith"}
	dashed := domain.Actor{UserID: "u-dash", Username: "bob-smith"}
	require.Equal(t, domain.TicketChannelName(dotted.Username), domain.TicketChannelName(dashed.Username))

	fake.AddChannel(platform.Channel{ID: "dot", GuildID: "g1", Name: "ticket-bob-smith", Topic: domain.OwnerTopic(dotted.UserID)})
	r := NewRegistryService(fake)

	ticket, err := r.FindOpenTicket(ctx, "g1", dashed)
	require.NoError(t, err)
	assert.Nil(t, ticket)

	fake.AddChannel(platform.Channel{ID: "dash", GuildID: "g1", Name: "ticket-bob-smith", Topic: domain.OwnerTopic(dashed.UserID)})
	for _, tc := range []struct {
		actor domain.Actor
		want  string
	}{{dotted, "dot"}, {dashed, "dash"}} {
		ticket, err := r.FindOpenTicket(ctx, "g1", tc.actor)
		require.NoError(t, err)
		require.NotNil(t, ticket)
		assert.Equal(t, tc.want, ticket.ChannelID)
		assert.Equal(t, tc.actor.UserID, ticket.OwnerID)
	}
}

func TestRegistryFindByChannel(t *testing.T) {
	ctx := context.Background()
	r := NewRegistryService(registryFixture())

	ticket, err := r.FindByChannel(ctx, "g1", "c2")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, "u-alice", ticket.OwnerID)
	assert.Equal(t, "ticket-alice", ticket.Name)

	ticket, err = r.FindByChannel(ctx, "g1", "c1")
	require.NoError(t, err)
	assert.Nil(t, ticket)

	ticket, err = r.FindByChannel(ctx, "g1", "gone")
	require.NoError(t, err)
	assert.Nil(t, ticket)

	ticket, err = r.FindByChannel(ctx, "g1", "c4")
	require.NoError(t, err)
	assert.Nil(t, ticket, "ticket of another guild")

	ticket, err = r.FindByChannel(ctx, "g2", "c4")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, "g2", ticket.GuildID)
}

func TestRegistryFindByChannelFailure(t *testing.T) {
	fake := registryFixture()
	fake.SetFailure("Channel", nil)

	_, err := NewRegistryService(fake).FindByChannel(context.Background(), "g1", "c2")
	assert.ErrorIs(t, err, platformtest.ErrInjected)
}

func TestRegistryCount(t *testing.T) {
	ctx := context.Background()
	fake := registryFixture()
	r := NewRegistryService(fake)

	n, err := r.Count(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	total, err := r.CountAll(ctx, []string{"g1", "g2"})
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	fake.SetFailure("GuildChannels", nil)
	total, err = r.CountAll(ctx, []string{"g1", "g2"})
	assert.ErrorIs(t, err, platformtest.ErrInjected)
	assert.Zero(t, total)
}
