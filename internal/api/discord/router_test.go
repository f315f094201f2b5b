package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/service"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

type recordingHandler struct {
	got []service.Interaction
	err error
}

func (h *recordingHandler) Handle(_ context.Context, in service.Interaction) error {
	h.got = append(h.got, in)
	return h.err
}

type stubAnchors struct {
	calls int
	err   error
}

func (s *stubAnchors) PublishAll(context.Context) error {
	s.calls++
	return s.err
}

type stubPresence struct{ calls int }

func (s *stubPresence) Refresh(context.Context) int {
	s.calls++
	return 0
}

func componentPress(customID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "g1",
		ChannelID: "c1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "alice"}},
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID},
	}
}

func TestInteractionFrom(t *testing.T) {
	in, ok := InteractionFrom(componentPress("bug_report"))
	require.True(t, ok)
	assert.Equal(t, domain.ActionOpen, in.Kind)
	assert.Equal(t, domain.CategoryBugReport, in.Category)
	assert.Equal(t, domain.Actor{UserID: "u1", Username: "alice"}, in.Actor)
	assert.Equal(t, "c1", in.ChannelID)

	in, ok = InteractionFrom(componentPress(domain.CustomIDConfirmClose))
	require.True(t, ok)
	assert.Equal(t, domain.ActionConfirmClose, in.Kind)
}

func TestInteractionFromIgnoresOtherTraffic(t *testing.T) {
	unknown := componentPress("poll_vote")

	dm := componentPress(domain.CustomIDClose)
	dm.GuildID = ""

	command := componentPress(domain.CustomIDClose)
	command.Type = discordgo.InteractionApplicationCommand
	command.Data = discordgo.ApplicationCommandInteractionData{Name: "ticket"}

	anonymous := componentPress(domain.CustomIDClose)
	anonymous.Member = nil

	for name, i := range map[string]*discordgo.Interaction{
		"unknown id": unknown, "direct message": dm, "command": command, "no user": anonymous, "nil": nil,
	} {
		_, ok := InteractionFrom(i)
		assert.False(t, ok, name)
	}
}

func TestInteractionFromUserFallback(t *testing.T) {
	i := componentPress(domain.CustomIDClose)
	i.Member = nil
	i.User = &discordgo.User{ID: "u2", Username: "bob"}

	in, ok := InteractionFrom(i)
	require.True(t, ok)
	assert.Equal(t, "u2", in.Actor.UserID)
}

func TestOnReadyPublishesAndRefreshes(t *testing.T) {
	anchors := &stubAnchors{err: errors.New("guild g0: missing channel")}
	presence := &stubPresence{}
	r := NewRouter(&recordingHandler{}, anchors, presence, zap.NewNop())

	r.OnReady(context.Background())

	assert.Equal(t, 1, anchors.calls)
	assert.Equal(t, 1, presence.calls, "status refresh must not depend on anchors")
}

func TestOnInteractionDelegates(t *testing.T) {
	h := &recordingHandler{err: apperrors.NewDialogResolved()}
	r := NewRouter(h, &stubAnchors{}, &stubPresence{}, zap.NewNop())

	in, ok := InteractionFrom(componentPress(domain.CustomIDCancelClose))
	require.True(t, ok)
	r.OnInteraction(context.Background(), in)

	require.Len(t, h.got, 1)
	assert.Equal(t, domain.ActionCancelClose, h.got[0].Kind)
}

func TestConnectedFollowsGateway(t *testing.T) {
	r := NewRouter(&recordingHandler{}, &stubAnchors{}, &stubPresence{}, zap.NewNop())
	assert.False(t, r.Connected())

	r.onReady(nil, &discordgo.Ready{})
	assert.True(t, r.Connected())

	r.onDisconnect(nil, &discordgo.Disconnect{})
	assert.False(t, r.Connected())
}
