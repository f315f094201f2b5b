package presentation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/platform"
)

func TestAnchorOffersEveryCategory(t *testing.T) {
	msg := Anchor(platform.Guild{Name: "Acme"})
	require.NotNil(t, msg.Embed)
	assert.Equal(t, "Acme", msg.Embed.Footer)
	require.Len(t, msg.Buttons, len(domain.AnchorCategories))
	for i, c := range domain.AnchorCategories {
		assert.Equal(t, string(c), msg.Buttons[i].CustomID)
	}
}

func TestTicketIntroMentionsResponders(t *testing.T) {
	msg := TicketIntro(platform.Guild{Name: "Acme"}, "staff", "alice", domain.CategoryBugReport)
	assert.Equal(t, "<@&staff> New Ticket Created!", msg.Content)
	assert.Contains(t, msg.Embed.Description, "Bug Report")
	require.Len(t, msg.Buttons, 1)
	assert.Equal(t, domain.CustomIDClose, msg.Buttons[0].CustomID)

	msg = TicketIntro(platform.Guild{}, "", "alice", domain.CategoryGeneric)
	assert.Equal(t, "New Ticket Created!", msg.Content)
}

func TestCooldownReplyCarriesRetryTimestamp(t *testing.T) {
	reply := CooldownReply(time.Unix(7200, 0))
	assert.True(t, reply.Ephemeral)
	assert.Contains(t, reply.Embed.Description, "<t:7200:R>")
}

func TestClosePromptButtons(t *testing.T) {
	reply := ClosePrompt()
	require.Len(t, reply.Buttons, 2)
	assert.Equal(t, domain.CustomIDConfirmClose, reply.Buttons[0].CustomID)
	assert.Equal(t, domain.CustomIDCancelClose, reply.Buttons[1].CustomID)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "0 Open Tickets", StatusText(0))
	assert.Equal(t, "1 Open Ticket", StatusText(1))
	assert.Equal(t, "3 Open Tickets", StatusText(3))
}
