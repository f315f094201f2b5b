// Package presentation builds the user-visible message bodies. Nothing
// here makes decisions; the services choose which message to send.
package presentation

import (
	"fmt"
	"time"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/platform"
)

const (
	colorNeutral = 0x000000
	colorWarn    = 0xff9900
	colorOpened  = 0x2ecc71
	colorClosed  = 0xe74c3c
)

// Anchor is the persistent message that lets users open a ticket.
func Anchor(guild platform.Guild) platform.Message {
	buttons := make([]platform.Button, 0, len(domain.AnchorCategories))
	for _, c := range domain.AnchorCategories {
		buttons = append(buttons, platform.Button{
			Label:    c.Label(),
			CustomID: string(c),
			Style:    platform.ButtonSecondary,
		})
	}
	return platform.Message{
		Embed: &platform.Embed{
			Title: "Need assistance? Our support team is here to help!",
			Description: "Whether you're experiencing technical issues, have questions about billing, " +
				"want to report a bug, or need help with something else, our team is ready to help. " +
				"Select one of the options below to open a ticket.",
			Color:         colorNeutral,
			Footer:        guild.Name,
			FooterIconURL: guild.IconURL,
		},
		Buttons: buttons,
	}
}

// TicketIntro is posted into a freshly created ticket channel.
func TicketIntro(guild platform.Guild, responderRoleID, username string, category domain.Category) platform.Message {
	content := "New Ticket Created!"
	if responderRoleID != "" {
		content = fmt.Sprintf("<@&%s> New Ticket Created!", responderRoleID)
	}
	return platform.Message{
		Content: content,
		Embed: &platform.Embed{
			Title: fmt.Sprintf("%s's Ticket", username),
			Description: fmt.Sprintf("Ticket Type: %s\nPlease describe your issue and a staff member will be with you shortly.",
				category.Label()),
			Color:         colorNeutral,
			Footer:        guild.Name,
			FooterIconURL: guild.IconURL,
		},
		Buttons: []platform.Button{{Label: "Close Ticket", CustomID: domain.CustomIDClose, Style: platform.ButtonPrimary}},
	}
}

// Timestamp renders t as a relative platform timestamp.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// ChannelMention renders a channel reference.
func ChannelMention(channelID string) string {
	return fmt.Sprintf("<#%s>", channelID)
}

// UserMention renders a user reference.
func UserMention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

func ephemeral(content string) platform.Reply {
	return platform.Reply{Content: content, Ephemeral: true}
}

// CooldownReply tells the requester when they may open another ticket.
func CooldownReply(retryAt time.Time) platform.Reply {
	return platform.Reply{
		Embed: &platform.Embed{
			Title:       "Please Wait",
			Description: fmt.Sprintf("You have to wait until %s before opening another ticket.", Timestamp(retryAt)),
			Color:       colorWarn,
		},
		Ephemeral: true,
	}
}

// ExistingTicketReply points the requester at the ticket they already have.
func ExistingTicketReply(channelID string) platform.Reply {
	return ephemeral("You already have a ticket open: " + ChannelMention(channelID))
}

// CreatedReply points the requester at the new ticket.
func CreatedReply(channelID string) platform.Reply {
	return ephemeral("Ticket created: " + ChannelMention(channelID))
}

// NotPermittedReply answers a close attempt without the capability.
func NotPermittedReply() platform.Reply {
	return ephemeral("You don't have permission to close tickets.")
}

// NotATicketReply answers a close attempt outside a ticket channel.
func NotATicketReply() platform.Reply {
	return ephemeral("This channel is not a ticket.")
}

// ClosePrompt asks the capability-holder to confirm closure.
func ClosePrompt() platform.Reply {
	return platform.Reply{
		Content: "Are you sure you want to close this ticket?",
		Buttons: []platform.Button{
			{Label: "Yes, Close Ticket", CustomID: domain.CustomIDConfirmClose, Style: platform.ButtonSuccess},
			{Label: "No, Cancel", CustomID: domain.CustomIDCancelClose, Style: platform.ButtonDanger},
		},
		Ephemeral: true,
	}
}

// ClosingReply is the last reply in a ticket before it is deleted.
func ClosingReply() platform.Reply {
	return ephemeral("Ticket is closing...")
}

// CancelledReply confirms that the close prompt was dismissed.
func CancelledReply() platform.Reply {
	return ephemeral("Ticket closure has been canceled.")
}

// DialogResolvedReply answers a prompt that was already resolved or expired.
func DialogResolvedReply() platform.Reply {
	return ephemeral("This confirmation is no longer active.")
}

// FailureReply is the generic answer to an unexpected failure.
func FailureReply() platform.Reply {
	return ephemeral("Something went wrong, please try again later.")
}

// AuditOpened is posted to the audit channel when a ticket opens.
func AuditOpened(ownerID, channelID string, category domain.Category) platform.Message {
	return platform.Message{
		Embed: &platform.Embed{
			Title: "Ticket Opened",
			Description: fmt.Sprintf("%s opened %s\nType: %s",
				UserMention(ownerID), ChannelMention(channelID), category.Label()),
			Color: colorOpened,
		},
	}
}

// AuditClosed is posted to the audit channel when a ticket closes.
func AuditClosed(closedByID, channelName, ownerID string) platform.Message {
	desc := fmt.Sprintf("%s closed #%s", UserMention(closedByID), channelName)
	if ownerID != "" {
		desc += "\nOwner: " + UserMention(ownerID)
	}
	return platform.Message{
		Embed: &platform.Embed{Title: "Ticket Closed", Description: desc, Color: colorClosed},
	}
}

// ClosedNotice is sent directly to the requester after closure.
func ClosedNotice(guildName, channelName string) platform.Message {
	where := "the server"
	if guildName != "" {
		where = guildName
	}
	return platform.Message{
		Embed: &platform.Embed{
			Title:       "Your ticket was closed",
			Description: fmt.Sprintf("Your ticket #%s in %s has been closed. Open a new one any time from the support channel.", channelName, where),
			Color:       colorClosed,
		},
	}
}

// StatusText is the bot's visible status.
func StatusText(openTickets int) string {
	if openTickets == 1 {
		return "1 Open Ticket"
	}
	return fmt.Sprintf("%d Open Tickets", openTickets)
}
