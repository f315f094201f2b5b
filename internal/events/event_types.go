package events

import (
	"time"

	"github.com/spec-kit/ticketbot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened EventType = "ticket_opened"
	EventTicketClosed EventType = "ticket_closed"
)

// Actor is the user whose action caused the event.
type Actor struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// Event represents a lifecycle event emitted after a transition commits.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	GuildID   string      `json:"guild_id"`
	ChannelID string      `json:"channel_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	ChannelName string          `json:"channel_name"`
	OwnerID     string          `json:"owner_id"`
	Category    domain.Category `json:"category"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	ChannelName string `json:"channel_name"`
	OwnerID     string `json:"owner_id,omitempty"`
}
