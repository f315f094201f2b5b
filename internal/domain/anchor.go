package domain

import "time"

// AnchorRecord is the durable reference to a guild's anchor message.
type AnchorRecord struct {
	GuildID   string
	ChannelID string
	MessageID string
	UpdatedAt time.Time
}

// CooldownEntry records when a user may next open a ticket.
type CooldownEntry struct {
	UserID    string
	ExpiresAt time.Time
}
