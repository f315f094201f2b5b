// Package platform defines the chat transport the ticket lifecycle runs
// against. The Discord adapter implements it for production; tests use
// platformtest.Fake.
package platform

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a message, channel or member no longer exists
// or is no longer visible to the bot.
var ErrNotFound = errors.New("platform: not found")

// ButtonStyle selects the visual weight of a button.
type ButtonStyle int

const (
	ButtonSecondary ButtonStyle = iota
	ButtonPrimary
	ButtonSuccess
	ButtonDanger
)

// Button is an actionable control attached to a message.
type Button struct {
	Label    string
	CustomID string
	Style    ButtonStyle
}

// Embed is the rich body of a message.
type Embed struct {
	Title         string
	Description   string
	Color         int
	Footer        string
	FooterIconURL string
}

// Message is an outbound message payload.
type Message struct {
	Content string
	Embed   *Embed
	Buttons []Button
}

// SentMessage references a message that exists on the platform.
type SentMessage struct {
	ID        string
	ChannelID string
}

// Channel is a guild channel.
type Channel struct {
	ID        string
	GuildID   string
	Name      string
	Topic     string
	ParentID  string
	CreatedAt time.Time
}

// Guild carries the presentation details of a guild.
type Guild struct {
	ID      string
	Name    string
	IconURL string
}

// Permission is a bit set of channel permissions.
type Permission int64

const (
	PermViewChannel Permission = 1 << iota
	PermSendMessages
	PermReadMessageHistory
	PermAttachFiles
)

// OverwriteKind tells whether an overwrite targets a role or a member.
type OverwriteKind int

const (
	OverwriteRole OverwriteKind = iota
	OverwriteMember
)

// Overwrite is one access control entry of a channel.
type Overwrite struct {
	ID    string
	Kind  OverwriteKind
	Allow Permission
	Deny  Permission
}

// ChannelSpec describes a channel to create.
type ChannelSpec struct {
	Name       string
	Topic      string
	ParentID   string
	Overwrites []Overwrite
}

// Member is a guild member's capability set in a given channel.
type Member struct {
	UserID            string
	RoleIDs           []string
	CanManageChannels bool
}

// HasRole reports whether the member holds roleID.
func (m Member) HasRole(roleID string) bool {
	for _, r := range m.RoleIDs {
		if r == roleID {
			return true
		}
	}
	return false
}

// Platform is the outbound command sink of the chat transport.
type Platform interface {
	Guild(ctx context.Context, guildID string) (Guild, error)
	SendMessage(ctx context.Context, channelID string, msg Message) (SentMessage, error)
	EditMessage(ctx context.Context, channelID, messageID string, msg Message) error
	FetchMessage(ctx context.Context, channelID, messageID string) (SentMessage, error)
	GuildChannels(ctx context.Context, guildID string) ([]Channel, error)
	Channel(ctx context.Context, channelID string) (Channel, error)
	CreateChannel(ctx context.Context, guildID string, spec ChannelSpec) (Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error
	Member(ctx context.Context, guildID, userID, channelID string) (Member, error)
	SendDirect(ctx context.Context, userID string, msg Message) error
	SetStatus(ctx context.Context, text string) error
}

// Reply is a response to the user who triggered an interaction.
type Reply struct {
	Content   string
	Embed     *Embed
	Buttons   []Button
	Ephemeral bool
}

// Responder answers one inbound interaction.
type Responder interface {
	Reply(ctx context.Context, reply Reply) error
}
