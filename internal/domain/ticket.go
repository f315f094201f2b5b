package domain

import (
	"regexp"
	"strings"
	"time"
)

// TicketChannelPrefix marks a channel as a ticket. The registry derives
// every open ticket from channels carrying this prefix.
const TicketChannelPrefix = "ticket-"

const ownerTopicPrefix = "ticket owner: "

// TicketState enumerates the per (guild, user) lifecycle states.
type TicketState string

const (
	TicketStateNone         TicketState = "NONE"
	TicketStateOpen         TicketState = "OPEN"
	TicketStateClosePending TicketState = "CLOSE_PENDING"
)

// Category is the kind of request chosen on the anchor message.
type Category string

const (
	CategoryGeneric        Category = "create_ticket"
	CategoryGeneralSupport Category = "general_support"
	CategoryPartnerRequest Category = "partner_request"
	CategoryBugReport      Category = "bug_report"
	CategoryOtherSupport   Category = "other_support"
)

// AnchorCategories are offered as buttons on the anchor message, in order.
var AnchorCategories = []Category{
	CategoryGeneralSupport,
	CategoryPartnerRequest,
	CategoryBugReport,
	CategoryOtherSupport,
}

// Label renders the category for humans, e.g. "Bug Report".
func (c Category) Label() string {
	if c == CategoryGeneric {
		return "Support"
	}
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Ticket is a private support channel as seen through the registry.
type Ticket struct {
	GuildID   string
	ChannelID string
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

var invalidNameChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// TicketChannelName derives the channel name for an owner's username.
// Channel names are lowercase on the platform, so the username is
// normalised the same way to keep lookups by name stable. Different
// usernames can still share a name; the owner topic tells them apart.
func TicketChannelName(username string) string {
	name := strings.ToLower(strings.TrimSpace(username))
	name = strings.NewReplacer(" ", "-", ".", "-").Replace(name)
	name = invalidNameChars.ReplaceAllString(name, "")
	if name == "" {
		name = "user"
	}
	return TicketChannelPrefix + name
}

// IsTicketChannelName reports whether name follows the ticket naming convention.
func IsTicketChannelName(name string) bool {
	return strings.HasPrefix(name, TicketChannelPrefix) && len(name) > len(TicketChannelPrefix)
}

// OwnerTopic encodes the owner's user id into a channel topic.
func OwnerTopic(userID string) string {
	return ownerTopicPrefix + userID
}

// OwnerFromTopic extracts the owner user id written by OwnerTopic.
func OwnerFromTopic(topic string) (string, bool) {
	if !strings.HasPrefix(topic, ownerTopicPrefix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(topic, ownerTopicPrefix))
	return id, id != ""
}
