package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketChannelName(t *testing.T) {
	tests := []struct {
		username string
		want     string
	}{
		{"Alice", "ticket-alice"},
		{"  Bob Smith ", "ticket-bob-smith"},
		{"dan.the_man", "ticket-dan-the_man"},
		{"!!!", "ticket-user"},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			got := TicketChannelName(tt.username)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsTicketChannelName(got))
		})
	}
	assert.False(t, IsTicketChannelName("general"))
	assert.False(t, IsTicketChannelName("ticket-"))
}

func TestOwnerTopicRoundTrip(t *testing.T) {
	id, ok := OwnerFromTopic(OwnerTopic("123"))
	assert.True(t, ok)
	assert.Equal(t, "123", id)

	_, ok = OwnerFromTopic("welcome to the channel")
	assert.False(t, ok)
	_, ok = OwnerFromTopic("ticket owner: ")
	assert.False(t, ok)
}

func TestParseCustomID(t *testing.T) {
	tests := []struct {
		customID     string
		wantKind     ActionKind
		wantCategory Category
		wantOK       bool
	}{
		{"create_ticket", ActionOpen, CategoryGeneric, true},
		{"bug_report", ActionOpen, CategoryBugReport, true},
		{"partner_request", ActionOpen, CategoryPartnerRequest, true},
		{"close_ticket", ActionRequestClose, "", true},
		{"confirm_close_ticket", ActionConfirmClose, "", true},
		{"cancel_close_ticket", ActionCancelClose, "", true},
		{"something_else", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.customID, func(t *testing.T) {
			kind, category, ok := ParseCustomID(tt.customID)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantCategory, category)
		})
	}
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "General Support", CategoryGeneralSupport.Label())
	assert.Equal(t, "Bug Report", CategoryBugReport.Label())
	assert.Equal(t, "Support", CategoryGeneric.Label())
}
