package domain

// ActionKind identifies a lifecycle transition request.
type ActionKind string

const (
	ActionOpen         ActionKind = "open"
	ActionRequestClose ActionKind = "request_close"
	ActionConfirmClose ActionKind = "confirm_close"
	ActionCancelClose  ActionKind = "cancel_close"
)

// Button custom ids for the close flow.
const (
	CustomIDClose        = "close_ticket"
	CustomIDConfirmClose = "confirm_close_ticket"
	CustomIDCancelClose  = "cancel_close_ticket"
)

// ParseCustomID maps a button custom id to the action it requests. For
// open actions the chosen category is returned as well.
func ParseCustomID(customID string) (ActionKind, Category, bool) {
	switch customID {
	case CustomIDClose:
		return ActionRequestClose, "", true
	case CustomIDConfirmClose:
		return ActionConfirmClose, "", true
	case CustomIDCancelClose:
		return ActionCancelClose, "", true
	}
	category := Category(customID)
	if category == CategoryGeneric {
		return ActionOpen, category, true
	}
	for _, c := range AnchorCategories {
		if c == category {
			return ActionOpen, category, true
		}
	}
	return "", "", false
}

// Actor is the user who pressed a button.
type Actor struct {
	UserID   string
	Username string
}
