package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes surfaced to users or ops callers.
const (
	CodeCooldownActive = "COOLDOWN_ACTIVE"
	CodeTicketExists   = "TICKET_EXISTS"
	CodeForbidden      = "FORBIDDEN"
	CodeNotATicket     = "NOT_A_TICKET"
	CodeDialogResolved = "DIALOG_RESOLVED"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeValidation     = "VALIDATION_FAILED"
	CodeInternal       = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewCooldownActive reports that the requester must wait until retryAt.
func NewCooldownActive(retryAt time.Time) error {
	return NewDomainError(CodeCooldownActive, "ticket cooldown active", http.StatusTooManyRequests,
		map[string]any{"retry_at": retryAt})
}

// NewTicketExists reports the requester's already open ticket channel.
func NewTicketExists(channelID string) error {
	return NewDomainError(CodeTicketExists, "ticket already open", http.StatusConflict,
		map[string]any{"channel_id": channelID})
}

func NewNotATicket(channelID string) error {
	return NewDomainError(CodeNotATicket, "channel is not a ticket", http.StatusBadRequest,
		map[string]any{"channel_id": channelID})
}

func NewDialogResolved() error {
	return NewDomainError(CodeDialogResolved, "confirmation already resolved", http.StatusGone, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// IsRejection reports whether err is a user-facing precondition rejection
// rather than a transport or internal failure.
func IsRejection(err error) bool {
	de := ToDomainError(err)
	return de != nil && de.Code != CodeInternal
}
