package domain

import "time"

// SubjectType differentiates the callers of the ops API.
type SubjectType string

const (
	SubjectTypeOperator SubjectType = "OPERATOR"
)

// Token represents issued admin token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	ExpiresAt time.Time
	IssuedAt  time.Time
}
