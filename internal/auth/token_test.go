package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticketbot/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30)

	raw, meta, err := tm.GenerateToken("ops-1", domain.SubjectTypeOperator)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, meta.ExpiresAt.Sub(meta.IssuedAt))
	assert.NotEmpty(t, meta.ID)

	claims, err := tm.ParseToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeOperator, claims.Subject)
	assert.Equal(t, meta.ID, claims.ID)
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	raw, _, err := tm.GenerateToken("ops-1", domain.SubjectTypeOperator)
	require.NoError(t, err)

	_, err = NewTokenManager("other", 1).ParseToken(raw)
	assert.Error(t, err, "wrong secret")

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.ParseToken(raw)
	assert.Error(t, err, "expired")

	_, err = tm.ParseToken("not-a-jwt")
	assert.Error(t, err)
}
