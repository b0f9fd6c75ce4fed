package security

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journify/core/internal/models"
)

func testUser() *models.User {
	return &models.User{ID: "user_1", Email: "demo@journify.com", Name: "Demo User"}
}

func newTestIssuer(clock clockwork.Clock) *TokenIssuer {
	return NewTokenIssuer("test-signing-secret", time.Hour, 7*24*time.Hour, clock)
}

func TestIssueAndParsePair(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	issuer := newTestIssuer(clock)

	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AuthToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AuthToken, pair.RefreshToken)

	claims, err := issuer.Parse(pair.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.Subject)
	assert.Equal(t, "demo@journify.com", claims.Email)
	assert.False(t, claims.IsRefresh())

	refresh, err := issuer.Parse(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.IsRefresh())
}

func TestTokenExpiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	issuer := newTestIssuer(clock)

	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)
	assert.True(t, issuer.Valid(pair.AuthToken))

	clock.Advance(time.Hour + time.Minute)
	assert.False(t, issuer.Valid(pair.AuthToken))
	// The refresh token outlives the access token by design of its TTL.
	assert.True(t, issuer.Valid(pair.RefreshToken))

	_, err = issuer.Parse(pair.AuthToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTamperedTokenRejected(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	issuer := newTestIssuer(clock)

	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)

	other := NewTokenIssuer("different-secret", time.Hour, 7*24*time.Hour, clock)
	assert.False(t, other.Valid(pair.AuthToken))

	_, err = issuer.Parse(pair.AuthToken + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTimeToExpiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	issuer := newTestIssuer(clock)

	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)

	remaining, ok := issuer.TimeToExpiry(pair.AuthToken)
	require.True(t, ok)
	assert.Equal(t, time.Hour, remaining)

	clock.Advance(55 * time.Minute)
	remaining, ok = issuer.TimeToExpiry(pair.AuthToken)
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, remaining)

	_, ok = issuer.TimeToExpiry("garbage")
	assert.False(t, ok)
}
