package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tfkr-ae/fritter/domain"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.NoError(t, CheckPassword(hash, "hunter2"))
	assert.ErrorIs(t, CheckPassword(hash, "hunter3"), ErrInvalidCredentials)

	t.Run("rejects passwords bcrypt cannot hash", func(t *testing.T) {
		_, err := HashPassword(strings.Repeat("a", MaxPasswordLength+1))
		assert.ErrorIs(t, err, ErrPasswordTooLong)

		_, err = HashPassword(strings.Repeat("a", MaxPasswordLength))
		assert.NoError(t, err)

		assert.ErrorIs(t, CheckPassword(hash, strings.Repeat("a", MaxPasswordLength+1)), ErrInvalidCredentials)
	})

	t.Run("treats a missing hash as a mismatch", func(t *testing.T) {
		assert.ErrorIs(t, CheckPassword("", "hunter2"), ErrInvalidCredentials)
		assert.ErrorIs(t, CheckPassword("", ""), ErrInvalidCredentials)
	})
}

func newSession(ttl time.Duration) *domain.Session {
	created := time.Now().UTC()
	return &domain.Session{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		CreatedAt: created,
		ExpiresAt: created.Add(ttl),
	}
}

func TestTokenManager(t *testing.T) {
	tm, err := NewTokenManager([]byte("test-secret"))
	require.NoError(t, err)

	t.Run("round trips session and user ids", func(t *testing.T) {
		session := newSession(time.Hour)

		token, err := tm.Issue(session)
		require.NoError(t, err)

		sessionID, userID, err := tm.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, session.ID, sessionID)
		assert.Equal(t, session.UserID, userID)

		claims := jwt.MapClaims{}
		_, _, err = jwt.NewParser().ParseUnverified(token, claims)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"jti", "sub", "iss", "iat", "exp"}, mapKeys(claims))
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		session := newSession(-time.Minute)

		token, err := tm.Issue(session)
		require.NoError(t, err)

		_, _, err = tm.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		other, err := NewTokenManager([]byte("other-secret"))
		require.NoError(t, err)

		token, err := other.Issue(newSession(time.Hour))
		require.NoError(t, err)

		_, _, err = tm.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects unsigned tokens", func(t *testing.T) {
		claims := SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   uuid.NewString(),
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, _, err = tm.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, _, err := tm.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("requires a secret", func(t *testing.T) {
		_, err := NewTokenManager(nil)
		assert.Error(t, err)
	})
}

func mapKeys(claims jwt.MapClaims) []string {
	keys := make([]string, 0, len(claims))
	for key := range claims {
		keys = append(keys, key)
	}
	return keys
}
