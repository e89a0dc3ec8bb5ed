package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
)

func TestAuthService(t *testing.T) {
	t.Run("Rejects an empty secret", func(t *testing.T) {
		_, err := NewAuthService("")

		assert.ErrorIs(t, err, ErrEmptySecret)
	})

	t.Run("Round-trips the user id", func(t *testing.T) {
		// Given: an auth service
		auth, err := NewAuthService("secret")
		require.NoError(t, err)

		// When: a token is issued and parsed back
		token, err := auth.GenerateToken("alice")
		require.NoError(t, err)

		userID, err := auth.ParseToken(token)

		// Then: the subject is the user id
		require.NoError(t, err)
		assert.Equal(t, "alice", userID)
	})

	t.Run("Rejects tokens signed with another key", func(t *testing.T) {
		issuer, err := NewAuthService("other")
		require.NoError(t, err)
		verifier, err := NewAuthService("secret")
		require.NoError(t, err)

		token, err := issuer.GenerateToken("alice")
		require.NoError(t, err)

		_, err = verifier.ParseToken(token)

		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("Rejects expired tokens", func(t *testing.T) {
		// Given: a token issued two days ago
		auth := &authServiceImpl{
			secretKey: []byte("secret"),
			now:       func() time.Time { return time.Now().Add(-48 * time.Hour) },
		}

		token, err := auth.GenerateToken("alice")
		require.NoError(t, err)

		// When: it is verified today
		auth.now = time.Now
		_, err = auth.ParseToken(token)

		// Then: it is refused
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("Rejects garbage and unsigned tokens", func(t *testing.T) {
		auth, err := NewAuthService("secret")
		require.NoError(t, err)

		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		for _, token := range []string{"", "not-a-token", unsigned} {
			_, err = auth.ParseToken(token)
			assert.ErrorIs(t, err, apperror.ErrUnauthorized)
		}
	})
}
