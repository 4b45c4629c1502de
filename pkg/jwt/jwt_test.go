package jwt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedapi/typedapi/pkg/jwt"
)

func TestSigner(t *testing.T) {
	t.Parallel()

	signer, err := jwt.NewSigner([]byte("test-signing-key-with-enough-bytes"))
	require.NoError(t, err)

	t.Run("round trip preserves claims", func(t *testing.T) {
		t.Parallel()

		token, err := signer.Issue(jwt.Claims{
			Subject:   "user-1",
			Scopes:    []string{"items.read", "items.write"},
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		})
		require.NoError(t, err)

		claims, err := signer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, []string{"items.read", "items.write"}, claims.Scopes)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		t.Parallel()

		token, err := signer.Issue(jwt.Claims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		})
		require.NoError(t, err)

		_, err = signer.Verify(token)
		assert.ErrorIs(t, err, jwt.ErrExpired)
	})

	t.Run("tampered payload rejected", func(t *testing.T) {
		t.Parallel()

		token, err := signer.Issue(jwt.Claims{Subject: "user-1"})
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		tampered := parts[0] + ".eyJzdWIiOiJ1c2VyLTIifQ." + parts[2]
		_, err = signer.Verify(tampered)
		assert.ErrorIs(t, err, jwt.ErrBadSignature)
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		t.Parallel()

		other, err := jwt.NewSigner([]byte("a-completely-different-signing-key"))
		require.NoError(t, err)

		token, err := signer.Issue(jwt.Claims{Subject: "user-1"})
		require.NoError(t, err)

		_, err = other.Verify(token)
		assert.ErrorIs(t, err, jwt.ErrBadSignature)
	})

	t.Run("malformed token rejected", func(t *testing.T) {
		t.Parallel()

		_, err := signer.Verify("not-a-token")
		assert.ErrorIs(t, err, jwt.ErrInvalid)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		t.Parallel()

		_, err := jwt.NewSigner(nil)
		assert.ErrorIs(t, err, jwt.ErrMissingKey)
	})
}
