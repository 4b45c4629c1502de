package cookie_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedapi/typedapi/pkg/cookie"
)

const (
	secretA = "0123456789abcdef0123456789abcdef"
	secretB = "fedcba9876543210fedcba9876543210"
)

func TestNewCodec(t *testing.T) {
	t.Parallel()

	t.Run("requires a secret", func(t *testing.T) {
		_, err := cookie.NewCodec()
		assert.ErrorIs(t, err, cookie.ErrNoSecret)

		_, err = cookie.NewCodec("", "")
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})

	t.Run("rejects short secrets", func(t *testing.T) {
		_, err := cookie.NewCodec("too-short")
		assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
	})
}

func TestSignVerify(t *testing.T) {
	t.Parallel()

	codec, err := cookie.NewCodec(secretA)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		signed := codec.Sign("session-id-123")
		got, err := codec.Verify(signed)
		require.NoError(t, err)
		assert.Equal(t, "session-id-123", got)
	})

	t.Run("tampered value", func(t *testing.T) {
		signed := codec.Sign("session-id-123")
		forged := codec.Sign("session-id-456")
		mixed := strings.SplitN(forged, "|", 2)[0] + "|" + strings.SplitN(signed, "|", 2)[1]

		_, err := codec.Verify(mixed)
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := codec.Verify("no-separator")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)

		_, err = codec.Verify("!!!not-base64!!!|sig")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := cookie.NewCodec(secretB)
		require.NoError(t, err)

		_, err = other.Verify(codec.Sign("session-id-123"))
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})
}

func TestKeyRotation(t *testing.T) {
	t.Parallel()

	old, err := cookie.NewCodec(secretA)
	require.NoError(t, err)
	rotated, err := cookie.NewCodec(secretB, secretA)
	require.NoError(t, err)

	// Values signed before the rotation still verify.
	got, err := rotated.Verify(old.Sign("session-id-123"))
	require.NoError(t, err)
	assert.Equal(t, "session-id-123", got)

	// New values are signed with the new primary key only.
	_, err = old.Verify(rotated.Sign("session-id-123"))
	assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
}
