package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

const minSecretLength = 32

// Codec signs cookie values with HMAC-SHA256 so the server can detect
// tampering without storing anything. Multiple secrets support key
// rotation: the first secret signs, every secret verifies.
type Codec struct {
	secrets []string
}

// NewCodec builds a codec from one or more secrets of at least 32 bytes.
func NewCodec(secrets ...string) (*Codec, error) {
	kept := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s == "" {
			continue
		}
		if len(s) < minSecretLength {
			return nil, ErrSecretTooShort
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return nil, ErrNoSecret
	}
	return &Codec{secrets: kept}, nil
}

// Sign returns value wrapped with its signature, safe for use as a cookie
// value.
func (c *Codec) Sign(value string) string {
	mac := hmac.New(sha256.New, []byte(c.secrets[0]))
	mac.Write([]byte(value))
	sig := base64.URLEncoding.EncodeToString(mac.Sum(nil))
	return base64.URLEncoding.EncodeToString([]byte(value)) + "|" + sig
}

// Verify checks the signature and returns the original value. Every
// configured secret is tried so freshly rotated deployments keep
// accepting cookies signed with the previous key.
func (c *Codec) Verify(signed string) (string, error) {
	encoded, sig, ok := strings.Cut(signed, "|")
	if !ok {
		return "", ErrInvalidFormat
	}

	value, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidFormat
	}

	for _, secret := range c.secrets {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(value)
		want := base64.URLEncoding.EncodeToString(mac.Sum(nil))
		if subtle.ConstantTimeCompare([]byte(sig), []byte(want)) == 1 {
			return string(value), nil
		}
	}

	return "", ErrInvalidSignature
}
