package auth

import (
	"context"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/typedapi/typedapi/pkg/jwt"
)

// Principal is an authenticated caller.
type Principal struct {
	Subject string
	Scopes  []string
}

// Validator turns extracted credentials into a principal, or fails with
// ErrInvalidCredentials.
type Validator interface {
	Validate(ctx context.Context, creds Credentials) (*Principal, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, creds Credentials) (*Principal, error)

func (f ValidatorFunc) Validate(ctx context.Context, creds Credentials) (*Principal, error) {
	return f(ctx, creds)
}

// BasicValidator checks Basic credentials against bcrypt password hashes
// keyed by username.
type BasicValidator struct {
	hashes map[string][]byte
	scopes map[string][]string
}

// NewBasicValidator creates a validator over username to bcrypt-hash
// pairs. scopes optionally grants per-user scopes; a nil map grants none.
func NewBasicValidator(hashes map[string]string, scopes map[string][]string) *BasicValidator {
	v := &BasicValidator{
		hashes: make(map[string][]byte, len(hashes)),
		scopes: scopes,
	}
	for user, hash := range hashes {
		v.hashes[user] = []byte(hash)
	}
	return v
}

func (v *BasicValidator) Validate(_ context.Context, creds Credentials) (*Principal, error) {
	if creds.Scheme != "basic" {
		return nil, ErrInvalidCredentials
	}

	decoded, err := base64.StdEncoding.DecodeString(creds.Value)
	if err != nil {
		return nil, ErrMalformedCredentials
	}
	user, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return nil, ErrMalformedCredentials
	}

	hash, exists := v.hashes[user]
	if !exists {
		// Burn a comparison anyway so missing users cost the same as
		// wrong passwords.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &Principal{Subject: user, Scopes: v.scopes[user]}, nil
}

var dummyHash = mustHash("typedapi-nonexistent-user-placeholder")

func mustHash(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
}

// HashPassword bcrypt-hashes a password for use with BasicValidator.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// JWTValidator checks Bearer credentials as signed tokens whose claims
// carry the subject and granted scopes.
type JWTValidator struct {
	signer *jwt.Signer
}

func NewJWTValidator(signer *jwt.Signer) *JWTValidator {
	return &JWTValidator{signer: signer}
}

func (v *JWTValidator) Validate(_ context.Context, creds Credentials) (*Principal, error) {
	if creds.Scheme != "bearer" {
		return nil, ErrInvalidCredentials
	}
	claims, err := v.signer.Verify(creds.Value)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return &Principal{Subject: claims.Subject, Scopes: claims.Scopes}, nil
}

// StaticTokenValidator resolves opaque tokens from a fixed table. Useful
// for API keys and tests.
type StaticTokenValidator struct {
	tokens map[string]*Principal
}

func NewStaticTokenValidator(tokens map[string]*Principal) *StaticTokenValidator {
	return &StaticTokenValidator{tokens: tokens}
}

func (v *StaticTokenValidator) Validate(_ context.Context, creds Credentials) (*Principal, error) {
	p, ok := v.tokens[creds.Value]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}
