package auth

import "errors"

var (
	ErrMissingCredentials   = errors.New("auth: missing credentials")
	ErrMalformedCredentials = errors.New("auth: malformed credentials")
	ErrInvalidCredentials   = errors.New("auth: invalid credentials")
	ErrInsufficientScopes   = errors.New("auth: insufficient scopes")
)
