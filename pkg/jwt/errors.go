package jwt

import "errors"

var (
	ErrInvalid      = errors.New("jwt: invalid token")
	ErrExpired      = errors.New("jwt: token is expired")
	ErrBadSignature = errors.New("jwt: invalid signature")
	ErrBadAlgorithm = errors.New("jwt: unexpected signing algorithm")
	ErrMissingKey   = errors.New("jwt: missing signing key")
)
