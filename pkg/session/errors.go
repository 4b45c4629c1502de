package session

import "errors"

var (
	ErrNotFound       = errors.New("session: not found")
	ErrExpired        = errors.New("session: expired")
	ErrInvalidRecord  = errors.New("session: invalid record")
	ErrStoreUnhealthy = errors.New("session: store unavailable")
)
