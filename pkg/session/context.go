package session

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// WithContext attaches a session to a context.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached to a context, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// FromRequest returns the session attached to a request's context, or nil.
func FromRequest(r *http.Request) *Session {
	return FromContext(r.Context())
}
