package auth

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// WithContext attaches a principal to a context.
func WithContext(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the authenticated principal, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxKey{}).(*Principal)
	return p
}

// FromRequest returns the principal attached to a request's context.
func FromRequest(r *http.Request) *Principal {
	return FromContext(r.Context())
}
