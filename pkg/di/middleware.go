package di

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// WithContext attaches a resolution context to a context.
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the resolution context carried by ctx, or nil.
func FromContext(ctx context.Context) *Context {
	rc, _ := ctx.Value(ctxKey{}).(*Context)
	return rc
}

// FromRequest returns the resolution context attached to a request.
func FromRequest(r *http.Request) *Context {
	return FromContext(r.Context())
}

// Middleware opens a request-scoped resolution context for each request and
// closes it after the response, running pending teardowns in LIFO order.
func Middleware(c *Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := c.NewRequestContext(r.Context())
			defer rc.Close(context.WithoutCancel(r.Context()))
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), rc)))
		})
	}
}
