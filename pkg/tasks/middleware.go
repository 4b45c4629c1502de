package tasks

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// WithContext attaches a queue to a context.
func WithContext(ctx context.Context, q *Queue) context.Context {
	return context.WithValue(ctx, ctxKey{}, q)
}

// FromContext returns the request's task queue, or nil.
func FromContext(ctx context.Context) *Queue {
	q, _ := ctx.Value(ctxKey{}).(*Queue)
	return q
}

// FromRequest returns the task queue attached to a request's context.
func FromRequest(r *http.Request) *Queue {
	return FromContext(r.Context())
}

// Middleware injects a fresh queue into each request and drains it onto
// the runner once the handler has returned, after response emission.
func Middleware(runner *Runner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := NewQueue()
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), q)))
			runner.Drain(q)
		})
	}
}
