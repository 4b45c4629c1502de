package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long to wait before the next request is allowed,
// zero when the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	// Allow consumes one slot for key and reports the window state.
	Allow(ctx context.Context, key string) (*Result, error)

	// Reset clears the counter for key.
	Reset(ctx context.Context, key string) error
}

// Store is the counter backend. Counters expire at window end.
type Store interface {
	// Increment atomically bumps the counter for key, starting a new
	// window with the given duration when none is active. It returns the
	// new count and the instant the window resets.
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)

	// Delete removes the counter for key.
	Delete(ctx context.Context, key string) error
}

// Config describes a fixed window: at most Limit requests per Window.
type Config struct {
	Limit  int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

func DefaultConfig() Config {
	return Config{Limit: 100, Window: time.Minute}
}
