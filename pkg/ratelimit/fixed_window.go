package ratelimit

import "context"

// FixedWindow counts requests per key in fixed windows: the first request
// for a key opens a window, every request within it increments a counter,
// and requests beyond the limit are rejected until the window elapses.
type FixedWindow struct {
	store Store
	cfg   Config
}

// NewFixedWindow creates a fixed-window limiter over the given store.
func NewFixedWindow(store Store, cfg Config) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if cfg.Limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if cfg.Window <= 0 {
		return nil, ErrInvalidWindow
	}
	return &FixedWindow{store: store, cfg: cfg}, nil
}

func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	count, resetAt, err := fw.store.Increment(ctx, key, fw.cfg.Window)
	if err != nil {
		return nil, err
	}

	remaining := fw.cfg.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= int64(fw.cfg.Limit),
		Limit:     fw.cfg.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	return fw.store.Delete(ctx, key)
}
