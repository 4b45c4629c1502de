package respcache

import (
	"context"
	"time"
)

// Store is the byte-oriented backend behind the response cache. Entries
// expire after their TTL; a Get past expiry behaves as a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
