package respcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	get := func(t *testing.T, s *MemoryStore, key string) ([]byte, bool) {
		t.Helper()
		v, ok, err := s.Get(ctx, key)
		require.NoError(t, err)
		return v, ok
	}

	t.Run("set and get round trip", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore(0)
		t.Cleanup(s.Close)

		require.NoError(t, s.Set(ctx, "a", []byte("body"), time.Minute))
		v, ok := get(t, s, "a")
		assert.True(t, ok)
		assert.Equal(t, []byte("body"), v)
	})

	t.Run("expired entry misses and is dropped", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore(0)
		t.Cleanup(s.Close)

		require.NoError(t, s.Set(ctx, "a", []byte("body"), time.Nanosecond))
		time.Sleep(5 * time.Millisecond)

		_, ok := get(t, s, "a")
		assert.False(t, ok)
		assert.Empty(t, s.index)
	})

	t.Run("zero ttl is not stored", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore(0)
		t.Cleanup(s.Close)

		require.NoError(t, s.Set(ctx, "a", []byte("body"), 0))
		_, ok := get(t, s, "a")
		assert.False(t, ok)
	})

	t.Run("full store evicts least recently used key", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore(0)
		t.Cleanup(s.Close)
		s.capacity = 2

		require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Minute))
		require.NoError(t, s.Set(ctx, "b", []byte("2"), time.Minute))

		// Touch "a" so "b" becomes the eviction candidate.
		_, ok := get(t, s, "a")
		require.True(t, ok)

		require.NoError(t, s.Set(ctx, "c", []byte("3"), time.Minute))

		_, ok = get(t, s, "b")
		assert.False(t, ok)
		_, ok = get(t, s, "a")
		assert.True(t, ok)
		_, ok = get(t, s, "c")
		assert.True(t, ok)
	})

	t.Run("updating a key does not grow the store", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore(0)
		t.Cleanup(s.Close)
		s.capacity = 2

		require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Minute))
		require.NoError(t, s.Set(ctx, "b", []byte("2"), time.Minute))
		require.NoError(t, s.Set(ctx, "a", []byte("1+"), time.Minute))

		v, ok := get(t, s, "a")
		assert.True(t, ok)
		assert.Equal(t, []byte("1+"), v)
		_, ok = get(t, s, "b")
		assert.True(t, ok)
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore(0)
		t.Cleanup(s.Close)

		require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Minute))
		require.NoError(t, s.Delete(ctx, "a"))

		_, ok := get(t, s, "a")
		assert.False(t, ok)
	})

	t.Run("sweep reclaims only expired entries", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore(0)
		t.Cleanup(s.Close)

		require.NoError(t, s.Set(ctx, "fresh", []byte("1"), time.Hour))
		require.NoError(t, s.Set(ctx, "stale", []byte("2"), time.Minute))

		s.sweep(time.Now().Add(30 * time.Minute))

		_, ok := get(t, s, "fresh")
		assert.True(t, ok)
		_, ok = get(t, s, "stale")
		assert.False(t, ok)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore(time.Hour)
		s.Close()
		s.Close()
	})
}
