package respcache_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedapi/typedapi/pkg/respcache"
)

func newCountingHandler(hits *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	cfg := respcache.Config{TTL: time.Minute, MaxBodySize: 1 << 20}

	t.Run("first request misses then hits", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		h := respcache.Middleware(respcache.NewMemoryStore(0), cfg)(newCountingHandler(&hits))

		rec1 := httptest.NewRecorder()
		h.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/items", nil))
		assert.Equal(t, "MISS", rec1.Header().Get("X-Cache"))

		rec2 := httptest.NewRecorder()
		h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/items", nil))
		assert.Equal(t, "HIT", rec2.Header().Get("X-Cache"))
		assert.Equal(t, `{"ok":true}`, rec2.Body.String())
		assert.Equal(t, "application/json", rec2.Header().Get("Content-Type"))

		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("non-GET bypasses", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		h := respcache.Middleware(respcache.NewMemoryStore(0), cfg)(newCountingHandler(&hits))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items", nil))
		assert.Equal(t, "BYPASS", rec.Header().Get("X-Cache"))
	})

	t.Run("authorized request bypasses", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		h := respcache.Middleware(respcache.NewMemoryStore(0), cfg)(newCountingHandler(&hits))

		r := httptest.NewRequest(http.MethodGet, "/items", nil)
		r.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, "BYPASS", rec.Header().Get("X-Cache"))

		// And it did not poison the cache for anonymous requests.
		rec2 := httptest.NewRecorder()
		h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/items", nil))
		assert.Equal(t, "MISS", rec2.Header().Get("X-Cache"))
	})

	t.Run("error responses are not stored", func(t *testing.T) {
		t.Parallel()

		h := respcache.Middleware(respcache.NewMemoryStore(0), cfg)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusInternalServerError)
			}))

		rec1 := httptest.NewRecorder()
		h.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/fail", nil))
		rec2 := httptest.NewRecorder()
		h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.Equal(t, "MISS", rec2.Header().Get("X-Cache"))
	})

	t.Run("no-store and private responses are not stored", func(t *testing.T) {
		t.Parallel()

		for _, cc := range []string{"no-store", "private, max-age=60"} {
			h := respcache.Middleware(respcache.NewMemoryStore(0), cfg)(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Cache-Control", cc)
					_, _ = w.Write([]byte("secret"))
				}))

			rec1 := httptest.NewRecorder()
			h.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/cc", nil))
			rec2 := httptest.NewRecorder()
			h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/cc", nil))
			assert.Equal(t, "MISS", rec2.Header().Get("X-Cache"), "Cache-Control: %s", cc)
		}
	})

	t.Run("query order does not split entries", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		h := respcache.Middleware(respcache.NewMemoryStore(0), cfg)(newCountingHandler(&hits))

		rec1 := httptest.NewRecorder()
		h.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/items?a=1&b=2", nil))
		rec2 := httptest.NewRecorder()
		h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/items?b=2&a=1", nil))

		assert.Equal(t, "HIT", rec2.Header().Get("X-Cache"))
		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("distinct queries get distinct entries", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		h := respcache.Middleware(respcache.NewMemoryStore(0), cfg)(newCountingHandler(&hits))

		rec1 := httptest.NewRecorder()
		h.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/items?page=1", nil))
		rec2 := httptest.NewRecorder()
		h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/items?page=2", nil))

		assert.Equal(t, "MISS", rec2.Header().Get("X-Cache"))
		assert.Equal(t, int64(2), hits.Load())
	})

	t.Run("vary splits entries by header value", func(t *testing.T) {
		t.Parallel()

		h := respcache.Middleware(respcache.NewMemoryStore(0), cfg)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Vary", "Accept-Language")
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte(r.Header.Get("Accept-Language")))
			}))

		get := func(lang string) *httptest.ResponseRecorder {
			r := httptest.NewRequest(http.MethodGet, "/greeting", nil)
			r.Header.Set("Accept-Language", lang)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			return rec
		}

		assert.Equal(t, "MISS", get("en").Header().Get("X-Cache"))
		assert.Equal(t, "MISS", get("de").Header().Get("X-Cache"))

		en := get("en")
		assert.Equal(t, "HIT", en.Header().Get("X-Cache"))
		assert.Equal(t, "en", en.Body.String())

		de := get("de")
		assert.Equal(t, "HIT", de.Header().Get("X-Cache"))
		assert.Equal(t, "de", de.Body.String())
	})

	t.Run("event streams are never cached", func(t *testing.T) {
		t.Parallel()

		h := respcache.Middleware(respcache.NewMemoryStore(0), cfg)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				_, _ = w.Write([]byte("data: x\n\n"))
			}))

		rec1 := httptest.NewRecorder()
		h.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/events", nil))
		rec2 := httptest.NewRecorder()
		h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/events", nil))
		assert.Equal(t, "MISS", rec2.Header().Get("X-Cache"))
	})

	t.Run("expired entries miss", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		short := respcache.Config{TTL: 10 * time.Millisecond, MaxBodySize: 1 << 20}
		h := respcache.Middleware(respcache.NewMemoryStore(0), short)(newCountingHandler(&hits))

		rec1 := httptest.NewRecorder()
		h.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/items", nil))
		time.Sleep(20 * time.Millisecond)

		rec2 := httptest.NewRecorder()
		h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/items", nil))
		assert.Equal(t, "MISS", rec2.Header().Get("X-Cache"))
		assert.Equal(t, int64(2), hits.Load())
	})
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := respcache.NewRedisStore(client, "")

	var hits atomic.Int64
	h := respcache.Middleware(store, respcache.Config{TTL: time.Minute, MaxBodySize: 1 << 20})(newCountingHandler(&hits))

	rec1 := httptest.NewRecorder()
	h.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/items", nil))
	require.Equal(t, "MISS", rec1.Header().Get("X-Cache"))

	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.Equal(t, "HIT", rec2.Header().Get("X-Cache"))
	assert.Equal(t, int64(1), hits.Load())

	mr.FastForward(2 * time.Minute)
	rec3 := httptest.NewRecorder()
	h.ServeHTTP(rec3, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.Equal(t, "MISS", rec3.Header().Get("X-Cache"))
}
