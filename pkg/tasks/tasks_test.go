package tasks_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedapi/typedapi/pkg/tasks"
)

func TestQueue(t *testing.T) {
	t.Parallel()

	q := tasks.NewQueue()
	assert.Equal(t, 0, q.Len())

	id1 := q.Add("first", func(context.Context) error { return nil })
	id2 := q.Add("second", func(context.Context) error { return nil })

	assert.Equal(t, 2, q.Len())
	assert.NotEqual(t, id1, id2)
}

func TestRunner(t *testing.T) {
	t.Parallel()

	t.Run("runs tasks in submission order", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var order []string

		runner := tasks.NewRunner(nil)
		q := tasks.NewQueue()
		for _, name := range []string{"a", "b", "c"} {
			q.Add(name, func(context.Context) error {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return nil
			})
		}

		runner.Drain(q)
		runner.Wait()

		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("panicking task does not affect peers", func(t *testing.T) {
		t.Parallel()

		var ran bool
		runner := tasks.NewRunner(nil)
		q := tasks.NewQueue()
		q.Add("boom", func(context.Context) error { panic("boom") })
		q.Add("survivor", func(context.Context) error {
			ran = true
			return nil
		})

		runner.Drain(q)
		runner.Wait()

		assert.True(t, ran)
	})

	t.Run("queue drains once", func(t *testing.T) {
		t.Parallel()

		var count int
		var mu sync.Mutex
		runner := tasks.NewRunner(nil)
		q := tasks.NewQueue()
		q.Add("once", func(context.Context) error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		})

		runner.Drain(q)
		runner.Drain(q)
		runner.Wait()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, count)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("tasks run after response", func(t *testing.T) {
		t.Parallel()

		done := make(chan struct{})
		runner := tasks.NewRunner(nil)
		h := tasks.Middleware(runner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := tasks.FromRequest(r)
			require.NotNil(t, q)
			q.Add("notify", func(context.Context) error {
				close(done)
				return nil
			})
			w.WriteHeader(http.StatusAccepted)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("task did not run")
		}
	})

	t.Run("request without tasks spawns nothing", func(t *testing.T) {
		t.Parallel()

		runner := tasks.NewRunner(nil)
		h := tasks.Middleware(runner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		runner.Wait()
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
