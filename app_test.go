package typedapi_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedapi/typedapi"
	"github.com/typedapi/typedapi/apitest"
	"github.com/typedapi/typedapi/pkg/auth"
	"github.com/typedapi/typedapi/pkg/compress"
	"github.com/typedapi/typedapi/pkg/di"
	"github.com/typedapi/typedapi/pkg/ratelimit"
	"github.com/typedapi/typedapi/pkg/respcache"
	"github.com/typedapi/typedapi/pkg/session"
	"github.com/typedapi/typedapi/pkg/tasks"
)

type getUserRequest struct {
	ID int `path:"id"`
}

type userResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func newUserApp() *typedapi.App {
	app := typedapi.New()
	typedapi.Get(app, "/users/{id}", func(ctx context.Context, req *getUserRequest) (*userResponse, error) {
		return &userResponse{ID: req.ID, Name: "Alice", Email: "alice@example.com"}, nil
	})
	return app
}

func TestPathBinding(t *testing.T) {
	t.Parallel()

	client := apitest.NewInProcess(t, newUserApp())

	t.Run("typed path parameter", func(t *testing.T) {
		res := client.Get("/users/42")
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "application/json; charset=utf-8", res.Header.Get("Content-Type"))

		user := apitest.Decode[userResponse](t, res)
		assert.Equal(t, userResponse{ID: 42, Name: "Alice", Email: "alice@example.com"}, user)
	})

	t.Run("non-numeric path parameter", func(t *testing.T) {
		res := client.Get("/users/notanumber")
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("unknown route", func(t *testing.T) {
		res := client.Get("/missing")
		require.Equal(t, http.StatusNotFound, res.StatusCode)

		var envelope struct {
			Error string `json:"error"`
		}
		require.NoError(t, res.DecodeJSON(&envelope))
		assert.Equal(t, "Not found", envelope.Error)
	})

	t.Run("method not allowed", func(t *testing.T) {
		res := client.Post("/users/42", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	})
}

type listRequest struct {
	Limit  int    `query:"limit" validate:"min=1,max=100"`
	Offset int    `query:"offset" default:"0"`
	Sort   string `query:"sort" default:"id"`
}

type listResponse struct {
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Sort   string `json:"sort"`
}

func TestQueryValidation(t *testing.T) {
	t.Parallel()

	app := typedapi.New()
	typedapi.Get(app, "/q", func(ctx context.Context, req *listRequest) (*listResponse, error) {
		return &listResponse{Limit: req.Limit, Offset: req.Offset, Sort: req.Sort}, nil
	})
	client := apitest.NewInProcess(t, app)

	t.Run("valid query", func(t *testing.T) {
		res := client.Get("/q?limit=10&offset=5")
		require.Equal(t, http.StatusOK, res.StatusCode)
		out := apitest.Decode[listResponse](t, res)
		assert.Equal(t, listResponse{Limit: 10, Offset: 5, Sort: "id"}, out)
	})

	t.Run("constraint violation is 422", func(t *testing.T) {
		res := client.Get("/q?limit=0")
		require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

		var envelope struct {
			Error   string `json:"error"`
			Details []struct {
				Path    string `json:"path"`
				Rule    string `json:"rule"`
				Message string `json:"message"`
			} `json:"details"`
		}
		require.NoError(t, res.DecodeJSON(&envelope))
		assert.Equal(t, "Validation failed", envelope.Error)
		require.Len(t, envelope.Details, 1)
		assert.Equal(t, "limit", envelope.Details[0].Path)
		assert.Equal(t, "minimum", envelope.Details[0].Rule)
		assert.NotEmpty(t, envelope.Details[0].Message)
	})

	t.Run("parse failure is 400", func(t *testing.T) {
		res := client.Get("/q?limit=notanumber")
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("missing required parameter is 400", func(t *testing.T) {
		res := client.Get("/q")
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

type createUserRequest struct {
	Name  string `json:"name" validate:"required,minLength=2"`
	Email string `json:"email" validate:"required,email"`
}

func TestJSONBody(t *testing.T) {
	t.Parallel()

	app := typedapi.New()
	typedapi.Post(app, "/users", func(ctx context.Context, req *createUserRequest) (*userResponse, error) {
		return &userResponse{ID: 1, Name: req.Name, Email: req.Email}, nil
	})
	client := apitest.NewInProcess(t, app)

	t.Run("created with 201", func(t *testing.T) {
		res := client.Post("/users", createUserRequest{Name: "Bob", Email: "bob@example.com"})
		require.Equal(t, http.StatusCreated, res.StatusCode)
		user := apitest.Decode[userResponse](t, res)
		assert.Equal(t, "Bob", user.Name)
	})

	t.Run("body validation is 422", func(t *testing.T) {
		res := client.Post("/users", createUserRequest{Name: "B", Email: "not-an-email"})
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	})

	t.Run("wrong content type is 415", func(t *testing.T) {
		header := http.Header{"Content-Type": []string{"text/plain"}}
		res := client.Do(http.MethodPost, "/users", strings.NewReader("name=Bob"), header)
		assert.Equal(t, http.StatusUnsupportedMediaType, res.StatusCode)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		header := http.Header{"Content-Type": []string{"application/json"}}
		res := client.Do(http.MethodPost, "/users", strings.NewReader("{broken"), header)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestVoidAndErrors(t *testing.T) {
	t.Parallel()

	app := typedapi.New()
	typedapi.Delete(app, "/items/{id}", func(ctx context.Context, req *getUserRequest) (*typedapi.Void, error) {
		return &typedapi.Void{}, nil
	})
	typedapi.Get(app, "/teapot", func(ctx context.Context, req *typedapi.Void) (*userResponse, error) {
		return nil, typedapi.NewError(http.StatusTeapot, "short and stout", "cannot brew coffee")
	})
	typedapi.Get(app, "/boom", func(ctx context.Context, req *typedapi.Void) (*userResponse, error) {
		panic("kaboom")
	})
	client := apitest.NewInProcess(t, app)

	t.Run("void response is 204", func(t *testing.T) {
		res := client.Delete("/items/7")
		assert.Equal(t, http.StatusNoContent, res.StatusCode)
		assert.Empty(t, res.Body)
	})

	t.Run("api error emitted verbatim", func(t *testing.T) {
		res := client.Get("/teapot")
		require.Equal(t, http.StatusTeapot, res.StatusCode)

		var envelope struct {
			Error   string   `json:"error"`
			Details []string `json:"details"`
		}
		require.NoError(t, res.DecodeJSON(&envelope))
		assert.Equal(t, "short and stout", envelope.Error)
		assert.Equal(t, []string{"cannot brew coffee"}, envelope.Details)
	})

	t.Run("handler panic is 500", func(t *testing.T) {
		res := client.Get("/boom")
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	})
}

func TestRouteTimeout(t *testing.T) {
	t.Parallel()

	app := typedapi.New()
	typedapi.Get(app, "/slow", func(ctx context.Context, req *typedapi.Void) (*userResponse, error) {
		select {
		case <-time.After(time.Second):
			return &userResponse{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, typedapi.WithTimeout(30*time.Millisecond))
	client := apitest.NewInProcess(t, app)

	res := client.Get("/slow")
	assert.Equal(t, http.StatusGatewayTimeout, res.StatusCode)
}

type counterDep struct {
	n *atomic.Int64
}

type counterRequest struct {
	Counter *counterDep `dep:""`
}

func TestDependencyInjection(t *testing.T) {
	t.Parallel()

	t.Run("request scope resolves fresh per request", func(t *testing.T) {
		t.Parallel()

		var built atomic.Int64
		app := typedapi.New()
		require.NoError(t, di.Provide(app.Container(), func(rc *di.Context) (*counterDep, error) {
			built.Add(1)
			return &counterDep{n: &atomic.Int64{}}, nil
		}))
		typedapi.Get(app, "/count", func(ctx context.Context, req *counterRequest) (*typedapi.Void, error) {
			req.Counter.n.Add(1)
			return nil, nil
		})
		client := apitest.NewInProcess(t, app)

		client.Get("/count")
		client.Get("/count")
		assert.Equal(t, int64(2), built.Load())
	})

	t.Run("application scope is shared", func(t *testing.T) {
		t.Parallel()

		var built atomic.Int64
		app := typedapi.New()
		require.NoError(t, di.Provide(app.Container(), func(rc *di.Context) (*counterDep, error) {
			built.Add(1)
			return &counterDep{n: &atomic.Int64{}}, nil
		}, di.WithScope(di.ScopeApplication)))
		typedapi.Get(app, "/count", func(ctx context.Context, req *counterRequest) (*typedapi.Void, error) {
			req.Counter.n.Add(1)
			return nil, nil
		})
		client := apitest.NewInProcess(t, app)

		client.Get("/count")
		client.Get("/count")
		assert.Equal(t, int64(1), built.Load())
	})

	t.Run("missing provider fails freeze", func(t *testing.T) {
		t.Parallel()

		app := typedapi.New()
		typedapi.Get(app, "/count", func(ctx context.Context, req *counterRequest) (*typedapi.Void, error) {
			return nil, nil
		})
		require.Error(t, app.Freeze())
	})
}

func TestResponseCache(t *testing.T) {
	t.Parallel()

	store := respcache.NewMemoryStore(0)
	t.Cleanup(store.Close)

	counter := &atomic.Int64{}
	app := typedapi.New(typedapi.WithResponseCache(store, respcache.Config{TTL: time.Minute, MaxBodySize: 1 << 20}))
	typedapi.Get(app, "/cache/counter", func(ctx context.Context, req *typedapi.Void) (*typedapi.Response, error) {
		resp := typedapi.Text(fmt.Sprintf("counter=%d", counter.Load()))
		counter.Add(1)
		return &resp, nil
	})
	client := apitest.NewInProcess(t, app)

	res := client.Get("/cache/counter")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "MISS", res.Header.Get("X-Cache"))
	assert.Equal(t, "counter=0", string(res.Body))

	res = client.Get("/cache/counter")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "HIT", res.Header.Get("X-Cache"))
	assert.Equal(t, "counter=0", string(res.Body))

	authz := http.Header{"Authorization": []string{"Bearer x"}}
	res = client.Get("/cache/counter", authz)
	assert.Equal(t, "BYPASS", res.Header.Get("X-Cache"))
	assert.Equal(t, "counter=1", string(res.Body))

	res = client.Get("/cache/counter", authz)
	assert.Equal(t, "BYPASS", res.Header.Get("X-Cache"))
	assert.Equal(t, "counter=2", string(res.Body))
}

func TestCompression(t *testing.T) {
	t.Parallel()

	cfg := compress.DefaultConfig()
	cfg.MinSize = 128

	app := typedapi.New(typedapi.WithCompression(cfg))
	typedapi.Get(app, "/small", func(ctx context.Context, req *typedapi.Void) (*typedapi.Response, error) {
		resp := typedapi.Text("hello!")
		return &resp, nil
	})
	typedapi.Get(app, "/large", func(ctx context.Context, req *typedapi.Void) (*typedapi.Response, error) {
		resp := typedapi.Text(strings.Repeat("x", 6000))
		return &resp, nil
	})
	client := apitest.New(t, app)

	gz := http.Header{"Accept-Encoding": []string{"gzip"}}

	res := client.Get("/small", gz)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, res.Header.Get("Content-Encoding"))

	res = client.Get("/large", gz)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
	assert.Contains(t, res.Header.Values("Vary"), "Accept-Encoding")
	assert.Less(t, len(res.Body), 6000)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	limiter, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 3, Window: time.Minute})
	require.NoError(t, err)

	app := typedapi.New(typedapi.WithRateLimit(limiter, nil))
	typedapi.Get(app, "/ping", func(ctx context.Context, req *typedapi.Void) (*typedapi.Response, error) {
		resp := typedapi.Text("pong")
		return &resp, nil
	})
	client := apitest.NewInProcess(t, app)

	for range 3 {
		res := client.Get("/ping")
		require.Equal(t, http.StatusOK, res.StatusCode)
	}

	res := client.Get("/ping")
	require.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("Retry-After"))
	assert.Equal(t, "3", res.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", res.Header.Get("X-RateLimit-Remaining"))
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var envelope map[string]string
	require.NoError(t, res.DecodeJSON(&envelope))
	assert.Equal(t, "Too many requests", envelope["error"])
}

type visitRequest struct {
	Session *session.Session
}

func TestSessions(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(0)
	t.Cleanup(store.Close)
	manager := session.New(session.WithStore(store))

	app := typedapi.New(typedapi.WithSessions(manager))
	typedapi.Get(app, "/visit", func(ctx context.Context, req *visitRequest) (*typedapi.Response, error) {
		count, _ := req.Session.GetInt("count")
		count++
		req.Session.Set("count", count)
		resp := typedapi.Text(fmt.Sprintf("visits=%d", count))
		return &resp, nil
	})
	client := apitest.NewInProcess(t, app)

	res := client.Get("/visit")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "visits=1", string(res.Body))

	cookie := res.Header.Get("Set-Cookie")
	require.NotEmpty(t, cookie)
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "Path=/")

	header := http.Header{"Cookie": []string{strings.Split(cookie, ";")[0]}}
	res = client.Get("/visit", header)
	assert.Equal(t, "visits=2", string(res.Body))

	res = client.Get("/visit", header)
	assert.Equal(t, "visits=3", string(res.Body))
}

func TestAuth(t *testing.T) {
	t.Parallel()

	validator := auth.NewStaticTokenValidator(map[string]*auth.Principal{
		"user-token":  {Subject: "user", Scopes: []string{"items.read"}},
		"admin-token": {Subject: "admin", Scopes: []string{"items.read", "items.write"}},
	})
	scheme := auth.Scheme{
		Name:      "bearer",
		Challenge: `Bearer realm="api"`,
		Extract:   auth.FromAuthorization("bearer"),
		Validate:  validator,
	}

	app := typedapi.New(typedapi.WithAuth(scheme, "items.write"))
	typedapi.Get(app, "/items", func(ctx context.Context, req *typedapi.Void) (*typedapi.Response, error) {
		resp := typedapi.Text("secret items")
		return &resp, nil
	})
	client := apitest.NewInProcess(t, app)

	t.Run("missing credentials", func(t *testing.T) {
		res := client.Get("/items")
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		assert.NotEmpty(t, res.Header.Get("WWW-Authenticate"))
	})

	t.Run("insufficient scope", func(t *testing.T) {
		res := client.Get("/items", http.Header{"Authorization": []string{"Bearer user-token"}})
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("sufficient scope", func(t *testing.T) {
		res := client.Get("/items", http.Header{"Authorization": []string{"Bearer admin-token"}})
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "secret items", string(res.Body))
	})
}

type notifyRequest struct {
	Tasks *tasks.Queue
}

func TestBackgroundTasks(t *testing.T) {
	t.Parallel()

	done := make(chan string, 2)
	app := typedapi.New()
	typedapi.Post(app, "/notify", func(ctx context.Context, req *notifyRequest) (*typedapi.Void, error) {
		req.Tasks.Add("send-email", func(context.Context) error {
			done <- "email"
			return nil
		})
		req.Tasks.Add("boom", func(context.Context) error {
			panic("task exploded")
		})
		req.Tasks.Add("audit", func(context.Context) error {
			done <- "audit"
			return nil
		})
		return nil, nil
	})
	client := apitest.NewInProcess(t, app)

	res := client.Post("/notify", nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	assert.Equal(t, "email", <-done)
	assert.Equal(t, "audit", <-done)
}

type auditRequest struct {
	Counter *counterDep `dep:""`
	Tasks   *tasks.Queue
}

func TestBackgroundTasksRunAfterScopeClose(t *testing.T) {
	t.Parallel()

	order := make(chan string, 2)
	app := typedapi.New()
	require.NoError(t, di.ProvideYielding(app.Container(), func(rc *di.Context) (*counterDep, di.Teardown, error) {
		teardown := func(context.Context) error {
			order <- "teardown"
			return nil
		}
		return &counterDep{n: &atomic.Int64{}}, teardown, nil
	}))
	typedapi.Post(app, "/audit", func(ctx context.Context, req *auditRequest) (*typedapi.Void, error) {
		req.Tasks.Add("record", func(context.Context) error {
			order <- "task"
			return nil
		})
		return nil, nil
	})
	client := apitest.NewInProcess(t, app)

	res := client.Post("/audit", nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	// The request scope is torn down before queued tasks are spawned.
	assert.Equal(t, "teardown", <-order)
	assert.Equal(t, "task", <-order)
}

func TestLifespan(t *testing.T) {
	t.Parallel()

	t.Run("hooks run in order and reverse order", func(t *testing.T) {
		t.Parallel()

		var order []string
		app := typedapi.New(
			typedapi.OnStart(func(context.Context) error { order = append(order, "start-a"); return nil }),
			typedapi.OnStart(func(context.Context) error { order = append(order, "start-b"); return nil }),
			typedapi.OnStop(func(context.Context) error { order = append(order, "stop-a"); return nil }),
			typedapi.OnStop(func(context.Context) error { order = append(order, "stop-b"); return nil }),
		)
		typedapi.Get(app, "/ok", func(ctx context.Context, req *typedapi.Void) (*typedapi.Void, error) {
			return nil, nil
		})

		client := apitest.New(t, app)
		assert.Equal(t, []string{"start-a", "start-b"}, order)

		client.Get("/ok")
		client.Shutdown()
		assert.Equal(t, []string{"start-a", "start-b", "stop-b", "stop-a"}, order)
	})

	t.Run("in-process startup is lazy", func(t *testing.T) {
		t.Parallel()

		var started atomic.Bool
		app := typedapi.New(
			typedapi.OnStart(func(context.Context) error { started.Store(true); return nil }),
		)
		typedapi.Get(app, "/ok", func(ctx context.Context, req *typedapi.Void) (*typedapi.Void, error) {
			return nil, nil
		})

		client := apitest.NewInProcess(t, app)
		assert.False(t, started.Load())

		client.Get("/ok")
		assert.True(t, started.Load())
	})

	t.Run("client disconnect during lazy startup does not poison the app", func(t *testing.T) {
		t.Parallel()

		var hookErr error
		var runs atomic.Int64
		app := typedapi.New(
			typedapi.OnStart(func(ctx context.Context) error {
				hookErr = ctx.Err()
				runs.Add(1)
				return nil
			}),
		)
		typedapi.Get(app, "/ok", func(ctx context.Context, req *typedapi.Void) (*typedapi.Void, error) {
			return nil, nil
		})

		client := apitest.NewInProcess(t, app)

		// The triggering request is already cancelled when it arrives.
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil).WithContext(ctx))

		require.NoError(t, hookErr)

		res := client.Get("/ok")
		assert.Equal(t, http.StatusNoContent, res.StatusCode)
		assert.Equal(t, int64(1), runs.Load())
	})

	t.Run("startup hook failure blocks requests", func(t *testing.T) {
		t.Parallel()

		app := typedapi.New(
			typedapi.OnStart(func(context.Context) error { return errors.New("no database") }),
		)
		typedapi.Get(app, "/ok", func(ctx context.Context, req *typedapi.Void) (*typedapi.Void, error) {
			return nil, nil
		})

		client := apitest.NewInProcess(t, app)
		res := client.Get("/ok")
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	})
}

func TestMount(t *testing.T) {
	t.Parallel()

	sub := typedapi.New(typedapi.WithInfo(typedapi.Info{Title: "Sub API", Version: "2.0.0"}))
	typedapi.Get(sub, "/widgets", func(ctx context.Context, req *typedapi.Void) (*typedapi.Response, error) {
		resp := typedapi.Text("widgets")
		return &resp, nil
	})

	app := newUserApp()
	app.Mount("/v2", sub)
	client := apitest.NewInProcess(t, app)

	res := client.Get("/v2/widgets")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "widgets", string(res.Body))

	res = client.Get("/v2/openapi.json")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var doc struct {
		Info typedapi.Info `json:"info"`
	}
	require.NoError(t, res.DecodeJSON(&doc))
	assert.Equal(t, "Sub API", doc.Info.Title)

	res = client.Get("/users/42")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
