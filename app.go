package typedapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/typedapi/typedapi/pkg/auth"
	"github.com/typedapi/typedapi/pkg/compress"
	"github.com/typedapi/typedapi/pkg/config"
	"github.com/typedapi/typedapi/pkg/di"
	"github.com/typedapi/typedapi/pkg/httpserver"
	"github.com/typedapi/typedapi/pkg/logger"
	"github.com/typedapi/typedapi/pkg/ratelimit"
	"github.com/typedapi/typedapi/pkg/requestid"
	"github.com/typedapi/typedapi/pkg/respcache"
	"github.com/typedapi/typedapi/pkg/schema"
	"github.com/typedapi/typedapi/pkg/session"
	"github.com/typedapi/typedapi/pkg/tasks"
)

// Hook is a lifespan callback. Start hook errors abort startup; stop hook
// errors are logged and swallowed.
type Hook func(ctx context.Context) error

type authConfig struct {
	scheme auth.Scheme
	scopes []string
}

type rateLimitConfig struct {
	limiter ratelimit.Limiter
	keyFunc ratelimit.KeyFunc
}

type cacheConfig struct {
	store respcache.Store
	cfg   respcache.Config
}

// App assembles routes, middleware, the DI container, and the schema
// registry into one http.Handler with an OpenAPI document.
type App struct {
	log       *slog.Logger
	container *di.Container
	schemas   *schema.Registry

	routes     []*routeInfo
	routesByOp map[string]*routeInfo
	mounts     []mountPoint

	authCfg     *authConfig
	rateCfg     *rateLimitConfig
	cacheCfg    *cacheConfig
	compressCfg *compress.Config
	sessions    *session.Manager
	runner      *tasks.Runner

	errHandler ErrorHandler

	info            Info
	servers         []Server
	securitySchemes map[string]SecurityScheme
	webhooks        []*routeInfo
	docsEnabled     bool

	startHooks []Hook
	stopHooks  []Hook

	freezeOnce  sync.Once
	freezeErr   error
	router      chi.Router
	startupOnce sync.Once
	startupErr  error
	started     chan struct{}
}

type mountPoint struct {
	prefix string
	sub    *App
}

// AppOption configures an App at construction time.
type AppOption func(*App)

// WithLogger sets the structured logger used by the app and its runner.
func WithLogger(log *slog.Logger) AppOption {
	return func(a *App) { a.log = log }
}

// WithContainer supplies a pre-populated DI container.
func WithContainer(c *di.Container) AppOption {
	return func(a *App) { a.container = c }
}

// WithInfo sets the document's info object.
func WithInfo(info Info) AppOption {
	return func(a *App) { a.info = info }
}

// WithServers sets the document's servers list.
func WithServers(servers ...Server) AppOption {
	return func(a *App) { a.servers = append(a.servers, servers...) }
}

// WithSecurityScheme documents a named security scheme. Routes reference
// it through WithSecurity.
func WithSecurityScheme(name string, scheme SecurityScheme) AppOption {
	return func(a *App) {
		if a.securitySchemes == nil {
			a.securitySchemes = make(map[string]SecurityScheme)
		}
		a.securitySchemes[name] = scheme
	}
}

// WithAuth enforces the scheme on every route, requiring the given scopes.
func WithAuth(scheme auth.Scheme, requiredScopes ...string) AppOption {
	return func(a *App) { a.authCfg = &authConfig{scheme: scheme, scopes: requiredScopes} }
}

// WithRateLimit applies fixed-window rate limiting keyed by keyFunc, or by
// client IP when keyFunc is nil.
func WithRateLimit(limiter ratelimit.Limiter, keyFunc ratelimit.KeyFunc) AppOption {
	return func(a *App) {
		if keyFunc == nil {
			keyFunc = ratelimit.KeyByIP
		}
		a.rateCfg = &rateLimitConfig{limiter: limiter, keyFunc: keyFunc}
	}
}

// WithResponseCache caches eligible GET responses in the store.
func WithResponseCache(store respcache.Store, cfg respcache.Config) AppOption {
	return func(a *App) { a.cacheCfg = &cacheConfig{store: store, cfg: cfg} }
}

// WithCompression enables gzip encoding of eligible responses.
func WithCompression(cfg compress.Config) AppOption {
	return func(a *App) { a.compressCfg = &cfg }
}

// WithSessions enables server-side sessions through the manager.
func WithSessions(m *session.Manager) AppOption {
	return func(a *App) { a.sessions = m }
}

// WithErrorHandler replaces the default error envelope writer.
func WithErrorHandler(h ErrorHandler) AppOption {
	return func(a *App) {
		if h != nil {
			a.errHandler = h
		}
	}
}

// WithoutDocs disables the /openapi.json, /docs, and /redoc endpoints.
func WithoutDocs() AppOption {
	return func(a *App) { a.docsEnabled = false }
}

// OnStart registers a startup hook. Hooks run once, in registration order,
// before the first request is served.
func OnStart(h Hook) AppOption {
	return func(a *App) { a.startHooks = append(a.startHooks, h) }
}

// OnStop registers a shutdown hook. Hooks run in reverse registration
// order; errors are logged, not propagated.
func OnStop(h Hook) AppOption {
	return func(a *App) { a.stopHooks = append(a.stopHooks, h) }
}

// New creates an App.
func New(opts ...AppOption) *App {
	a := &App{
		container:   di.NewContainer(),
		schemas:     schema.NewRegistry(schema.WithFieldFilter(isInjectedField)),
		routesByOp:  make(map[string]*routeInfo),
		errHandler:  DefaultErrorHandler,
		info:        Info{Title: "API", Version: "0.1.0"},
		docsEnabled: true,
		started:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.container == nil {
		a.container = di.NewContainer()
	}
	a.runner = tasks.NewRunner(a.log)
	return a
}

// Container exposes the app's DI container for provider registration.
func (a *App) Container() *di.Container {
	return a.container
}

// Schemas exposes the schema registry, for registering models that are not
// reachable from any route's request or response type.
func (a *App) Schemas() *schema.Registry {
	return a.schemas
}

func (a *App) addRoute(ri *routeInfo) {
	if ri.operationID == "" {
		ri.operationID = ri.defaultOperationID()
	}
	a.routes = append(a.routes, ri)
}

func (a *App) errors(w http.ResponseWriter, r *http.Request, err error) {
	a.errHandler(w, r, err)
}

// Mount nests a sub-application under a path prefix. The sub-app keeps its
// own middleware stack and serves its own document at prefix/openapi.json.
func (a *App) Mount(prefix string, sub *App) {
	a.mounts = append(a.mounts, mountPoint{prefix: prefix, sub: sub})
}

// Webhook documents an out-of-band request the service initiates, under
// the document's top-level webhooks section. The request type describes
// the webhook payload.
func Webhook[Req any](a *App, name, method string, opts ...RouteOption) {
	ri := &routeInfo{
		method:        method,
		pattern:       "/" + name,
		operationID:   name,
		status:        http.StatusOK,
		responseClass: classJSON,
	}
	for _, opt := range opts {
		opt(ri)
	}
	ri.reqType = typeOf[Req]()
	ri.hasBody = true
	registerBodySchema(a, ri.reqType)
	a.webhooks = append(a.webhooks, ri)
}

// Freeze finalizes the app: routes are deduplicated, callback references
// resolved, DI declarations verified, and the schema registry locked.
// ServeHTTP calls it once implicitly; calling it early surfaces
// configuration errors at a chosen point.
func (a *App) Freeze() error {
	a.freezeOnce.Do(func() {
		a.freezeErr = a.freeze()
	})
	return a.freezeErr
}

func (a *App) freeze() error {
	// Last registration wins per (method, pattern), matching the
	// container's provider semantics.
	seen := make(map[string]int)
	deduped := a.routes[:0]
	for _, ri := range a.routes {
		key := ri.method + " " + ri.pattern
		if idx, ok := seen[key]; ok {
			deduped[idx] = ri
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, ri)
	}
	a.routes = deduped

	for _, ri := range a.routes {
		if _, dup := a.routesByOp[ri.operationID]; dup {
			return fmt.Errorf("duplicate operation id %q", ri.operationID)
		}
		a.routesByOp[ri.operationID] = ri
	}

	var required []reflect.Type
	for _, ri := range a.routes {
		for i := range ri.callbacks {
			cb := &ri.callbacks[i]
			target, ok := a.routesByOp[cb.Target]
			if !ok {
				return fmt.Errorf("route %s %s: callback %q references unknown operation %q", ri.method, ri.pattern, cb.Name, cb.Target)
			}
			cb.target = target
		}
		required = append(required, ri.deps...)
	}

	if err := a.container.Validate(required...); err != nil {
		return fmt.Errorf("dependency validation: %w", err)
	}
	a.container.Freeze()
	a.schemas.Freeze()

	for _, m := range a.mounts {
		if err := m.sub.Freeze(); err != nil {
			return fmt.Errorf("mount %s: %w", m.prefix, err)
		}
	}

	a.router = a.buildRouter()
	return nil
}

func (a *App) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(a.lifespanGate)
	if a.authCfg != nil {
		r.Use(auth.Middleware(a.authCfg.scheme, a.authCfg.scopes...))
	}
	if a.rateCfg != nil {
		r.Use(ratelimit.Middleware(a.rateCfg.limiter, a.rateCfg.keyFunc))
	}
	if a.cacheCfg != nil {
		r.Use(respcache.Middleware(a.cacheCfg.store, a.cacheCfg.cfg))
	}
	if a.compressCfg != nil {
		r.Use(compress.Middleware(*a.compressCfg))
	}
	if a.sessions != nil {
		r.Use(session.Middleware(a.sessions))
	}
	// Tasks wrap DI so the request scope is torn down before queued
	// tasks are handed to the runner.
	r.Use(tasks.Middleware(a.runner))
	r.Use(di.Middleware(a.container))

	for _, ri := range a.routes {
		method := ri.method
		switch method {
		case MethodWS, MethodSSE:
			method = http.MethodGet
		}
		r.Method(method, ri.pattern, ri.handler)
	}

	if a.docsEnabled {
		a.mountDocs(r)
	}

	for _, m := range a.mounts {
		r.Mount(m.prefix, m.sub)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorEnvelope(w, http.StatusNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorEnvelope(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	return r
}

// lifespanGate blocks requests until startup hooks have completed. The
// first request triggers startup when nothing else has.
func (a *App) lifespanGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Startup hooks outlive the triggering request; a client that
		// disconnects mid-startup must not poison the app.
		if err := a.Startup(context.WithoutCancel(r.Context())); err != nil {
			a.log.ErrorContext(r.Context(), "Startup failed", logger.Error(err))
			writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error", nil)
			return
		}
		select {
		case <-a.started:
		case <-r.Context().Done():
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Startup runs start hooks once, in registration order, and materializes
// application-scoped providers. Safe for concurrent callers; all of them
// observe the first run's result.
func (a *App) Startup(ctx context.Context) error {
	a.startupOnce.Do(func() {
		defer close(a.started)
		for _, h := range a.startHooks {
			if err := h(ctx); err != nil {
				a.startupErr = err
				return
			}
		}
		a.startupErr = a.container.Startup(ctx)
	})
	return a.startupErr
}

// Shutdown runs stop hooks in reverse order, tears down application-scoped
// values, and waits for in-flight background tasks. Hook errors are
// logged, not returned.
func (a *App) Shutdown(ctx context.Context) error {
	for i := len(a.stopHooks) - 1; i >= 0; i-- {
		if err := a.stopHooks[i](ctx); err != nil {
			a.log.ErrorContext(ctx, "Stop hook failed", logger.Error(err))
		}
	}
	if err := a.container.Shutdown(ctx); err != nil {
		a.log.ErrorContext(ctx, "Container shutdown failed", logger.Error(err))
	}
	a.runner.Wait()
	for _, m := range a.mounts {
		_ = m.sub.Shutdown(ctx)
	}
	return nil
}

// ServeHTTP freezes the app on first use and dispatches into the router.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := a.Freeze(); err != nil {
		a.log.ErrorContext(r.Context(), "App freeze failed", logger.Error(err))
		writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	a.router.ServeHTTP(w, r)
}

// Serve runs the app on a graceful HTTP server. The bind address comes
// from HOST and PORT; startup hooks run before the listener opens and stop
// hooks after it drains.
func (a *App) Serve(ctx context.Context) error {
	if err := a.Freeze(); err != nil {
		return err
	}

	var cfg httpserver.Config
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load server config: %w", err)
	}

	srv := httpserver.NewFromConfig(cfg,
		httpserver.WithLogger(a.log),
		httpserver.OnStart(a.Startup),
		httpserver.OnStop(a.Shutdown),
	)
	return srv.Run(ctx, a)
}
