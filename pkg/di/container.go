package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Scope controls the lifetime of a provided value.
type Scope int

const (
	// ScopeRequest values are constructed lazily per request and torn down
	// when the request's resolution context closes.
	ScopeRequest Scope = iota

	// ScopeApplication values are constructed once during startup, shared
	// across requests, and torn down at shutdown in reverse order.
	ScopeApplication
)

func (s Scope) String() string {
	if s == ScopeApplication {
		return "application"
	}
	return "request"
}

// Teardown releases a provided value. Teardowns run in LIFO order within
// their scope, each exactly once.
type Teardown func(ctx context.Context) error

type provider struct {
	typ     reflect.Type
	scope   Scope
	deps    []reflect.Type
	factory func(rc *Context) (any, Teardown, error)
}

// Option configures a provider registration.
type Option func(*provider)

// WithScope sets the provider's lifetime scope.
func WithScope(s Scope) Option {
	return func(p *provider) { p.scope = s }
}

// WithDeps declares the provider's dependency types so cycles and scope
// violations surface at validation time instead of mid-request.
func WithDeps(deps ...reflect.Type) Option {
	return func(p *provider) { p.deps = deps }
}

// Dep returns the dependency key for T, for use with WithDeps.
func Dep[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Container holds providers keyed by target type. Registration happens
// during application construction; Freeze makes the provider set immutable
// before the first request. Application-scoped values live in the container
// behind a read-mostly lock.
type Container struct {
	mu        sync.RWMutex
	providers map[reflect.Type]*provider
	order     []reflect.Type
	frozen    bool

	appMu        sync.RWMutex
	appBuildMu   sync.Mutex
	appValues    map[reflect.Type]any
	appTeardowns []Teardown
}

func NewContainer() *Container {
	return &Container{
		providers: make(map[reflect.Type]*provider),
		appValues: make(map[reflect.Type]any),
	}
}

// Provide registers a factory for T. At most one provider per type is
// active; a later registration replaces an earlier one.
func Provide[T any](c *Container, factory func(rc *Context) (T, error), opts ...Option) error {
	return ProvideYielding(c, func(rc *Context) (T, Teardown, error) {
		v, err := factory(rc)
		return v, nil, err
	}, opts...)
}

// ProvideYielding registers a factory that produces a value together with a
// teardown. The teardown runs exactly once when the owning scope closes.
func ProvideYielding[T any](c *Container, factory func(rc *Context) (T, Teardown, error), opts ...Option) error {
	p := &provider{
		typ: reflect.TypeFor[T](),
		factory: func(rc *Context) (any, Teardown, error) {
			return factory(rc)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return c.add(p)
}

// ProvideValue registers an already-constructed application-scoped value.
func ProvideValue[T any](c *Container, value T) error {
	return Provide(c, func(*Context) (T, error) {
		return value, nil
	}, WithScope(ScopeApplication))
}

func (c *Container) add(p *provider) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return fmt.Errorf("%w: cannot register %s", ErrFrozen, p.typ)
	}
	if _, exists := c.providers[p.typ]; !exists {
		c.order = append(c.order, p.typ)
	}
	c.providers[p.typ] = p
	return nil
}

// Freeze makes the provider set immutable.
func (c *Container) Freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}

// HasProvider reports whether a provider covers t.
func (c *Container) HasProvider(t reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.providers[t]
	return ok
}

func (c *Container) provider(t reflect.Type) (*provider, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.providers[t]
	return p, ok
}

// Validate checks the provider graph statically using declared
// dependencies: every declared dep must have a provider, application-scoped
// providers may not depend on request-scoped ones, and declared edges must
// be acyclic. The required types, if given, must all be resolvable.
func (c *Container) Validate(required ...reflect.Type) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, t := range required {
		if _, ok := c.providers[t]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingProvider, t)
		}
	}

	for _, t := range c.order {
		p := c.providers[t]
		for _, dep := range p.deps {
			dp, ok := c.providers[dep]
			if !ok {
				return fmt.Errorf("%w: %s (required by %s)", ErrMissingProvider, dep, t)
			}
			if p.scope == ScopeApplication && dp.scope == ScopeRequest {
				return fmt.Errorf("%w: %s depends on %s", ErrScopeViolation, t, dep)
			}
		}
	}

	state := make(map[reflect.Type]int)
	var visit func(t reflect.Type, chain []reflect.Type) error
	visit = func(t reflect.Type, chain []reflect.Type) error {
		switch state[t] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("%w: %s", ErrCycle, chainString(append(chain, t)))
		}
		state[t] = 1
		if p, ok := c.providers[t]; ok {
			for _, dep := range p.deps {
				if err := visit(dep, append(chain, t)); err != nil {
					return err
				}
			}
		}
		state[t] = 2
		return nil
	}
	for _, t := range c.order {
		if err := visit(t, nil); err != nil {
			return err
		}
	}
	return nil
}

// Startup eagerly constructs every application-scoped value in registration
// order. It is called from the server's startup hook.
func (c *Container) Startup(ctx context.Context) error {
	c.mu.RLock()
	order := make([]reflect.Type, len(c.order))
	copy(order, c.order)
	c.mu.RUnlock()

	rc := c.appContext(ctx)
	for _, t := range order {
		p, ok := c.provider(t)
		if !ok || p.scope != ScopeApplication {
			continue
		}
		if _, err := rc.Resolve(t); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown runs application-scope teardowns in reverse construction order.
func (c *Container) Shutdown(ctx context.Context) error {
	c.appMu.Lock()
	teardowns := c.appTeardowns
	c.appTeardowns = nil
	c.appValues = make(map[reflect.Type]any)
	c.appMu.Unlock()

	var firstErr error
	for i := len(teardowns) - 1; i >= 0; i-- {
		if err := teardowns[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// resolveApp returns the shared application-scoped value for t,
// constructing it on first use when startup did not run. Construction is
// single-flighted behind appBuildMu; a factory resolving its own
// application-scoped deps re-enters with the lock already held.
func (c *Container) resolveApp(t reflect.Type, rc *Context) (any, error) {
	c.appMu.RLock()
	v, ok := c.appValues[t]
	c.appMu.RUnlock()
	if ok {
		return v, nil
	}

	if !rc.appLocked {
		c.appBuildMu.Lock()
		defer c.appBuildMu.Unlock()

		c.appMu.RLock()
		v, ok = c.appValues[t]
		c.appMu.RUnlock()
		if ok {
			return v, nil
		}
	}

	p, ok := c.provider(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingProvider, t)
	}

	// Factories of application-scoped providers resolve through an
	// application-only view so they cannot reach request state.
	appRC := c.appContext(rc.ctx)
	appRC.visiting = append(appRC.visiting, rc.visiting...)
	appRC.appLocked = true

	v, teardown, err := p.factory(appRC)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFactory, t, err)
	}

	c.appMu.Lock()
	c.appValues[t] = v
	if teardown != nil {
		c.appTeardowns = append(c.appTeardowns, teardown)
	}
	c.appMu.Unlock()
	return v, nil
}

func chainString(chain []reflect.Type) string {
	s := ""
	for i, t := range chain {
		if i > 0 {
			s += " -> "
		}
		s += t.String()
	}
	return s
}
