package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Context is a resolution context: a typed bag of already-resolved values,
// the pending teardowns in reverse production order, and a visited chain
// for cycle detection. One Context serves one request; application-scoped
// values resolve through it to the shared container store.
type Context struct {
	ctx       context.Context
	container *Container
	appOnly   bool
	appLocked bool

	mu        sync.Mutex
	values    map[reflect.Type]any
	teardowns []Teardown
	visiting  []reflect.Type
	closed    bool
}

// NewRequestContext opens a resolution context for one request. The caller
// closes it after response emission.
func (c *Container) NewRequestContext(ctx context.Context) *Context {
	return &Context{
		ctx:       ctx,
		container: c,
		values:    make(map[reflect.Type]any),
	}
}

func (c *Container) appContext(ctx context.Context) *Context {
	return &Context{
		ctx:       ctx,
		container: c,
		appOnly:   true,
		values:    make(map[reflect.Type]any),
	}
}

// Context returns the request context resolution runs under.
func (rc *Context) Context() context.Context {
	return rc.ctx
}

// Resolve returns the typed value for T, constructing it through its
// provider on first use.
func Resolve[T any](rc *Context) (T, error) {
	v, err := rc.Resolve(reflect.TypeFor[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// MustResolve is Resolve that panics on error, for wiring known-good at
// startup.
func MustResolve[T any](rc *Context) T {
	v, err := Resolve[T](rc)
	if err != nil {
		panic(err)
	}
	return v
}

// Supply seeds an already-constructed request-scoped value, bypassing any
// provider for T.
func Supply[T any](rc *Context, value T) {
	rc.mu.Lock()
	rc.values[reflect.TypeFor[T]()] = value
	rc.mu.Unlock()
}

// Resolve returns the value for t, constructing it on first use and
// memoizing per scope.
func (rc *Context) Resolve(t reflect.Type) (any, error) {
	rc.mu.Lock()
	if rc.closed {
		rc.mu.Unlock()
		return nil, fmt.Errorf("%w: resolving %s", ErrClosed, t)
	}
	if v, ok := rc.values[t]; ok {
		rc.mu.Unlock()
		return v, nil
	}
	for _, seen := range rc.visiting {
		if seen == t {
			chain := append(append([]reflect.Type{}, rc.visiting...), t)
			rc.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrCycle, chainString(chain))
		}
	}
	rc.visiting = append(rc.visiting, t)
	rc.mu.Unlock()

	defer func() {
		rc.mu.Lock()
		rc.visiting = rc.visiting[:len(rc.visiting)-1]
		rc.mu.Unlock()
	}()

	p, ok := rc.container.provider(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingProvider, t)
	}

	if p.scope == ScopeApplication {
		return rc.container.resolveApp(t, rc)
	}

	if rc.appOnly {
		return nil, fmt.Errorf("%w: resolving %s", ErrScopeViolation, t)
	}

	v, teardown, err := p.factory(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFactory, t, err)
	}

	rc.mu.Lock()
	rc.values[t] = v
	if teardown != nil {
		rc.teardowns = append(rc.teardowns, teardown)
	}
	rc.mu.Unlock()
	return v, nil
}

// Close runs the context's teardowns in LIFO order, exactly once. Further
// resolution through the context fails with ErrClosed.
func (rc *Context) Close(ctx context.Context) error {
	rc.mu.Lock()
	if rc.closed {
		rc.mu.Unlock()
		return nil
	}
	rc.closed = true
	teardowns := rc.teardowns
	rc.teardowns = nil
	rc.mu.Unlock()

	var firstErr error
	for i := len(teardowns) - 1; i >= 0; i-- {
		if err := teardowns[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
