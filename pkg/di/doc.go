// Package di is a small type-keyed dependency injection container with
// scoped lifetimes.
//
// Providers are registered per target type; the last registration for a
// type wins. Application-scoped values are built once, shared across
// requests behind a read-mostly lock, and torn down at shutdown in reverse
// construction order. Request-scoped values are built lazily inside a
// per-request Context and torn down LIFO when the Context closes.
//
//	di.Provide(c, func(rc *di.Context) (*Mailer, error) {
//		cfg, err := di.Resolve[Config](rc)
//		if err != nil {
//			return nil, err
//		}
//		return NewMailer(cfg), nil
//	}, di.WithScope(di.ScopeApplication), di.WithDeps(di.Dep[Config]()))
//
// Cycles are caught two ways: statically at Validate time over declared
// dependencies, and dynamically at resolution time through the visited
// chain, so an undeclared cycle still fails with ErrCycle instead of
// hanging.
package di
