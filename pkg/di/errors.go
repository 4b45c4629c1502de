package di

import "errors"

var (
	// ErrMissingProvider is returned when no provider covers the requested
	// type.
	ErrMissingProvider = errors.New("di: no provider for type")

	// ErrCycle is returned when resolution re-enters a type already being
	// constructed. The error message carries the dependency chain.
	ErrCycle = errors.New("di: dependency cycle")

	// ErrFactory wraps errors returned by provider factories.
	ErrFactory = errors.New("di: factory failed")

	// ErrScopeViolation is returned when an application-scoped provider
	// depends on a request-scoped one.
	ErrScopeViolation = errors.New("di: application-scoped provider depends on request scope")

	// ErrFrozen is returned when registering on a frozen container.
	ErrFrozen = errors.New("di: container is frozen")

	// ErrClosed is returned when resolving through a closed context.
	ErrClosed = errors.New("di: resolution context is closed")
)
