// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// The package standardises structured logging across the framework by
// exposing a single factory, New, that creates a *slog.Logger configured by
// a set of Option functions:
//
//	log := logger.New(
//		logger.WithFormat(logger.FormatJSON),
//		logger.WithLevel(slog.LevelInfo),
//		logger.WithContextValue("request_id", requestid.ContextKey),
//	)
//
// New builds the concrete slog handler (text or JSON) and wraps it with a
// context-aware handler that runs registered ContextExtractor callbacks
// before delegating, so request-scoped attributes such as request ids are
// attached to every record automatically.
package logger
