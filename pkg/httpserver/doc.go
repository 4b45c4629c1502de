// Package httpserver wraps net/http with graceful shutdown, lifecycle hooks,
// configurable timeouts, and health-check handlers.
//
// A Server is built with New or NewFromConfig plus functional options. Run
// blocks until the context is cancelled or an interrupt/TERM signal arrives,
// then shuts the listener down within the configured deadline. OnStart hooks
// run before the listener opens and may abort startup; OnStop hooks run in
// reverse order after the listener has drained, so paired resources tear down
// in the opposite order they came up.
//
//	srv := httpserver.New(
//		httpserver.WithAddr(":8080"),
//		httpserver.OnStart(func(ctx context.Context) error { return db.Ping(ctx) }),
//		httpserver.OnStop(func(ctx context.Context) error { return db.Close() }),
//	)
//	if err := srv.Run(ctx, mux); err != nil {
//		slog.Error("server stopped", "err", err)
//	}
//
// Listen errors are wrapped with ErrStart and shutdown errors with
// ErrShutdown; inspect them with errors.Is.
//
// NewFromConfig reads HOST and PORT from the environment through pkg/config,
// so deployments can override the bind address without code changes.
package httpserver
