package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor derives log attributes from a context. Returning an
// empty slice adds nothing to the record.
type ContextExtractor func(ctx context.Context) []slog.Attr

// ctxHandler injects context-derived attributes into each record before
// delegating to the wrapped handler. Extractors run per log call, so
// request-scoped values stay fresh rather than being captured once.
type ctxHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

// newCtxHandler wraps next, or returns it unchanged when there is
// nothing to extract.
func newCtxHandler(next slog.Handler, extractors []ContextExtractor) slog.Handler {
	if len(extractors) == 0 {
		return next
	}
	return &ctxHandler{next: next, extractors: extractors}
}

func (h *ctxHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ctxHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, extract := range h.extractors {
		rec.AddAttrs(extract(ctx)...)
	}
	return h.next.Handle(ctx, rec)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
