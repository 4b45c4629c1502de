package requestid_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/typedapi/typedapi/pkg/requestid"
)

func TestMiddleware_GeneratesID(t *testing.T) {
	var seen string
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(requestid.Header))
}

func TestMiddleware_AcceptsValidInboundID(t *testing.T) {
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(requestid.Header, "client-id-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, "client-id-42", w.Header().Get(requestid.Header))
}

func TestLoggerExtractor(t *testing.T) {
	extract := requestid.LoggerExtractor()

	attrs := extract(requestid.WithContext(context.Background(), "req-7"))
	assert.Equal(t, []slog.Attr{slog.String("request_id", "req-7")}, attrs)

	assert.Empty(t, extract(context.Background()))
}

func TestMiddleware_RejectsMalformedID(t *testing.T) {
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(requestid.Header, "bad id with spaces")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.NotEqual(t, "bad id with spaces", w.Header().Get(requestid.Header))
	assert.NotEmpty(t, w.Header().Get(requestid.Header))
}
