package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/typedapi/typedapi"
)

// Client drives an App in tests. New binds the app to an ephemeral port
// and runs startup hooks eagerly; NewInProcess dispatches without a socket
// and starts up lazily on the first request. Both modes share the app's
// full middleware pipeline.
type Client struct {
	t   testing.TB
	app *typedapi.App
	srv *httptest.Server

	shutdownOnce sync.Once
}

// New creates a socket-bound client on port 0. Startup hooks run before
// it returns; the server and the app shut down in t.Cleanup unless
// Shutdown is called earlier.
func New(t testing.TB, app *typedapi.App) *Client {
	t.Helper()

	if err := app.Freeze(); err != nil {
		t.Fatalf("app freeze: %v", err)
	}
	if err := app.Startup(context.Background()); err != nil {
		t.Fatalf("app startup: %v", err)
	}

	c := &Client{t: t, app: app, srv: httptest.NewServer(app)}
	t.Cleanup(c.Shutdown)
	return c
}

// NewInProcess creates a client that invokes the handler directly.
// Startup runs lazily when the first request passes the lifespan gate.
func NewInProcess(t testing.TB, app *typedapi.App) *Client {
	t.Helper()

	if err := app.Freeze(); err != nil {
		t.Fatalf("app freeze: %v", err)
	}

	c := &Client{t: t, app: app}
	t.Cleanup(c.Shutdown)
	return c
}

// BaseURL returns the server's base URL, or empty for in-process clients.
func (c *Client) BaseURL() string {
	if c.srv == nil {
		return ""
	}
	return c.srv.URL
}

// Shutdown closes the server, runs stop hooks, and waits for background
// tasks. Safe for repeated calls.
func (c *Client) Shutdown() {
	c.shutdownOnce.Do(func() {
		if c.srv != nil {
			c.srv.Close()
		}
		_ = c.app.Shutdown(context.Background())
	})
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Decode unmarshals a response body into T, failing the test on error.
func Decode[T any](t testing.TB, res *Response) T {
	t.Helper()
	var v T
	if err := res.DecodeJSON(&v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return v
}

// Get performs a GET request.
func (c *Client) Get(path string, header ...http.Header) *Response {
	return c.Do(http.MethodGet, path, nil, header...)
}

// Post performs a POST request with a JSON-encoded body.
func (c *Client) Post(path string, body any, header ...http.Header) *Response {
	return c.jsonRequest(http.MethodPost, path, body, header...)
}

// Put performs a PUT request with a JSON-encoded body.
func (c *Client) Put(path string, body any, header ...http.Header) *Response {
	return c.jsonRequest(http.MethodPut, path, body, header...)
}

// Patch performs a PATCH request with a JSON-encoded body.
func (c *Client) Patch(path string, body any, header ...http.Header) *Response {
	return c.jsonRequest(http.MethodPatch, path, body, header...)
}

// Delete performs a DELETE request.
func (c *Client) Delete(path string, header ...http.Header) *Response {
	return c.Do(http.MethodDelete, path, nil, header...)
}

// Head performs a HEAD request.
func (c *Client) Head(path string, header ...http.Header) *Response {
	return c.Do(http.MethodHead, path, nil, header...)
}

func (c *Client) jsonRequest(method, path string, body any, header ...http.Header) *Response {
	c.t.Helper()

	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("encode request body: %v", err)
		}
		buf = bytes.NewReader(data)
	}
	h := mergeHeaders(header)
	if body != nil && h.Get("Content-Type") == "" {
		h.Set("Content-Type", "application/json")
	}
	return c.Do(method, path, buf, h)
}

// Do performs an arbitrary request against the app.
func (c *Client) Do(method, path string, body io.Reader, header ...http.Header) *Response {
	c.t.Helper()

	h := mergeHeaders(header)
	if c.srv != nil {
		return c.doSocket(method, path, body, h)
	}
	return c.doInProcess(method, path, body, h)
}

func (c *Client) doSocket(method, path string, body io.Reader, header http.Header) *Response {
	c.t.Helper()

	req, err := http.NewRequest(method, c.srv.URL+path, body)
	if err != nil {
		c.t.Fatalf("build request: %v", err)
	}
	copyHeader(req.Header, header)

	resp, err := c.srv.Client().Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read response body: %v", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}
}

func (c *Client) doInProcess(method, path string, body io.Reader, header http.Header) *Response {
	c.t.Helper()

	req := httptest.NewRequest(method, path, body)
	copyHeader(req.Header, header)

	rec := httptest.NewRecorder()
	c.app.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: data}
}

func mergeHeaders(headers []http.Header) http.Header {
	merged := make(http.Header)
	for _, h := range headers {
		copyHeader(merged, h)
	}
	return merged
}

func copyHeader(dst, src http.Header) {
	for name, values := range src {
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}
