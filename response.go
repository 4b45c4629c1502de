package typedapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

// Response renders itself to an http.ResponseWriter. Handler return values
// implementing Response take over emission; everything else is serialized
// as JSON with the route's declared status.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// HeaderSetter lets a handler return value contribute response headers
// before the body is written.
type HeaderSetter interface {
	SetHeaders(h http.Header)
}

// CookieSetter lets a handler return value set response cookies.
type CookieSetter interface {
	SetCookies() []*http.Cookie
}

// StatusCoder overrides the route's declared status for one response.
type StatusCoder interface {
	StatusCode() int
}

// Void marks a route with no request parameters or no response body.
// A Void response emits 204 No Content.
type Void struct{}

// jsonResponse serializes a value as JSON.
type jsonResponse struct {
	status int
	value  any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.value)
}

// JSON creates a JSON response with an optional status override.
func JSON(v any, status ...int) Response {
	s := http.StatusOK
	if len(status) > 0 {
		s = status[0]
	}
	return jsonResponse{status: s, value: v}
}

type textResponse struct {
	status int
	body   string
}

func (t textResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(t.status)
	_, err := io.WriteString(w, t.body)
	return err
}

// Text creates a plain-text response with an optional status override.
func Text(body string, status ...int) Response {
	s := http.StatusOK
	if len(status) > 0 {
		s = status[0]
	}
	return textResponse{status: s, body: body}
}

type htmlResponse struct {
	status    int
	body      string
	component templ.Component
}

func (h htmlResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(h.status)
	if h.component != nil {
		return h.component.Render(r.Context(), w)
	}
	_, err := io.WriteString(w, h.body)
	return err
}

// HTML creates an HTML response from a string or a templ.Component.
func HTML(v any, status ...int) Response {
	s := http.StatusOK
	if len(status) > 0 {
		s = status[0]
	}
	switch body := v.(type) {
	case string:
		return htmlResponse{status: s, body: body}
	case templ.Component:
		return htmlResponse{status: s, component: body}
	default:
		return htmlResponse{status: s, body: fmt.Sprint(v)}
	}
}

type redirectResponse struct {
	status int
	url    string
}

func (rr redirectResponse) Render(w http.ResponseWriter, r *http.Request) error {
	http.Redirect(w, r, rr.url, rr.status)
	return nil
}

// Redirect creates a redirect response. Status defaults to 302 Found.
func Redirect(url string, status ...int) Response {
	s := http.StatusFound
	if len(status) > 0 {
		s = status[0]
	}
	return redirectResponse{status: s, url: url}
}

type emptyResponse struct {
	status int
}

func (e emptyResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

// Empty creates a bodyless 204 No Content response.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}

// EmptyWithStatus creates a bodyless response with a custom status code.
func EmptyWithStatus(status int) Response {
	return emptyResponse{status: status}
}

type streamResponse struct {
	status      int
	contentType string
	fn          func(w io.Writer) error
}

func (s streamResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if s.contentType != "" {
		w.Header().Set("Content-Type", s.contentType)
	}
	w.WriteHeader(s.status)
	fw := &flushWriter{w: w}
	return s.fn(fw)
}

// Stream creates a chunked streaming response. The handler controls the
// media type; each write is flushed to the client.
func Stream(contentType string, fn func(w io.Writer) error, status ...int) Response {
	s := http.StatusOK
	if len(status) > 0 {
		s = status[0]
	}
	return streamResponse{status: s, contentType: contentType, fn: fn}
}

type flushWriter struct {
	w http.ResponseWriter
}

func (f *flushWriter) Write(b []byte) (int, error) {
	n, err := f.w.Write(b)
	if fl, ok := f.w.(http.Flusher); ok {
		fl.Flush()
	}
	return n, err
}
