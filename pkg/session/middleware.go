package session

import (
	"net/http"
)

// Middleware loads the request's session, injects it into the request
// context, and persists it after the handler when it was written to.
// Persisting and the Set-Cookie happen just before the response headers
// flush, so a handler can write session state at any point before its
// first body write.
func Middleware(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := m.Load(r.Context(), r)
			r = r.WithContext(WithContext(r.Context(), sess))

			sw := &sessionWriter{
				ResponseWriter: w,
				before: func() {
					if !sess.Dirty() {
						return
					}
					if err := m.Save(r.Context(), sess); err != nil {
						return
					}
					m.WriteCookie(w, r, sess)
				},
			}

			next.ServeHTTP(sw, r)

			// Handlers that never write still get their session saved.
			if !sw.wroteHeader {
				sw.runBefore()
			}
		})
	}
}

type sessionWriter struct {
	http.ResponseWriter
	before      func()
	beforeRan   bool
	wroteHeader bool
}

func (w *sessionWriter) runBefore() {
	if !w.beforeRan {
		w.beforeRan = true
		w.before()
	}
}

func (w *sessionWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.runBefore()
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap supports http.ResponseController.
func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
