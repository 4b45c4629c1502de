package respcache

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Header is set on every response passing through the middleware.
const Header = "X-Cache"

const (
	verdictHit    = "HIT"
	verdictMiss   = "MISS"
	verdictBypass = "BYPASS"
)

// hop-by-hop headers are never stored or replayed.
var hopByHop = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

// entry is the persisted form of a cached response.
type entry struct {
	Status   int                 `json:"status"`
	Header   map[string][]string `json:"header"`
	Body     []byte              `json:"body"`
	StoredAt time.Time           `json:"stored_at"`
	Vary     []string            `json:"vary,omitempty"`
}

// Config controls the response cache.
type Config struct {
	TTL         time.Duration `env:"RESPONSE_CACHE_TTL" envDefault:"60s"`
	MaxBodySize int64         `env:"RESPONSE_CACHE_MAX_BODY_SIZE" envDefault:"1048576"`
}

func DefaultConfig() Config {
	return Config{TTL: time.Minute, MaxBodySize: 1 << 20}
}

// Middleware caches successful GET responses.
//
// A request is served from cache only when all of: the method is GET, no
// Authorization header is present, a stored entry exists whose Vary
// headers match, and the entry is younger than the TTL. Stored entries
// must be 2xx and carry neither no-store nor private in Cache-Control.
// Event streams are never cached. Every response carries X-Cache with
// HIT, MISS or BYPASS.
func Middleware(store Store, cfg Config) func(http.Handler) http.Handler {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.Header.Get("Authorization") != "" {
				w.Header().Set(Header, verdictBypass)
				next.ServeHTTP(w, r)
				return
			}

			base := baseKey(r)

			if e, ok := lookup(r, store, base); ok {
				if time.Since(e.StoredAt) <= cfg.TTL {
					replay(w, e)
					return
				}
			}

			rec := &recorder{ResponseWriter: w, maxBody: cfg.MaxBodySize}
			w.Header().Set(Header, verdictMiss)
			next.ServeHTTP(rec, r)

			if !rec.cacheable() {
				return
			}

			e := entry{
				Status:   rec.status,
				Header:   storableHeader(rec.Header()),
				Body:     rec.body.Bytes(),
				StoredAt: time.Now(),
				Vary:     varyHeaders(rec.Header()),
			}

			payload, err := json.Marshal(&e)
			if err != nil {
				return
			}

			// The variant index under the base key lets later requests
			// recompute the full key from their own header values.
			if len(e.Vary) > 0 {
				vary, _ := json.Marshal(e.Vary)
				_ = store.Set(r.Context(), base+"|vary", vary, cfg.TTL)
			}
			_ = store.Set(r.Context(), fullKey(r, base, e.Vary), payload, cfg.TTL)
		})
	}
}

func lookup(r *http.Request, store Store, base string) (*entry, bool) {
	var vary []string
	if raw, ok, _ := store.Get(r.Context(), base+"|vary"); ok {
		_ = json.Unmarshal(raw, &vary)
	}

	payload, ok, err := store.Get(r.Context(), fullKey(r, base, vary))
	if err != nil || !ok {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, false
	}
	return &e, true
}

func replay(w http.ResponseWriter, e *entry) {
	h := w.Header()
	for name, values := range e.Header {
		h[name] = values
	}
	h.Set(Header, verdictHit)
	w.WriteHeader(e.Status)
	_, _ = w.Write(e.Body)
}

// baseKey is method, path and the sorted query string.
func baseKey(r *http.Request) string {
	q := r.URL.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteByte('|')
	b.WriteString(r.URL.Path)
	for _, k := range keys {
		values := q[k]
		sort.Strings(values)
		for _, v := range values {
			b.WriteByte('|')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}

// fullKey appends the request's values of the entry's Vary headers.
func fullKey(r *http.Request, base string, vary []string) string {
	if len(vary) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	for _, name := range vary {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(r.Header.Get(name))
	}
	return b.String()
}

func varyHeaders(h http.Header) []string {
	var names []string
	for _, v := range h.Values("Vary") {
		for _, name := range strings.Split(v, ",") {
			name = http.CanonicalHeaderKey(strings.TrimSpace(name))
			if name != "" && name != "*" {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func storableHeader(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for name, values := range h {
		out[name] = values
	}
	for _, name := range hopByHop {
		delete(out, name)
	}
	delete(out, Header)
	return out
}

type recorder struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	maxBody     int64
	overflow    bool
	streamed    bool
	wroteHeader bool
}

func (r *recorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	if !r.overflow {
		if int64(r.body.Len()+len(b)) > r.maxBody {
			r.overflow = true
			r.body.Reset()
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// Flush marks the response as streamed; streamed responses are not cached.
func (r *recorder) Flush() {
	r.streamed = true
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *recorder) cacheable() bool {
	if r.streamed || r.overflow {
		return false
	}
	if r.status < 200 || r.status > 299 {
		return false
	}

	cc := strings.ToLower(r.Header().Get("Cache-Control"))
	if strings.Contains(cc, "no-store") || strings.Contains(cc, "private") {
		return false
	}
	if strings.HasPrefix(r.Header().Get("Content-Type"), "text/event-stream") {
		return false
	}
	return true
}
