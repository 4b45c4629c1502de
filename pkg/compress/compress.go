package compress

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// Config controls the gzip middleware.
type Config struct {
	// Level is the gzip compression level, 1-9.
	Level int `env:"GZIP_LEVEL" envDefault:"5"`

	// MinSize is the minimum body size, in bytes, for compression to
	// engage. Writes are buffered until the threshold is reached.
	MinSize int `env:"GZIP_MIN_SIZE" envDefault:"500"`

	// Types is the media type allowlist. A "text/" prefix entry matches
	// all text types.
	Types []string
}

func DefaultConfig() Config {
	return Config{
		Level:   5,
		MinSize: 500,
		Types:   []string{"text/", "application/json", "application/javascript", "application/xml"},
	}
}

// Middleware gzip-compresses responses when the client advertises gzip
// with a positive q-value, the response media type is on the allowlist,
// no Content-Encoding is already set, and the body reaches MinSize.
// Event streams pass through untouched. Accept-Encoding is appended to
// Vary on every eligible request.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	if cfg.Level < gzip.BestSpeed || cfg.Level > gzip.BestCompression {
		cfg.Level = 5
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = 500
	}
	if len(cfg.Types) == 0 {
		cfg.Types = DefaultConfig().Types
	}

	pool := &sync.Pool{
		New: func() any {
			gz, _ := gzip.NewWriterLevel(io.Discard, cfg.Level)
			return gz
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Accept-Encoding")

			gw := &gzipWriter{
				ResponseWriter: w,
				pool:           pool,
				minSize:        cfg.MinSize,
				types:          cfg.Types,
				status:         http.StatusOK,
			}
			defer gw.close()

			next.ServeHTTP(gw, r)
		})
	}
}

// acceptsGzip parses Accept-Encoding and reports whether gzip is listed
// with a q-value above zero.
func acceptsGzip(header string) bool {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		coding, params, _ := strings.Cut(part, ";")
		coding = strings.TrimSpace(coding)
		if coding != "gzip" && coding != "*" {
			continue
		}

		q := 1.0
		for _, p := range strings.Split(params, ";") {
			name, value, ok := strings.Cut(strings.TrimSpace(p), "=")
			if ok && strings.EqualFold(strings.TrimSpace(name), "q") {
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
					q = parsed
				}
			}
		}
		return q > 0
	}
	return false
}

// gzipWriter buffers body writes until MinSize is reached or the response
// ends, then decides compress-or-not on the accumulated length. The status
// code is held back so headers stay mutable until the decision.
type gzipWriter struct {
	http.ResponseWriter
	pool    *sync.Pool
	writer  *gzip.Writer
	minSize int
	types   []string

	status      int
	buf         []byte
	decided     bool
	compressing bool
}

func (g *gzipWriter) WriteHeader(status int) {
	if g.decided {
		return
	}
	g.status = status
}

func (g *gzipWriter) Write(b []byte) (int, error) {
	if g.decided {
		return g.write(b)
	}

	g.buf = append(g.buf, b...)
	if len(g.buf) >= g.minSize {
		g.decide()
		if err := g.flushBuffered(); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

func (g *gzipWriter) write(b []byte) (int, error) {
	if g.compressing {
		return g.writer.Write(b)
	}
	return g.ResponseWriter.Write(b)
}

func (g *gzipWriter) decide() {
	g.decided = true

	if g.shouldCompress() && len(g.buf) >= g.minSize {
		g.compressing = true
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Del("Content-Length")

		g.writer = g.pool.Get().(*gzip.Writer)
		g.writer.Reset(g.ResponseWriter)
	}

	g.ResponseWriter.WriteHeader(g.status)
}

func (g *gzipWriter) flushBuffered() error {
	if len(g.buf) == 0 {
		return nil
	}
	b := g.buf
	g.buf = nil
	_, err := g.write(b)
	return err
}

func (g *gzipWriter) shouldCompress() bool {
	if g.Header().Get("Content-Encoding") != "" {
		return false
	}

	ct := g.Header().Get("Content-Type")
	if strings.Contains(ct, "event-stream") {
		return false
	}
	for _, t := range g.types {
		if strings.Contains(ct, t) {
			return true
		}
	}
	return false
}

// close resolves a still-pending decision, drains the buffer, and
// flushes the compressor.
func (g *gzipWriter) close() {
	if !g.decided {
		g.decide()
		_ = g.flushBuffered()
	}
	if g.writer != nil {
		_ = g.writer.Close()
		g.pool.Put(g.writer)
		g.writer = nil
	}
}

func (g *gzipWriter) Flush() {
	if !g.decided {
		g.decide()
		_ = g.flushBuffered()
	}
	if g.writer != nil {
		_ = g.writer.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (g *gzipWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}
