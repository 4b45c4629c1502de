package typedapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// ErrStreamingUnsupported indicates the response writer cannot flush, so
// server-sent events cannot be delivered incrementally.
var ErrStreamingUnsupported = errors.New("response writer does not support streaming")

// SSEEvent is one server-sent event. Zero-value fields are omitted from
// the frame; multi-line data is split into consecutive data: lines.
type SSEEvent struct {
	ID    string
	Event string
	Retry int
	Data  string
}

// SSEStream writes server-sent events to one client connection. Each Send
// flushes, so events arrive as they are produced.
type SSEStream struct {
	mu sync.Mutex
	w  http.ResponseWriter
	fl http.Flusher
}

func newSSEStream(w http.ResponseWriter) (*SSEStream, error) {
	fl, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-store")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fl.Flush()
	return &SSEStream{w: w, fl: fl}, nil
}

// Send writes one event frame and flushes it.
func (s *SSEStream) Send(ev SSEEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	if ev.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", ev.ID)
	}
	if ev.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", ev.Event)
	}
	if ev.Retry > 0 {
		fmt.Fprintf(&b, "retry: %d\n", ev.Retry)
	}
	for line := range strings.SplitSeq(ev.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := s.w.Write([]byte(b.String())); err != nil {
		return err
	}
	s.fl.Flush()
	return nil
}

// Comment writes a comment frame, useful as a keep-alive ping.
func (s *SSEStream) Comment(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.fl.Flush()
	return nil
}

// SSEHandler streams events for the lifetime of the connection. It should
// return when ctx is done; the dispatcher closes the stream afterwards.
type SSEHandler[Req any] func(ctx context.Context, req *Req, stream *SSEStream) error
