package ratelimit

import (
	"net/http"

	"github.com/typedapi/typedapi/pkg/clientip"
)

// KeyFunc derives the bucket key for a request. An empty key skips rate
// limiting for that request.
type KeyFunc func(r *http.Request) string

// KeyByIP buckets requests by client address: the first X-Forwarded-For
// hop when present, the peer address otherwise.
func KeyByIP(r *http.Request) string {
	return clientip.GetIP(r)
}

// KeyByHeader buckets requests by a header value, falling back to the
// client address when the header is absent.
func KeyByHeader(name string) KeyFunc {
	return func(r *http.Request) string {
		if v := r.Header.Get(name); v != "" {
			return v
		}
		return clientip.GetIP(r)
	}
}
