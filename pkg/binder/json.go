package binder

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// JSON creates a binder that decodes an application/json request body.
//
// A request whose Content-Type is not JSON fails with
// ErrUnsupportedMediaType; a missing Content-Type header fails with
// ErrMissingContentType. Media type suffixes are honored, so
// application/vnd.api+json is accepted.
func JSON() func(r *http.Request, v any) error {
	return JSONStrict(false)
}

// JSONStrict returns a JSON binder. When disallowUnknown is true, body
// fields not present in the target struct fail the bind.
func JSONStrict(disallowUnknown bool) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: Content-Type header required for request body", ErrMissingContentType)
		}

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return fmt.Errorf("%w: malformed Content-Type %q", ErrUnsupportedMediaType, contentType)
		}
		if !isJSONMediaType(mediaType) {
			return fmt.Errorf("%w: expected application/json, got %q", ErrUnsupportedMediaType, mediaType)
		}

		if r.Body == nil {
			return fmt.Errorf("%w: empty request body", ErrInvalidJSON)
		}

		dec := json.NewDecoder(r.Body)
		if disallowUnknown {
			dec.DisallowUnknownFields()
		}

		if err := dec.Decode(v); err != nil {
			if err == io.EOF {
				return fmt.Errorf("%w: empty request body", ErrInvalidJSON)
			}
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}

		// Reject trailing data after the first JSON value.
		if dec.More() {
			return fmt.Errorf("%w: unexpected data after JSON body", ErrInvalidJSON)
		}

		return nil
	}
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
