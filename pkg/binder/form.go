package binder

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
)

const defaultMaxMemory = 10 << 20 // 10 MB

// Form creates a binder for application/x-www-form-urlencoded and
// multipart/form-data bodies.
//
// Struct fields tagged `form:"name"` are filled from form values. A
// non-pointer field without a default is required. Content-Type mismatches
// fail with ErrUnsupportedMediaType so the caller can answer 415.
//
//	type LoginForm struct {
//		Email    string `form:"email"`
//		Password string `form:"password"`
//		Remember bool   `form:"remember" default:"false"`
//	}
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: Content-Type header required for form body", ErrMissingContentType)
		}

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return fmt.Errorf("%w: malformed Content-Type %q", ErrUnsupportedMediaType, contentType)
		}

		switch {
		case mediaType == "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidForm, err)
			}
		case strings.HasPrefix(mediaType, "multipart/"):
			if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidForm, err)
			}
		default:
			return fmt.Errorf("%w: expected form encoding, got %q", ErrUnsupportedMediaType, mediaType)
		}

		return bindToStruct(v, "form", r.PostForm, ErrInvalidForm)
	}
}
