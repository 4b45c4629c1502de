package binder

import "errors"

// Common binding errors. The dispatcher maps them onto HTTP statuses:
// ErrUnsupportedMediaType becomes 415, everything else a 400.
var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMissingContentType   = errors.New("missing content type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrInvalidForm          = errors.New("invalid form data")
	ErrInvalidQuery         = errors.New("invalid query parameter")
	ErrInvalidPath          = errors.New("invalid path parameter")
	ErrInvalidHeader        = errors.New("invalid header")
	ErrInvalidCookie        = errors.New("invalid cookie")
	ErrInvalidFile          = errors.New("invalid file upload")
	ErrMissingRequired      = errors.New("missing required parameter")

	// ErrBinderNotApplicable signals that a binder does not apply to the
	// request at hand and should be skipped by the caller.
	ErrBinderNotApplicable = errors.New("binder not applicable")
)
