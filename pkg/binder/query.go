package binder

import "net/http"

// Query creates a query parameter binder.
//
// It supports struct tags for parameter names:
//   - `query:"name"` binds to the query parameter "name"
//   - `query:"-"` skips the field
//   - a `default:"..."` tag supplies the value when absent
//
// Supported types: basic scalars, slices of scalars for multi-value
// parameters (?tags=a&tags=b or ?tags=a,b), pointers for optional fields.
// A non-pointer field without a default is required; its absence fails the
// bind.
//
//	type SearchRequest struct {
//		Query    string   `query:"q"`
//		Page     int      `query:"page" default:"1"`
//		Tags     []string `query:"tags"`
//		Active   *bool    `query:"active"`
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrInvalidQuery)
	}
}
