package binder

import "net/http"

// Cookie creates a binder for request cookies.
//
// Struct fields tagged `cookie:"name"` are filled from the matching cookie
// value. A non-pointer field without a default is required.
//
//	type TrackingRequest struct {
//		SessionID string  `cookie:"sid"`
//		Theme     *string `cookie:"theme"`
//	}
func Cookie() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		values := make(map[string][]string)
		for _, c := range r.Cookies() {
			values[c.Name] = append(values[c.Name], c.Value)
		}
		return bindToStruct(v, "cookie", values, ErrInvalidCookie)
	}
}
