package binder

import (
	"net/http"
	"reflect"
)

// Header creates a binder for request headers.
//
// Struct fields tagged `header:"Name"` are filled from the corresponding
// header. Lookup is canonicalized, so `header:"x-api-key"` matches
// X-Api-Key. A non-pointer field without a default is required.
//
//	type AuthHeaders struct {
//		APIKey    string  `header:"X-API-Key"`
//		TraceID   *string `header:"X-Trace-ID"`
//	}
func Header() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		// Key the value map by the struct's own tag names so that
		// bindToStruct's direct lookup hits regardless of casing.
		values := make(map[string][]string)
		for _, name := range tagNames(v, "header") {
			if vals := r.Header.Values(name); len(vals) > 0 {
				values[name] = vals
			}
		}
		return bindToStruct(v, "header", values, ErrInvalidHeader)
	}
}

// tagNames collects the parameter names declared by v's fields for tagName.
func tagNames(v any, tagName string) []string {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil
	}
	var names []string
	for i := range rt.NumField() {
		name, explicit, skip := parseFieldTag(rt.Field(i), tagName)
		if explicit && !skip {
			names = append(names, name)
		}
	}
	return names
}
