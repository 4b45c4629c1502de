// Package binder extracts typed values from HTTP requests into struct
// fields driven by tags.
//
// Each constructor returns a function with the signature
// func(*http.Request, any) error that fills the tagged fields of its
// target struct:
//
//   - Path() binds `path:"name"` fields from URL parameters
//   - Query() binds `query:"name"` fields from the query string
//   - Header() binds `header:"Name"` fields from request headers
//   - Cookie() binds `cookie:"name"` fields from cookies
//   - JSON() decodes an application/json body into the target
//   - Form() binds `form:"name"` fields from urlencoded or multipart bodies
//   - Files() binds `file:"name"` fields of type *File from multipart parts
//
// Only explicitly tagged fields participate; a struct may mix tags from
// several sources and be filled by running the matching binders in
// sequence. A non-pointer, non-slice field with no `default` tag is
// required, and its absence is a binding failure wrapped with
// ErrMissingRequired. Binding failures are parse-stage errors: callers map
// ErrUnsupportedMediaType to 415 and every other sentinel to 400.
package binder
