// Package schema reflects Go model types into named descriptors and renders
// them as the JSON Schema fragments an OpenAPI document embeds.
//
// A Registry is fed struct types during route registration; nested structs
// register transitively. Each type becomes a Descriptor holding ordered
// fields with semantic types, documentation, examples, validation keywords
// and visibility flags. Rendering is view-aware: fields tagged
// `readonly:"true"` are omitted from request schemas and fields tagged
// `writeonly:"true"` from response schemas. A type implementing
// Discriminated renders as oneOf with a discriminator object.
//
// Field metadata comes from struct tags:
//
//	type User struct {
//		ID    int64  `json:"id" readonly:"true" doc:"Unique identifier"`
//		Email string `json:"email" validate:"required,email" example:"a@b.com"`
//		Role  string `json:"role" validate:"enum=admin member"`
//	}
package schema
