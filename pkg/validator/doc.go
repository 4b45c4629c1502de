// Package validator implements model-level validation with structured
// failures.
//
// Rules pair a predicate with the Error it produces; Apply runs them and
// collects every failure instead of stopping at the first one:
//
//	err := validator.Apply(
//		validator.RequiredString("name", req.Name),
//		validator.Min("limit", req.Limit, 1),
//		validator.ValidEmail("email", req.Email),
//	)
//
// Struct drives the same rules from `validate` struct tags, which is how the
// request dispatcher validates bound request models:
//
//	type CreateUser struct {
//		Name  string `json:"name" validate:"required,minLength=2"`
//		Email string `json:"email" validate:"required,email"`
//		Age   int    `json:"age" validate:"min=18,max=130"`
//	}
//
// Failures carry a field path, the violated rule in JSON-schema keyword
// vocabulary, and a message, so they can be rendered directly into the
// framework's 422 error envelope.
package validator
