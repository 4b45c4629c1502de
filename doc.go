// Package typedapi is a declarative, typed HTTP API framework. Endpoints
// are plain functions over request and response structs; the framework
// derives request binding, validation, response serialization, and an
// OpenAPI 3.1 document from the struct shapes.
//
//	type getUserRequest struct {
//		ID int `path:"id"`
//	}
//
//	type User struct {
//		ID    int    `json:"id"`
//		Name  string `json:"name" validate:"required"`
//		Email string `json:"email" validate:"required,email"`
//	}
//
//	app := typedapi.New(typedapi.WithInfo(typedapi.Info{Title: "Users", Version: "1.0.0"}))
//	typedapi.Get(app, "/users/{id}", func(ctx context.Context, req *getUserRequest) (*User, error) {
//		return lookupUser(ctx, req.ID)
//	})
//	app.Serve(context.Background())
//
// Request structs bind from the request through struct tags: path, query,
// header, cookie, form, and file locate parameters, while untagged fields
// form the JSON body on methods that carry one. Fields of type
// *http.Request, *session.Session, and *tasks.Queue are injected, and
// fields tagged dep resolve through the app's DI container.
//
// Handlers return their response struct, a value implementing Response
// (JSON, Text, HTML, Redirect, Stream, Empty), or an *Error carrying its
// own status. Validation failures emit the standard envelope with 422;
// parse failures emit 400.
//
// Middleware (authentication, rate limiting, response caching, gzip,
// sessions, background tasks) is enabled through App options and runs in a
// fixed order. The document is served at /openapi.json with interactive
// shells at /docs and /redoc.
package typedapi
