// Package apitest drives typedapi applications in tests.
//
// Two modes share the app's full pipeline. New binds to an ephemeral port
// and runs startup hooks eagerly, so failures surface at construction.
// NewInProcess dispatches into the handler without a socket; startup runs
// lazily when the first request passes the lifespan gate.
//
//	client := apitest.New(t, app)
//	res := client.Get("/users/42")
//	user := apitest.Decode[User](t, res)
package apitest
