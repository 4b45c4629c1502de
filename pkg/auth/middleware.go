package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/typedapi/typedapi/pkg/scopes"
)

// Scheme describes one configured authentication scheme: how to extract
// its credentials, how to validate them, and the challenge advertised on
// 401 responses.
type Scheme struct {
	// Name identifies the scheme in security requirements and OpenAPI.
	Name string

	// Challenge is the WWW-Authenticate value, e.g. `Bearer realm="api"`.
	Challenge string

	Extract  Extractor
	Validate Validator
}

// Middleware authenticates every request against the scheme and enforces
// the required scopes. Missing or invalid credentials answer 401 with a
// WWW-Authenticate challenge; valid credentials lacking a required scope
// answer 403. The authenticated principal lands in the request context.
func Middleware(scheme Scheme, requiredScopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, ok := scheme.Extract(r)
			if !ok {
				unauthorized(w, scheme.Challenge, ErrMissingCredentials)
				return
			}

			principal, err := scheme.Validate.Validate(r.Context(), creds)
			if err != nil {
				unauthorized(w, scheme.Challenge, err)
				return
			}

			if !scopes.HasAll(principal.Scopes, requiredScopes) {
				forbidden(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), principal)))
		})
	}
}

func unauthorized(w http.ResponseWriter, challenge string, err error) {
	if challenge != "" {
		w.Header().Set("WWW-Authenticate", challenge)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	msg := "Unauthorized"
	if errors.Is(err, ErrMissingCredentials) {
		msg = "Missing credentials"
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Insufficient scope"})
}
