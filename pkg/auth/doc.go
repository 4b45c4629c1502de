// Package auth authenticates requests from extracted credentials and
// enforces scope requirements.
//
// A Scheme pairs an Extractor (Authorization header, named header, or
// cookie) with a Validator (bcrypt Basic, signed Bearer tokens, or a
// static token table). Missing or invalid credentials produce 401 with a
// WWW-Authenticate challenge; authenticated callers without a required
// scope produce 403.
package auth
