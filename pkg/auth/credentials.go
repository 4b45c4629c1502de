package auth

import (
	"net/http"
	"strings"
)

// Location says where a credential was carried.
type Location string

const (
	LocationAuthorization Location = "authorization"
	LocationHeader        Location = "header"
	LocationCookie        Location = "cookie"
)

// Credentials is an extracted but not yet validated credential. Scheme is
// the lowercased authentication scheme ("basic", "bearer", "apikey");
// Value is the raw credential material.
type Credentials struct {
	Scheme   string
	Value    string
	Location Location
}

// Extractor pulls credentials out of a request. A nil return with false
// means the request carried no credential at all.
type Extractor func(r *http.Request) (Credentials, bool)

// FromAuthorization extracts "Authorization: <Scheme> <value>" credentials
// for the given scheme (Basic or Bearer, case-insensitive).
func FromAuthorization(scheme string) Extractor {
	want := strings.ToLower(scheme)
	return func(r *http.Request) (Credentials, bool) {
		raw := r.Header.Get("Authorization")
		if raw == "" {
			return Credentials{}, false
		}
		got, value, ok := strings.Cut(raw, " ")
		if !ok || !strings.EqualFold(got, want) {
			return Credentials{}, false
		}
		return Credentials{
			Scheme:   want,
			Value:    strings.TrimSpace(value),
			Location: LocationAuthorization,
		}, true
	}
}

// FromHeader extracts an API key style credential from a named header.
func FromHeader(name string) Extractor {
	return func(r *http.Request) (Credentials, bool) {
		value := r.Header.Get(name)
		if value == "" {
			return Credentials{}, false
		}
		return Credentials{Scheme: "apikey", Value: value, Location: LocationHeader}, true
	}
}

// FromCookie extracts a credential from a named cookie.
func FromCookie(name string) Extractor {
	return func(r *http.Request) (Credentials, bool) {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			return Credentials{}, false
		}
		return Credentials{Scheme: "apikey", Value: c.Value, Location: LocationCookie}, true
	}
}
