// Package scopes parses and matches OAuth-style scope strings used by the
// auth middleware. Scopes are opaque tokens such as "read" or "admin.users"
// combined into white-space separated lists; "admin.*" matches everything in
// the admin hierarchy and "*" matches everything.
package scopes

import (
	"slices"
	"strings"
)

const (
	// ScopeSeparator separates multiple scopes in a list string.
	ScopeSeparator = " "

	// ScopeWildcard matches everything, or a hierarchy when used as suffix.
	ScopeWildcard = "*"

	// ScopeDelimiter separates hierarchy parts (e.g. "admin.read").
	ScopeDelimiter = "."
)

// Parse converts a space-separated scope list into a slice.
// Empty entries are dropped; nil is returned for empty input.
func Parse(scopesStr string) []string {
	scopesStr = strings.TrimSpace(scopesStr)
	if scopesStr == "" {
		return nil
	}

	parts := strings.Split(scopesStr, ScopeSeparator)
	out := make([]string, 0, len(parts))
	for i := range parts {
		if parts[i] = strings.TrimSpace(parts[i]); parts[i] != "" {
			out = append(out, parts[i])
		}
	}
	return out
}

// Join converts a slice of scopes back to the canonical space-separated form.
func Join(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return strings.Join(list, ScopeSeparator)
}

// Matches reports whether a single scope matches a pattern.
//
// Rules:
//   - direct match: "read" matches "read"
//   - global wildcard: "*" matches any scope
//   - hierarchy wildcard: "admin.*" matches any scope under "admin."
func Matches(scope, pattern string) bool {
	if scope == pattern || pattern == ScopeWildcard {
		return true
	}

	if strings.HasSuffix(pattern, ScopeWildcard) {
		prefix := strings.TrimSuffix(pattern, ScopeWildcard)
		prefix = strings.TrimSuffix(prefix, ScopeDelimiter)
		return strings.HasPrefix(scope, prefix+ScopeDelimiter)
	}

	return false
}

// Has reports whether the granted scopes cover a specific scope.
func Has(granted []string, scope string) bool {
	for _, s := range granted {
		if Matches(scope, s) {
			return true
		}
	}
	return false
}

// HasAll reports whether the granted scopes cover every required scope.
// An empty required list always passes; a global wildcard always passes.
func HasAll(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(granted) == 0 {
		return false
	}
	if slices.Contains(granted, ScopeWildcard) {
		return true
	}

	for _, req := range required {
		if !Has(granted, req) {
			return false
		}
	}
	return true
}

// HasAny reports whether the granted scopes cover at least one required scope.
func HasAny(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(granted) == 0 {
		return false
	}
	if slices.Contains(granted, ScopeWildcard) {
		return true
	}

	for _, req := range required {
		if Has(granted, req) {
			return true
		}
	}
	return false
}
