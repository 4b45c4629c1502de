// Package session implements server-side sessions with cookie transport.
//
// The session itself is an opaque 128-bit id; all data lives server-side
// in a Store (in-memory with periodic sweeping, or Redis with native key
// expiry). Sessions are lazy: the id and cookie are only emitted once a
// handler writes to the session. Expired or unknown ids are silently
// replaced with a fresh session, rotating the id.
package session
