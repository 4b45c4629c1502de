// Package ratelimit implements fixed-window request limiting keyed by
// client address, with in-memory and Redis counter backends.
package ratelimit
