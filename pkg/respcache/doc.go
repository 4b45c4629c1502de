// Package respcache caches successful GET responses in a pluggable byte
// store, keyed by method, path, sorted query and the values of the
// response's Vary headers. Every response carries an X-Cache header with
// the verdict: HIT, MISS or BYPASS.
package respcache
