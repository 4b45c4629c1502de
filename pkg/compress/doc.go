// Package compress provides gzip response compression with q-value aware
// Accept-Encoding negotiation, a media type allowlist and a minimum size
// threshold.
package compress
