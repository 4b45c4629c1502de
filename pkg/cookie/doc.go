// Package cookie signs and verifies cookie values with HMAC-SHA256.
// Session uses it to make session ids tamper-evident; see
// session.WithSigningSecrets.
package cookie
