// Package jwt is the token codec: it issues and verifies the compact
// signed session tokens that carry subject, role, and expiry claims.
// Verification is pure CPU work with strict validation semantics and a
// two-value failure taxonomy (expired vs. signature invalid).
package jwt
