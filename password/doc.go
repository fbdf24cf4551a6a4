// Package password wraps bcrypt hashing and verification for account
// credentials. Plaintext passwords exist only as call arguments; only
// the salted hash string is ever handed back for persistence.
package password
