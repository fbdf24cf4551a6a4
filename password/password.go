package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const minPassBytes = 8

// Config holds the bcrypt work factor. Instances are configured during
// initialization and then treated as immutable.
type Config struct {
	Cost int
}

// DefaultConfig returns the library default work factor.
func DefaultConfig() Config {
	return Config{Cost: bcrypt.DefaultCost}
}

// Validate rejects work factors outside the range bcrypt accepts.
func (c Config) Validate() error {
	if c.Cost < bcrypt.MinCost || c.Cost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// Hasher hashes and verifies passwords with bcrypt. The stored form is
// the standard modular crypt string, salt included, so records hashed
// at an older cost keep verifying after the cost is raised.
type Hasher struct {
	config Config
}

// NewHasher returns a Hasher for the given config.
func NewHasher(cfg Config) (*Hasher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Hasher{config: cfg}, nil
}

// Hash derives a salted bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	// Raw string bytes exactly as provided; no Unicode normalization.
	if len(password) < minPassBytes {
		return "", fmt.Errorf("password must be at least %d bytes", minPassBytes)
	}

	out, err := bcrypt.GenerateFromPassword([]byte(password), h.config.Cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether password matches encodedHash. A mismatch is
// (false, nil); an error means the stored hash is not a bcrypt string.
// The comparison is constant-time within bcrypt's own guarantees.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// NeedsUpgrade reports whether encodedHash was produced at a lower cost
// than the configured one and should be re-hashed on next login.
func (h *Hasher) NeedsUpgrade(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, err
	}
	return cost < h.config.Cost, nil
}
