package internal

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strconv"
)

const (
	codeMin  = 100000
	codeSpan = 900000

	secretBytes = 20

	// CodeDigits is the fixed width of a generated one-time code.
	CodeDigits = 6
)

// NewCode generates a cryptographically random 6-digit decimal code in
// [100000, 999999]. The construction excludes leading zeros, so the
// string form is always exactly six digits.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(codeMin+n.Int64(), 10), nil
}

// NewTwoFactorSecret generates the long-lived per-user shared secret
// stored when 2FA is enabled: 20 random bytes, hex-encoded.
func NewTwoFactorSecret() (string, error) {
	var raw [secretBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}
