// Package identity derives stable pseudonymous handles from platform user
// ids. The handle is the only thing the rest of the system ever sees or
// stores; raw platform ids never leave this package.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

// Derivation parameters are fixed. Changing any of them changes every
// handle and orphans all existing ban and submission records.
const (
	iterations = 100000
	keyLength  = 32
)

// HandleLength is the length of a hex-encoded handle.
const HandleLength = keyLength * 2

// ErrEmptySalt is returned when a Hasher is constructed without a salt.
// Callers are expected to treat this as fatal at startup.
var ErrEmptySalt = errors.New("identity: salt must not be empty")

// Hasher pseudonymizes platform user ids with a process-wide secret salt.
// The salt is injected at construction so tests can isolate themselves
// with distinct salts; it must never be logged.
type Hasher struct {
	salt []byte
}

// NewHasher creates a Hasher from the given secret salt.
func NewHasher(salt string) (*Hasher, error) {
	if salt == "" {
		return nil, ErrEmptySalt
	}
	return &Hasher{salt: []byte(salt)}, nil
}

// Hash returns the handle for rawID. The same rawID and salt always map to
// the same handle; the key stretching keeps the raw id infeasible to brute
// force without the salt.
func (h *Hasher) Hash(rawID string) string {
	dk := pbkdf2.Key([]byte(rawID), h.salt, iterations, keyLength, sha256.New)
	return hex.EncodeToString(dk)
}

// IsHandle reports whether s has the shape of a derived handle:
// lowercase hex of exactly HandleLength characters.
func IsHandle(s string) bool {
	if len(s) != HandleLength {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
