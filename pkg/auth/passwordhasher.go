package auth

import (
	"bytes"
	"encoding/hex"
	"errors"
)

// PasswordHasher defines the interface for password hashing implementations
type PasswordHasher interface {
	// Hash hashes a password into the canonical stored encoding
	Hash(password string) ([]byte, error)

	// Verify checks if the provided password matches the stored hash.
	// A mismatch returns (false, nil); only operational failures return an error.
	Verify(password string, storedHash []byte) (bool, error)
}

// ErrUnknownHashEncoding is returned by NormalizePasswordHash when the stored
// bytes match none of the known encodings
var ErrUnknownHashEncoding = errors.New("unrecognized password hash encoding")

// NormalizePasswordHash converts a stored password hash to the canonical
// bcrypt text bytes. Historical writers produced three encodings: the bcrypt
// text itself, raw bytes of that text, and a hex blob (optionally with the
// database's \x prefix). Anything else is an unknown encoding.
func NormalizePasswordHash(raw []byte) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrUnknownHashEncoding
	}

	// Canonical encoding: bcrypt text, e.g. $2a$10$...
	if raw[0] == '$' {
		return raw, nil
	}

	hexPart := raw
	if bytes.HasPrefix(raw, []byte(`\x`)) {
		hexPart = raw[2:]
	}

	decoded, err := hex.DecodeString(string(hexPart))
	if err == nil && len(decoded) > 0 && decoded[0] == '$' {
		return decoded, nil
	}

	return nil, ErrUnknownHashEncoding
}
