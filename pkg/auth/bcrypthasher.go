package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher implements PasswordHasher using the bcrypt algorithm
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a new bcrypt password hasher with the default cost
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// NewBcryptHasherWithCost creates a new bcrypt password hasher with a custom cost
func NewBcryptHasherWithCost(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash hashes the plain-text password using bcrypt
func (h *BcryptHasher) Hash(password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return nil, err
	}
	return hashed, nil
}

// Verify compares the plain-text password with the stored hash, normalizing
// legacy encodings first. An unrecognized encoding is a verification failure,
// not an error.
func (h *BcryptHasher) Verify(password string, storedHash []byte) (bool, error) {
	if password == "" || len(storedHash) == 0 {
		return false, nil
	}

	normalized, err := NormalizePasswordHash(storedHash)
	if err != nil {
		return false, nil
	}

	err = bcrypt.CompareHashAndPassword(normalized, []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
