package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is a moderate work factor suited to interactive login.
const DefaultBcryptCost = 12

// Hasher hashes and verifies passwords with a configurable bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher. Costs outside the bcrypt range fall back
// to the default.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return Hasher{cost: cost}
}

// Hash computes a salted one-way hash of the plaintext password.
func (h Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether the plaintext matches the stored hash. A
// malformed hash is treated as a mismatch, never an error.
func (h Hasher) Verify(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
