package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashPassword produces a salted bcrypt hash. Two calls with the same
// password yield different hashes.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// CheckPassword verifies a password against a stored bcrypt hash in constant
// time. A mismatch returns ErrInvalidCredentials; a hash bcrypt cannot parse
// returns ErrMalformedHash. It never reports a match on bad input.
func CheckPassword(password string, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}

	return fmt.Errorf("%w: %v", ErrMalformedHash, err)
}
