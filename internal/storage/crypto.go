// Package storage provides cryptographic utilities for secure-drop.
package storage

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword creates a bcrypt hash of an admin password for storage.
func HashPassword(password string) (string, error) {
	// Use bcrypt cost 12
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks if a password matches a bcrypt hash.
func VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
