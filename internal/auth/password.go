// Package auth provides password hashing, session tokens, and the
// registration/login/logout service.
package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost is tuned for offline-attack resistance; each hash embeds its
// own random salt.
const bcryptCost = 12

// HashPassword returns a bcrypt hash for the provided plaintext.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
// The comparison is timing-safe.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
