// file: service/password.go

package service

import (
	"crypto/sha256"
	"encoding/base64"
	"manga-auth-api/logger"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost trades hashing speed for brute-force resistance. 12 keeps a
// single verification in the tens of milliseconds on current hardware.
const bcryptCost = 12

// HashPassword hashes a plaintext password with bcrypt. Each call salts
// independently, so two calls on the same input produce different hashes.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash verifies a plaintext password against a stored bcrypt
// hash. A malformed stored hash yields false, never an error to the caller.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// HashToken produces the deterministic SHA-256 digest under which opaque
// refresh and verification secrets are stored and looked up. Token secrets
// already carry full entropy, so a fast digest is the right tool here;
// bcrypt's deliberate slowness is only needed for low-entropy passwords.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.StdEncoding.EncodeToString(sum[:])
}
