package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost of 10 (~100ms per hash). Customer logins are rare enough that
// the default cost is affordable, and credential resets mail the plaintext
// exactly once, so the hash is the only durable secret.
const bcryptCost = 10

// HashPassword generates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks if the provided password matches the hash.
// bcrypt's comparison is constant-time; no plaintext short-circuit here.
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
