// Package password wraps bcrypt hashing and verification of local
// account credentials.
package password

import "golang.org/x/crypto/bcrypt"

// Cost matches the bcrypt work factor used for all stored hashes.
const Cost = 10

// Hash produces a salted bcrypt digest of the plaintext. Empty
// passwords are accepted and hashed like any other input.
func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. It fails
// closed: a malformed or empty hash (federated accounts store none)
// never verifies.
func Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
