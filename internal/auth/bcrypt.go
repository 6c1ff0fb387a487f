// Package auth verifies administrator credentials.
package auth

import "golang.org/x/crypto/bcrypt"

// BcryptVerifier checks plaintext credentials against bcrypt hashes.
// bcrypt.CompareHashAndPassword compares in constant time.
type BcryptVerifier struct{}

// Verify reports whether credential matches hash. A malformed hash never matches.
func (BcryptVerifier) Verify(hash, credential string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)) == nil
}

// Hash produces the stored form of a credential.
func Hash(credential string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
