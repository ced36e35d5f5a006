// Package apikey hashes and verifies API keys with bcrypt; httpapi hashes
// the admin key once and verifies each request's bearer key against it.
package apikey

import "golang.org/x/crypto/bcrypt"

// DefaultCost is the bcrypt work factor used for new keys.
const DefaultCost = bcrypt.DefaultCost

// Hash returns the bcrypt digest of key, suitable for storage.
func Hash(key string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(key), DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether key matches the stored digest. It returns a
// non-nil error on mismatch, using bcrypt's constant-time comparison to
// avoid timing side channels.
func Verify(key, digest string) error {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(key))
}

// IsDigestValid reports whether digest is a well-formed bcrypt hash,
// without verifying it against any particular key.
func IsDigestValid(digest string) bool {
	_, err := bcrypt.Cost([]byte(digest))
	return err == nil
}
