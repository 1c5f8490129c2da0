package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch reports that a password does not match its stored hash.
var ErrMismatch = errors.New("cryptox: password does not match")

// prehash folds the plaintext and the process pepper into a fixed-size input
// for bcrypt. bcrypt truncates anything past 72 bytes, so feeding it the raw
// plaintext plus pepper would silently cap long passwords; an HMAC-SHA-256
// digest (43 bytes once base64-encoded) keeps every byte of the password
// significant regardless of its length.
func prehash(password string) []byte {
	mac := hmac.New(sha256.New, []byte(GetPepper()))
	mac.Write([]byte(password))
	sum := mac.Sum(nil)

	out := make([]byte, base64.RawStdEncoding.EncodedLen(len(sum)))
	base64.RawStdEncoding.Encode(out, sum)
	return out
}

// HashPassword hashes a plaintext password with bcrypt. The input is first
// keyed with the process pepper, so hashes are only verifiable with the same
// pepper.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a bcrypt hash.
// Returns ErrMismatch for a wrong password; any other error means the
// comparison itself failed (e.g. a malformed stored hash).
func VerifyPassword(password, encodedHash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), prehash(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return fmt.Errorf("cryptox: compare password: %w", err)
}
