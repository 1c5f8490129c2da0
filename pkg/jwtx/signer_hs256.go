package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Signer signs and verifies tokens with a shared secret.
type HS256Signer struct {
	secret []byte
	alg    string
}

// NewSignerHS256 creates an HS256 signer from a shared secret.
func NewSignerHS256(secret string) (*HS256Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &HS256Signer{
		secret: []byte(secret),
		alg:    jwt.SigningMethodHS256.Alg(),
	}, nil
}

func (s *HS256Signer) Alg() string { return s.alg }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify parses raw, checks the HS256 signature and the registered time
// claims, and returns the embedded claims.
func (s *HS256Signer) Verify(raw string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("jwtx: unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrBadToken, err)
	}
	if !token.Valid {
		return Claims{}, ErrBadToken
	}

	return claims, nil
}

// Validate does a quick sanity check to make sure we actually have a secret.
func (s *HS256Signer) Validate() error {
	if len(s.secret) == 0 {
		return ErrNoSecret
	}
	return nil
}
