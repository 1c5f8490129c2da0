package jwtx

import "errors"

var (
	// ErrNoSecret reports a signer constructed without key material.
	ErrNoSecret = errors.New("jwtx: empty signing secret")

	// ErrBadToken reports a token that failed parsing or signature checks.
	ErrBadToken = errors.New("jwtx: invalid token")
)

// Signer is our interface for anything that can sign account claims.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
	Validate() error
}

// Verifier parses and verifies a signed token back into claims.
type Verifier interface {
	Verify(raw string) (Claims, error)
}
