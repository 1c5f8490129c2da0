package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the default lifetime for issued account tokens.
const DefaultTokenTTL = 24 * time.Hour

// Claims are the account-token claims: the user identifier and email the
// account service embeds on create and authenticate, plus the registered set.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the store-assigned identifier of the account.
	UserID string `json:"uid,omitempty"`

	// Email is the account email at issuance time, possibly empty.
	Email string `json:"email,omitempty"`
}

// NewAccountClaims builds minimally-correct claims for an account token.
func NewAccountClaims(userID, email, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		UserID: userID,
		Email:  email,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
