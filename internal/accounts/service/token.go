package service

import (
	"fmt"
	"time"

	"github.com/freemanity/accounts/internal/accounts/domain"
	"github.com/freemanity/accounts/internal/accounts/observability/metrics"
	"github.com/freemanity/accounts/pkg/jwtx"
)

// TokenScheme prefixes every issued token string.
const TokenScheme = "JWT"

// TokenService mints signed bearer tokens carrying the account id and email.
// The signing secret is injected through the Signer; nothing here reads the
// environment.
type TokenService struct {
	Signer jwtx.Signer
	Issuer string
	TTL    time.Duration
}

// Issue signs claims for u and returns the scheme-prefixed token string.
func (s *TokenService) Issue(u domain.User) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultTokenTTL
	}

	claims := jwtx.NewAccountClaims(u.ID, u.Email, s.Issuer, ttl, time.Now())

	signed, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign account token: %w", err)
	}

	metrics.TokensIssued.Inc()
	return TokenScheme + " " + signed, nil
}
