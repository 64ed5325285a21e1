package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/gatekeeper/internal/domain"
)

const tokenIssuer = "gatekeeper"

// TokenService mints and verifies stateless HS256 access tokens. A token
// binds only the user id, its issue time and its expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with secret. Tokens expire
// exactly ttl after they are minted.
func NewTokenService(secret []byte, ttl time.Duration, opts ...Option) *TokenService {
	s := applyOptions(opts)
	return &TokenService{secret: secret, ttl: ttl, now: s.now}
}

// Mint issues a signed token for userID. Token times have second
// granularity: the issue time is the current time truncated to the second
// and the token expires exactly ttl later.
func (s *TokenService) Mint(userID string) (string, error) {
	now := s.now().Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks the token's signature, issuer and expiry and returns the
// user id it was minted for. Failures are one of domain.ErrTokenExpired,
// domain.ErrTokenBadSignature or domain.ErrTokenMalformed.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", domain.ErrTokenBadSignature
	default:
		return "", fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", domain.ErrTokenMalformed)
	}
	return claims.Subject, nil
}
