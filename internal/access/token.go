package access

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims the gateway cares about.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

func claimsFrom(rc *jwt.RegisteredClaims) Claims {
	c := Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c
}

// TokenVerifier checks RS256 session tokens against the provider's public key.
type TokenVerifier struct {
	key *rsa.PublicKey
}

// NewTokenVerifier parses a PEM-encoded RSA public key.
func NewTokenVerifier(pemKey string) (*TokenVerifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("invalid session public key: %w", err)
	}
	return &TokenVerifier{key: key}, nil
}

// Verify validates signature and time claims and returns the claims.
func (v *TokenVerifier) Verify(token string) (Claims, error) {
	rc := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, rc, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, errors.New("token is not valid")
	}
	return claimsFrom(rc), nil
}

// ReadClaims extracts claims without checking the signature. It is only used
// for tokens the upstream has already accepted; opaque tokens yield zero
// claims.
func ReadClaims(token string) Claims {
	rc := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, rc); err != nil {
		return Claims{}
	}
	return claimsFrom(rc)
}
