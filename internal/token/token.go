// Package token issues and verifies the bearer credentials the API server
// hands out at sign-in. Tokens are HS256-signed JWTs carrying the user ID
// as subject; clients treat them as opaque.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a presented credential fails
// verification for any reason, including expiry.
var ErrInvalidToken = errors.New("invalid token")

// Manager signs and verifies bearer tokens with a shared HMAC secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewManager constructs a Manager. secret must be non-empty and ttl positive.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Manager{secret: []byte(secret), ttl: ttl, issuer: "storefront"}, nil
}

// Create issues a signed token for the given user ID.
func (m *Manager) Create(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a presented token and returns the user ID it was issued
// for. Any parse, signature, or expiry failure yields ErrInvalidToken.
func (m *Manager) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
