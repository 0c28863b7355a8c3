// Package auth covers the two credential concerns: bcrypt password digests
// and HMAC-signed JWT session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/anstrom/filecrate/internal/apierr"
)

// MinPasswordLength matches the account schema's minimum.
const MinPasswordLength = 8

// Tokens issues and verifies session tokens. The signing secret and expiry
// come from configuration so tests can run with their own values.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens constructs a Tokens helper.
func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	return &Tokens{secret: secret, ttl: ttl}
}

// Issue signs a token whose subject is the user id.
func (t *Tokens) Issue(userID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify parses a token and returns its subject. Any parse, signature or
// expiry failure surfaces as an unauthorized error.
func (t *Tokens) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", apierr.Unauthorized("invalid or expired session")
	}
	return claims.Subject, nil
}

// HashPassword produces a bcrypt digest at the default cost.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// CheckPassword reports whether the candidate matches the stored digest.
func CheckPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
