package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "bearer "

// Claims is the subset of bearer token claims the API inspects.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 bearer tokens before they are forwarded upstream.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier returns a verifier for secret, or nil when secret is empty.
func NewTokenVerifier(secret string) *TokenVerifier {
	if secret == "" {
		return nil
	}
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses the Authorization header value and validates signature and expiry.
func (v *TokenVerifier) Verify(authorization string) (*Claims, error) {
	raw := strings.TrimSpace(authorization)
	if len(raw) >= len(bearerPrefix) && strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		raw = strings.TrimSpace(raw[len(bearerPrefix):])
	}
	if raw == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
