// Package magiclink mints and verifies the short-lived email login tokens.
// Tokens are HS256 JWTs carrying the address, a type discriminator so other
// JWTs signed with the same secret cannot be replayed here, and a jti used
// for single-use enforcement.
package magiclink

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TTL is the magic-link validity window
const TTL = 15 * time.Minute

const tokenType = "magic-link"

var (
	ErrInvalidToken = errors.New("invalid magic link token")
	ErrExpiredToken = errors.New("magic link expired")
	ErrWrongType    = errors.New("token is not a magic link")
)

// Claims are the registered claims plus the dashboard's additions
type Claims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// Mint creates a signed magic-link token for the address
func Mint(email string, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Type:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing magic link token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims
func Verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != tokenType {
		return nil, ErrWrongType
	}
	if claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Remaining returns how long the claims stay valid, for replay bookkeeping
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
