// ABOUTME: Invitation token signing and verification using HS256 JWTs
// ABOUTME: The token carries the invitation id as subject and the invite expiry

package team

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid invitation token")
	ErrExpiredToken = errors.New("invitation token expired")
)

// TokenCodec signs and verifies invitation tokens. The token is what the
// invite email carries; the invitation row in the store is what actually
// gets consumed.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec creates a codec with the given HMAC secret.
func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret}
}

// Sign creates a token for an invitation id expiring at the given time.
func (c *TokenCodec) Sign(invitationID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": invitationID,
		"iat": time.Now().Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify validates a token and returns the invitation id from the "sub"
// claim.
func (c *TokenCodec) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return sub, nil
}
