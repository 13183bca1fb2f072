package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents access token claims the client cares about
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// ParseClaims decodes access token claims without verifying the signature;
// the client does not hold the issuer key, the API verifies the token.
func ParseClaims(accessToken string) (*Claims, error) {
	if accessToken == "" {
		return nil, errors.New("access token was empty")
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}

// Expiry returns access token expiry time, zero time when the token has no exp claim
func Expiry(accessToken string) (time.Time, error) {
	claims, err := ParseClaims(accessToken)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}
