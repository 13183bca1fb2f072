package mock

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"
)

// createJWT creates a signed token for the account with the given type and expiry
func (s *APIService) createJWT(user *User, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   s.Issuer,
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   now.Add(expiry).Unix(),
		"iat":   now.Unix(),
		"jti":   uuid.NewString(),
		"typ":   tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(s.PrivateKey)
}

// verifyJWT checks signature, expiry and token type
func (s *APIService) verifyJWT(token, tokenType string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return &s.PrivateKey.PublicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithIssuer(s.Issuer))
	if err != nil {
		return nil, err
	}
	if typ, _ := claims["typ"].(string); typ != tokenType {
		return nil, fmt.Errorf("expected %v token", tokenType)
	}
	if _, ok := claims["email"].(string); !ok {
		return nil, errors.New("token has no subject email")
	}
	return claims, nil
}
