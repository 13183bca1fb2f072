package flow

import (
	"context"

	"github.com/viant/pakuspa/internal/httperr"
	"golang.org/x/oauth2"
)

// RefreshFlow exchanges a refresh token for a new access/refresh pair
type RefreshFlow interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// StatusError is returned when the token endpoint responds with non-2xx status
type StatusError = httperr.Error

// Tokens represents the token pair returned by auth endpoints
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Token converts Tokens into oauth2 token
func (t *Tokens) Token() *oauth2.Token {
	return &oauth2.Token{TokenType: "Bearer", AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
}

// RefreshFunc adapts a function to RefreshFlow
type RefreshFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

func (f RefreshFunc) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return f(ctx, refreshToken)
}
