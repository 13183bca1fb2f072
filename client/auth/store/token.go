package store

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// SaveToken persists the access/refresh pair, atomically when the store supports Batch.
func SaveToken(ctx context.Context, s Store, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("token was nil")
	}
	values := map[string]string{
		AccessTokenKey:  token.AccessToken,
		RefreshTokenKey: token.RefreshToken,
	}
	if batch, ok := s.(Batch); ok {
		return batch.SetMany(ctx, values)
	}
	if err := s.Set(ctx, AccessTokenKey, token.AccessToken); err != nil {
		return err
	}
	return s.Set(ctx, RefreshTokenKey, token.RefreshToken)
}

// LoadToken returns the stored pair or nil when no access token is stored.
func LoadToken(ctx context.Context, s Store) (*oauth2.Token, error) {
	access, ok, err := s.Get(ctx, AccessTokenKey)
	if err != nil || !ok {
		return nil, err
	}
	refresh, _, err := s.Get(ctx, RefreshTokenKey)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{TokenType: "Bearer", AccessToken: access, RefreshToken: refresh}, nil
}

// Clear removes access token, refresh token and cached user record.
func Clear(ctx context.Context, s Store) error {
	if batch, ok := s.(Batch); ok {
		return batch.RemoveMany(ctx, SessionKeys...)
	}
	var firstErr error
	for _, key := range SessionKeys {
		if err := s.Remove(ctx, key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to remove %v: %w", key, err)
		}
	}
	return firstErr
}
