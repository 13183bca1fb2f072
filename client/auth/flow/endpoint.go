package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/viant/afs/url"
	"github.com/viant/pakuspa/client/auth"
	"github.com/viant/pakuspa/internal/httperr"
	"golang.org/x/oauth2"
)

// RefreshPath is the token endpoint path relative to the API base URL
const RefreshPath = "auth/refresh"

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Tokens *Tokens `json:"tokens"`
}

// EndpointFlow calls POST {baseURL}/auth/refresh without credentials
type EndpointFlow struct {
	URL    string
	client *http.Client
}

func (e *EndpointFlow) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token was empty")
	}
	body, err := json.Marshal(&refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httperr.FromResponse(resp)
	}
	defer resp.Body.Close()
	var response refreshResponse
	if err = json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if response.Tokens == nil || response.Tokens.AccessToken == "" {
		return nil, errors.New("refresh response missing access token")
	}
	token := response.Tokens.Token()
	// preserve refresh token if the API omitted it
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	if expiry, err := auth.Expiry(token.AccessToken); err == nil {
		token.Expiry = expiry
	}
	return token, nil
}

// NewEndpointFlow creates a refresh flow for API base URL
func NewEndpointFlow(baseURL string, options ...Option) *EndpointFlow {
	ret := &EndpointFlow{
		URL:    url.Join(baseURL, RefreshPath),
		client: &http.Client{Transport: http.DefaultTransport},
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
