package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/viant/pakuspa/client/auth"
	"github.com/viant/pakuspa/client/auth/flow"
	"github.com/viant/pakuspa/client/auth/store"
	"github.com/viant/pakuspa/client/auth/transport"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	loginPath    = "auth/login"
	registerPath = "auth/register"
	mePath       = "me"
)

// User represents logged-in account profile
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Registration represents new account request
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User   *User        `json:"user"`
	Tokens *flow.Tokens `json:"tokens"`
}

// Login authenticates with email and password and stores the session
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	// bad credentials answer 401, which must not be taken for an expired session
	response, err := send[sessionResponse](transport.WithoutRefresh(ctx), c, http.MethodPost, loginPath, &credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return c.startSession(ctx, response)
}

// Register creates an account and stores the session
func (c *Client) Register(ctx context.Context, registration *Registration) (*User, error) {
	if registration == nil {
		return nil, errors.New("registration was nil")
	}
	response, err := send[sessionResponse](transport.WithoutRefresh(ctx), c, http.MethodPost, registerPath, registration)
	if err != nil {
		return nil, err
	}
	return c.startSession(ctx, response)
}

// Logout removes stored tokens and user record
func (c *Client) Logout(ctx context.Context) error {
	return store.Clear(ctx, c.store)
}

// User returns cached user record, nil when nobody is logged in
func (c *Client) User(ctx context.Context) (*User, error) {
	data, ok, err := c.store.Get(ctx, store.UserKey)
	if err != nil || !ok || data == "" {
		return nil, err
	}
	user := &User{}
	if err = json.Unmarshal([]byte(data), user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return user, nil
}

// Me fetches current user profile from the API and refreshes the cached record
func (c *Client) Me(ctx context.Context) (*User, error) {
	user, err := send[User](ctx, c, http.MethodGet, mePath, nil)
	if err != nil {
		return nil, err
	}
	if err = c.cacheUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Session returns stored token with expiry decoded from access token, nil when logged out
func (c *Client) Session(ctx context.Context) (*oauth2.Token, error) {
	token, err := store.LoadToken(ctx, c.store)
	if err != nil || token == nil {
		return nil, err
	}
	if expiry, err := auth.Expiry(token.AccessToken); err == nil {
		token.Expiry = expiry
	} else {
		c.logger.Debug("access token is not a decodable jwt", zap.Error(err))
	}
	return token, nil
}

func (c *Client) startSession(ctx context.Context, response *sessionResponse) (*User, error) {
	if response.Tokens == nil || response.Tokens.AccessToken == "" {
		return nil, errors.New("auth response missing tokens")
	}
	if err := store.SaveToken(ctx, c.store, response.Tokens.Token()); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	user := response.User
	if user == nil {
		// some deployments answer with tokens only
		var err error
		if user, err = c.Me(ctx); err != nil {
			if clearErr := store.Clear(ctx, c.store); clearErr != nil {
				c.logger.Warn("failed to clear session", zap.Error(clearErr))
			}
			return nil, fmt.Errorf("failed to fetch user profile: %w", err)
		}
	} else if err := c.cacheUser(ctx, user); err != nil {
		return nil, err
	}
	c.logger.Info("session started", zap.String("email", user.Email))
	return user, nil
}

func (c *Client) cacheUser(ctx context.Context, user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err = c.store.Set(ctx, store.UserKey, string(data)); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}
