package client

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// Interface defines the client interface for all exported API methods
type Interface interface {
	// Do sends an authenticated request
	Do(ctx context.Context, req *http.Request) (*http.Response, error)

	Get(ctx context.Context, path string, out interface{}) error

	Post(ctx context.Context, path string, in, out interface{}) error

	Put(ctx context.Context, path string, in, out interface{}) error

	Patch(ctx context.Context, path string, in, out interface{}) error

	Delete(ctx context.Context, path string, out interface{}) error

	// Login authenticates with email and password
	Login(ctx context.Context, email, password string) (*User, error)

	// Register creates an account and logs in
	Register(ctx context.Context, registration *Registration) (*User, error)

	// Logout clears the stored session
	Logout(ctx context.Context) error

	// User returns cached user record
	User(ctx context.Context) (*User, error)

	// Me fetches current user profile
	Me(ctx context.Context) (*User, error)

	// Session returns stored session token
	Session(ctx context.Context) (*oauth2.Token, error)
}

// Ensure Client implements Interface
var _ Interface = (*Client)(nil)
