package client

import (
	"net/http"
	"time"

	"github.com/viant/pakuspa/client/auth/flow"
	"github.com/viant/pakuspa/client/auth/store"
	"go.uber.org/zap"
)

// Option represents option
type Option func(c *Client)

// WithStore sets the session token store
func WithStore(s store.Store) Option {
	return func(c *Client) {
		if s != nil {
			c.store = s
		}
	}
}

// WithHTTPClient uses client transport and timeout as the base for API calls
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client == nil {
			return
		}
		if client.Transport != nil {
			c.transport = client.Transport
		}
		if client.Timeout > 0 {
			c.timeout = client.Timeout
		}
	}
}

// WithTransport sets base transport
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		if transport != nil {
			c.transport = transport
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRefreshFlow replaces the default POST /auth/refresh exchange
func WithRefreshFlow(refreshFlow flow.RefreshFlow) Option {
	return func(c *Client) {
		c.refreshFlow = refreshFlow
	}
}
