package flow

import (
	"net/http"
	"time"
)

type Option func(*EndpointFlow)

// WithHTTPClient sets the (unauthenticated) client used for the exchange
func WithHTTPClient(client *http.Client) Option {
	return func(e *EndpointFlow) {
		if client != nil {
			e.client = client
		}
	}
}

// WithTimeout sets exchange timeout
func WithTimeout(timeout time.Duration) Option {
	return func(e *EndpointFlow) {
		client := *e.client
		client.Timeout = timeout
		e.client = &client
	}
}
