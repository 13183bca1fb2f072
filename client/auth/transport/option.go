package transport

import (
	"net/http"

	"github.com/viant/pakuspa/client/auth/flow"
	"github.com/viant/pakuspa/client/auth/store"
	"go.uber.org/zap"
)

type Option func(*RoundTripper)

// WithStore sets store
func WithStore(store store.Store) Option {
	return func(t *RoundTripper) {
		t.store = store
	}
}

// WithFlow sets refresh flow
func WithFlow(flow flow.RefreshFlow) Option {
	return func(t *RoundTripper) {
		t.flow = flow
	}
}

// WithTransport sets the wrapped transport
func WithTransport(transport http.RoundTripper) Option {
	return func(t *RoundTripper) {
		if transport != nil {
			t.transport = transport
		}
	}
}

// WithLogger sets logger
func WithLogger(logger *zap.Logger) Option {
	return func(t *RoundTripper) {
		if logger != nil {
			t.logger = logger
		}
	}
}
