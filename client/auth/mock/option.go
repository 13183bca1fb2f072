package mock

import "time"

type Option func(*APIService)

// WithAccount registers an account upfront
func WithAccount(user User, password string) Option {
	return func(s *APIService) {
		_, _ = s.addAccount(user, password)
	}
}

// WithAccessTTL sets access token lifetime
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *APIService) {
		s.AccessTTL = ttl
	}
}

// WithBasePath mounts the API under path prefix, i.e. /api
func WithBasePath(path string) Option {
	return func(s *APIService) {
		s.BasePath = path
	}
}
