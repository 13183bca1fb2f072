// Package auth contains session helpers shared by the PAKU Spa client.
//
// The `transport` sub-package holds the refreshing http.RoundTripper, `store` the
// token persistence layer, `flow` the refresh token exchange and `mock` an API
// server used in tests. This package itself only decodes access token claims
// for status reporting.
package auth
