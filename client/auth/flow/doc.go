// Package flow implements the refresh token exchange against the PAKU Spa
// token endpoint (`POST /auth/refresh`).
//
// The exchange always runs on a plain http.Client so it never passes through the
// refreshing RoundTripper it serves.
package flow
