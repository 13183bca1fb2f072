// Package transport implements an http.RoundTripper that attaches the stored bearer
// token to every request and transparently recovers from access token expiry.
//
// When the API answers `401 Unauthorized`, exactly one refresh exchange is started;
// requests rejected while it is in flight are queued and replayed, in FIFO order,
// with the new token. A failed refresh rejects every queued request and clears the
// stored session. Each request is retried at most once.
package transport
