// Package mock provides an in-process PAKU Spa API used by tests.
//
// It issues RS256 signed tokens, rotates refresh tokens on every exchange and lets
// tests expire access tokens, fail or hold the refresh endpoint, and count exchanges,
// so refresh races can be reproduced without a real backend.
package mock
