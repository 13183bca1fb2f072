// Package store defines the key/value token store used by the refreshing transport
// in the sibling `transport` package.
//
// It ships with an in-memory implementation (tests, short-lived processes), an
// afs-backed JSON file store (CLI) and a Redis store (shared sessions). Every
// bundled store implements Batch, so a refreshed token pair is written atomically.
package store
