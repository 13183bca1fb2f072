// Package cli implements the pakuspa command line tool.
//
// Usage:
//
//	pakuspa -u https://api.pakuspa.example/api login -e owner@example.com -p secret
//	pakuspa -u https://api.pakuspa.example/api request -X POST -d '{"name":"Mochi"}' /pets
//	pakuspa -c config.yaml whoami
//
// The session is kept in a file store under the user config directory unless
// --store.type selects another backend.
package cli
