package transport

import (
	"context"
)

type contextKey string

// ContextSkipRefreshKey marks requests whose 401 must be returned as is (e.g. login)
const ContextSkipRefreshKey contextKey = "skipRefresh"

// WithoutRefresh returns a context that disables the refresh protocol for a request
func WithoutRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextSkipRefreshKey, true)
}

func skipRefresh(ctx context.Context) bool {
	if v := ctx.Value(ContextSkipRefreshKey); v != nil {
		skip, _ := v.(bool)
		return skip
	}
	return false
}
