package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/viant/pakuspa/client/auth/flow"
	"github.com/viant/pakuspa/client/auth/store"
	"github.com/viant/pakuspa/internal/pending"
	"go.uber.org/zap"
)

// RoundTripper attaches the stored bearer token to every request and recovers from
// access token expiry (401) with a single coordinated refresh.
type RoundTripper struct {
	store     store.Store
	flow      flow.RefreshFlow
	transport http.RoundTripper
	logger    *zap.Logger

	mux        sync.Mutex
	refreshing bool
	queue      *pending.Queue[string]
}

func New(options ...Option) (*RoundTripper, error) {
	ret := &RoundTripper{
		transport: http.DefaultTransport,
		store:     store.NewMemoryStore(),
		logger:    zap.NewNop(),
		queue:     pending.NewQueue[string](),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.flow == nil {
		return nil, errors.New("refresh flow was not configured")
	}
	return ret, nil
}

func (r *RoundTripper) Store() store.Store {
	return r.store
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	body, err := newReplayBody(req)
	if err != nil {
		return nil, err
	}
	token, err := r.accessToken(ctx)
	if err != nil {
		body.close()
		return nil, err
	}

	// 1) Send the request with whatever token we currently hold.
	attempt, err := withToken(req, body, token)
	if err != nil {
		return nil, err
	}
	resp, err := r.transport.RoundTrip(attempt)
	if err != nil {
		return nil, err
	}

	// 2) Anything but a 401 is the caller's business.
	if resp.StatusCode != http.StatusUnauthorized || skipRefresh(ctx) {
		return resp, nil
	}

	// 3) Obtain a fresh token: wait for, reuse, or start a refresh.
	next, retry, err := r.recover(req, token)
	if !retry && err == nil {
		return resp, nil
	}
	drain(resp)
	if err != nil {
		return nil, err
	}

	// 4) Replay once; a second 401 is returned as is.
	if attempt, err = withToken(req, body, next); err != nil {
		return nil, fmt.Errorf("failed to replay request body: %w", err)
	}
	return r.transport.RoundTrip(attempt)
}

// recover returns the token to retry with; retry is false when the original
// response should be returned unchanged.
func (r *RoundTripper) recover(req *http.Request, used string) (string, bool, error) {
	ctx := req.Context()
	r.mux.Lock()
	if r.refreshing {
		waiter := r.queue.Add()
		position := r.queue.Len()
		r.mux.Unlock()
		r.logger.Debug("refresh in flight, request queued",
			zap.Int("position", position),
			zap.String("url", req.URL.String()))
		select {
		case result := <-waiter:
			if result.Err != nil {
				return "", false, result.Err
			}
			return result.Value, true, nil
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}

	current, err := r.accessToken(ctx)
	if err != nil {
		r.mux.Unlock()
		return "", false, err
	}
	if current != "" && current != used {
		// someone refreshed after this request was sent
		r.mux.Unlock()
		return current, true, nil
	}

	refreshToken, ok, err := r.store.Get(ctx, store.RefreshTokenKey)
	if err != nil {
		r.mux.Unlock()
		return "", false, err
	}
	if !ok || refreshToken == "" {
		r.mux.Unlock()
		r.logger.Info("access token rejected and no refresh token stored, clearing session")
		r.purge(ctx)
		return "", false, nil
	}
	r.refreshing = true
	r.mux.Unlock()

	next, refreshErr := r.refresh(context.WithoutCancel(ctx), refreshToken)

	r.mux.Lock()
	r.refreshing = false
	waiters := r.queue.Drain()
	r.mux.Unlock()

	if refreshErr != nil {
		r.logger.Warn("token refresh failed", zap.Int("waiters", waiters.Len()), zap.Error(refreshErr))
		waiters.Reject(refreshErr)
		return "", false, refreshErr
	}
	r.logger.Info("token refreshed", zap.Int("waiters", waiters.Len()))
	waiters.Resolve(next)
	return next, true, nil
}

// refresh exchanges refreshToken and persists the new pair; on any failure the session is purged.
func (r *RoundTripper) refresh(ctx context.Context, refreshToken string) (string, error) {
	token, err := r.flow.Refresh(ctx, refreshToken)
	if err == nil && (token == nil || token.AccessToken == "") {
		err = errors.New("refresh returned empty access token")
	}
	if err == nil {
		if err = store.SaveToken(ctx, r.store, token); err != nil {
			err = fmt.Errorf("failed to store refreshed token: %w", err)
		}
	}
	if err != nil {
		r.purge(ctx)
		return "", &RefreshError{Err: err}
	}
	return token.AccessToken, nil
}

func (r *RoundTripper) purge(ctx context.Context) {
	if err := store.Clear(ctx, r.store); err != nil {
		r.logger.Warn("failed to clear session", zap.Error(err))
	}
}

func (r *RoundTripper) accessToken(ctx context.Context) (string, error) {
	token, _, err := r.store.Get(ctx, store.AccessTokenKey)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	return token, nil
}
