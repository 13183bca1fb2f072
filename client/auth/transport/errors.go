package transport

import "errors"

// ErrRefreshFailed matches every error produced by a failed token refresh
var ErrRefreshFailed = errors.New("token refresh failed")

// RefreshError is returned to the request that started a failed refresh and to
// every request queued behind it.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return ErrRefreshFailed.Error() + ": " + e.Err.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

func (e *RefreshError) Is(target error) bool {
	return target == ErrRefreshFailed
}
