package client

import (
	"errors"

	"github.com/viant/pakuspa/internal/httperr"
)

// Error represents non-2xx API response with optional detail message
type Error = httperr.Error

// StatusCode returns API status code carried by err, 0 when err is not an API error
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
