package storage

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates no artifact is stored under the key.
	ErrNotFound = errors.New("artifact not found")
	// ErrUnavailable indicates the container could not be prepared at startup,
	// so reads and writes are refused.
	ErrUnavailable = errors.New("artifact storage unavailable")
	// ErrEmptyKey indicates an empty artifact key.
	ErrEmptyKey = errors.New("artifact key must not be empty")
	// ErrInvalidKey indicates an artifact key with a ".." segment.
	ErrInvalidKey = errors.New("artifact key contains invalid path segment")
)

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
