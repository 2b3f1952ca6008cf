package catalog

import (
	"errors"
	"net/http"
)

// Domain errors for catalog operations.
var (
	ErrNotFound     = errors.New("unit not found")
	ErrDuplicate    = errors.New("unit already exists")
	ErrInvalidScope = errors.New("invalid scope")
)

// MapHTTPStatus maps catalog domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidScope) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
