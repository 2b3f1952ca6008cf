package jobs

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/pkg/storage"
)

// Domain errors for job operations.
var (
	ErrNotFound        = errors.New("job not found")
	ErrDuplicate       = errors.New("job already exists for scope")
	ErrJobActive       = errors.New("job is active for scope")
	ErrNotRunning      = errors.New("no active job for scope")
	ErrReportsDisabled = errors.New("report archive is not enabled")
	ErrInvalidRequest  = errors.New("invalid request")
)

// MapHTTPStatus maps job domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrJobActive) || errors.Is(err, ErrNotRunning) || errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrReportsDisabled) {
		return http.StatusNotImplemented
	}
	if errors.Is(err, storage.ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, catalog.ErrInvalidScope) {
		return http.StatusBadRequest
	}
	if errors.Is(err, catalog.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
