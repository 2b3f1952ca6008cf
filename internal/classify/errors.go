package classify

import "errors"

var (
	// ErrUnavailable indicates a transport failure or non-success response.
	ErrUnavailable = errors.New("classifier unavailable")
	// ErrMalformed indicates a response that could not be parsed or failed schema validation.
	ErrMalformed = errors.New("classifier response malformed")
)
