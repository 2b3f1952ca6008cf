package database

import "errors"

var (
	// ErrNotReady indicates the startup ping has not succeeded yet.
	ErrNotReady = errors.New("database not ready")
	// ErrUnreachable indicates a ping failed after the connection was ready.
	ErrUnreachable = errors.New("database unreachable")
)
