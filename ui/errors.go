package ui

import "errors"

// UI package errors.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("ui: invalid configuration")

	// ErrSessionRequired indicates the handler was built without a session.
	ErrSessionRequired = errors.New("ui: session required")
)
