package hitlkit

import (
	"errors"
	"fmt"

	"github.com/agentpatterns/hitlkit/interrupt"
)

// Common errors
var (
	// ErrInvalidConfig is returned when the session configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStorageError is returned when a storage operation failed
	ErrStorageError = errors.New("storage operation failed")

	// ErrSessionClosed is returned when using a closed session
	ErrSessionClosed = errors.New("session closed")

	// ErrEmptyMessage is returned when sending a blank message
	ErrEmptyMessage = errors.New("empty message")

	// ErrEmptyThreadID is returned when loading a thread without an id
	ErrEmptyThreadID = errors.New("empty thread id")

	// ErrUnknownStatus is returned when setting a status the agent does not know
	ErrUnknownStatus = errors.New("unknown status")

	// ErrInvalidState is returned when the agent state document cannot be patched
	ErrInvalidState = errors.New("invalid agent state")

	// ErrNoInterrupt is returned when responding while no interrupt is shown
	ErrNoInterrupt = interrupt.ErrNoInterrupt

	// ErrNotApproval is returned by Approve and Cancel for free-form interrupts
	ErrNotApproval = interrupt.ErrNotApproval
)

// SessionError represents an error with additional context
type SessionError struct {
	Op        string         // Operation that failed
	Err       error          // Underlying error
	Namespace string         // Storage namespace of the session
	Context   map[string]any // Additional context
}

// Error implements the error interface
func (e *SessionError) Error() string {
	if e.Namespace != "" {
		return fmt.Sprintf("%s (namespace=%s): %v", e.Op, e.Namespace, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *SessionError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *SessionError) WithContext(key string, value any) *SessionError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewSessionError creates a new SessionError
func NewSessionError(op string, err error) *SessionError {
	return &SessionError{
		Op:  op,
		Err: err,
	}
}

// NewSessionErrorWithNamespace creates a new SessionError with namespace
func NewSessionErrorWithNamespace(op, namespace string, err error) *SessionError {
	return &SessionError{
		Op:        op,
		Err:       err,
		Namespace: namespace,
	}
}

// storageError marks err as a storage failure while keeping it inspectable.
func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageError, err)
}
