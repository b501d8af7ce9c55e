package domain

import "errors"

var (
	// ErrConnection marks a recoverable connectivity failure with an
	// external dependency. External clients wrap transport errors with it.
	ErrConnection = errors.New("dependency connection failure")

	// ErrInternal is surfaced when a retried call still fails transiently.
	ErrInternal = errors.New("internal error")

	// ErrUnauthorized is surfaced when the authorization service rejects
	// the session.
	ErrUnauthorized = errors.New("session is not authorized")

	// ErrInvalidRequest is surfaced on caller input problems.
	ErrInvalidRequest = errors.New("invalid request")
)

// IsTransient reports whether err is a connection-class failure eligible
// for a retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConnection)
}
